package cmd

import (
	"listen80/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新数据表",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return err
		}
		defer db.CloseGormDB(gdb)
		return db.AutoMigrateModels(gdb)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
