package cmd

import (
	"fmt"

	"listen80/core/account"
	"listen80/db"
	"listen80/repository"

	"github.com/spf13/cobra"
)

var initializeCmd = &cobra.Command{
	Use:   "initialize",
	Short: "删除 RESET_CUTOFF 之后产生的数据",
	RunE: func(cmd *cobra.Command, args []string) error {
		cutoff, err := cfg.ResetCutoffTime()
		if err != nil {
			return err
		}
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return err
		}
		defer db.CloseGormDB(gdb)

		if err := account.NewService(repository.NewGormStore(gdb)).Reset(cmd.Context(), cutoff); err != nil {
			return err
		}
		fmt.Printf("dataset reset to %s\n", cfg.ResetCutoff)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initializeCmd)
}
