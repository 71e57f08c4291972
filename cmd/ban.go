package cmd

import (
	"fmt"

	"listen80/core/account"
	"listen80/db"
	"listen80/repository"

	"github.com/spf13/cobra"
)

var unban bool

var banCmd = &cobra.Command{
	Use:   "ban <account>",
	Short: "封禁或解封用户",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return err
		}
		defer db.CloseGormDB(gdb)

		user, err := account.NewService(repository.NewGormStore(gdb)).SetBan(cmd.Context(), args[0], !unban)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s) is_ban=%t\n", user.Account, user.DisplayName, user.IsBan)
		return nil
	},
}

func init() {
	banCmd.Flags().BoolVar(&unban, "unban", false, "clear the ban flag instead of setting it")
	rootCmd.AddCommand(banCmd)
}
