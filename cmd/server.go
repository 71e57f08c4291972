package cmd

import (
	"listen80/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动listen80服务器",
	Long:  `启动listen80的HTTP服务器，提供歌单API和Prometheus指标`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
