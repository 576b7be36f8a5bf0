package cmd

import (
	"MuseGen/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动MuseGen服务器",
	Long:  `启动MuseGen歌曲生成系统的HTTP服务器，提供生成API与媒体文件服务`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
