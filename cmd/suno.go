package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"MuseGen/config"
	"MuseGen/core/suno"

	"github.com/spf13/cobra"
)

var sunoCmd = &cobra.Command{
	Use:   "suno",
	Short: "Suno API连接测试工具",
}

// creditsCmd 查询Suno账户的剩余点数，用于排查配置的cookie是否仍然有效。
// 注意这是服务商侧的计费信息，用户侧配额以本地每日生成数为准。
var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "查询Suno账户剩余点数",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if cfg.SunoCookie == "" {
			fmt.Fprintln(os.Stderr, "SUNO_COOKIE is not set")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client := suno.NewClient(suno.Config{
			Cookie:   cfg.SunoCookie,
			BaseURL:  cfg.SunoBaseURL,
			ClerkURL: cfg.SunoClerkURL,
			Model:    cfg.SunoModel,
		})
		if err := client.Initialize(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize suno session: %v\n", err)
			os.Exit(1)
		}
		if err := client.KeepAlive(ctx, false); err != nil {
			fmt.Fprintf(os.Stderr, "failed to renew suno token: %v\n", err)
			os.Exit(1)
		}

		credits, err := client.Credits(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to query credits: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("credits left: %d\n", credits.CreditsLeft)
		fmt.Printf("period:       %s\n", credits.Period)
		fmt.Printf("monthly:      %d / %d\n", credits.MonthlyUsage, credits.MonthlyLimit)
	},
}

func init() {
	sunoCmd.AddCommand(creditsCmd)
	rootCmd.AddCommand(sunoCmd)
}
