package cmd

import (
	"fmt"
	"os"

	"policy-agent/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "policy-agent",
	Short: "Network Policy Agent",
	Long: `Policy Agent keeps a managed network-policy backend consistent with
the authoritative inventory database. It reconciles security groups, QoS
policies and ports continuously and on demand.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with debug level gives readable ISO8601 output,
		// which fits a CLI failure better than production JSON.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
