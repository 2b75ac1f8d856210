// Package cli implements the uftp command line tool.
package cli

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/uftp-network/uftp-engine/internal/config"
	"github.com/uftp-network/uftp-engine/internal/logger"
	"github.com/uftp-network/uftp-engine/internal/version"
)

var (
	cfg       *config.ClientEnvironment
	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "uftp",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "UFTP participant CLI",
	Long:              `uftp generates keys, seals and verifies UFTP messages, sends messages to other participants and prints ISP tables`,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewClientConfig()
		if err != nil {
			log.Printf("failed to load configuration: %v", err.Error())
			return err
		}

		appLogger = logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
		return nil
	},
}

func Execute() {
	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(sealCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(ispCmd)
}
