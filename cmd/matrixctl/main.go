// Command matrixctl parses interlock documents offline and administers the store.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/interlock-tracker/internal/common"
)

const appName = "matrixctl"

// Version is set at build time.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globals struct {
	cfg    *common.Config
	logger *slog.Logger
}

func rootCmd() *cobra.Command {
	g := &globals{}
	var logLevel string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Fire-safety interlock matrix tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfig()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			g.cfg = cfg
			g.logger = common.NewLogger(cfg.Log, os.Stderr)
			slog.SetDefault(g.logger)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		parseCmd(g),
		exportCmd(g),
		ingestCmd(g),
		dbhealthCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}
