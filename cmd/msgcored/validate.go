package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"icc.tech/msgcore/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the worker configuration without starting anything",
	Long: `Validate loads the config file given with --config (or the
built-in defaults when omitted), checks the tunables are internally
consistent, and prints a summary.

Examples:
  msgcored validate
  msgcored validate -c worker.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("INVALID: %w", err)
		}
		runValidate(cfg, cmd.OutOrStdout())
		return nil
	},
}

func runValidate(cfg *config.Config, out io.Writer) {
	fmt.Fprintf(out, "VALID: mbuf_cap=%d max_alloc_msgs=%d allowed_alloc_msgs=%d iov_max_cap=%d server_timeout_ms=%d\n",
		cfg.Core.MBufCap,
		cfg.Core.MaxAllocMsgs,
		cfg.Core.AllowedAllocMsgs,
		cfg.Core.IOVMaxCap,
		cfg.Core.ServerTimeoutMS,
	)
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}
