package main

import (
	"os"

	"github.com/ogurasousui/contract-claims/internal/platform/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "claimctl",
		Short:         "Operations tool for the contract claims service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newHashPasswordCmd(),
		newReportCmd(opts),
	)
	return cmd
}

func (o *rootOptions) effectiveConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.effectiveConfigPath())
}
