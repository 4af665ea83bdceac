package main

import (
	"github.com/spf13/cobra"

	"github.com/MrEthical07/mediauth/config"
)

// NewRootCmd builds the command tree. Each call returns a fresh tree so
// tests can execute commands independently.
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          "mediauth",
		Short:        "Operational tooling for the mediauth engine",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file; empty reads the environment only")

	load := func() (*config.File, error) {
		return config.Load(configFile)
	}

	cmd.AddCommand(newMigrateCmd(load))
	cmd.AddCommand(newMailRelayCmd(load))
	cmd.AddCommand(newLoadtestCmd())
	return cmd
}

type configLoader func() (*config.File, error)
