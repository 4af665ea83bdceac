package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/mediauth/store/pgstore"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL credential store schema",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "overrides store.postgres_url")

	open := func() (*pgstore.Migrator, error) {
		url := databaseURL
		if url == "" {
			cfg, err := load()
			if err != nil {
				return nil, err
			}
			url = cfg.Store.PostgresURL
		}
		if url == "" {
			return nil, oops.Code("CONFIG_INVALID").Errorf("a database URL is required (--database-url or store.postgres_url)")
		}
		return pgstore.NewMigrator(url)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.Up(); err != nil {
				return err
			}
			return printVersion(cmd, m)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration, dropping the accounts table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.Down(); err != nil {
				return err
			}
			return printVersion(cmd, m)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			return printVersion(cmd, m)
		},
	})

	return cmd
}

func printVersion(cmd *cobra.Command, m *pgstore.Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	cmd.Printf("schema version %d (dirty=%t)\n", v, dirty)
	return nil
}
