package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:       "migrate [up|down|drop|version]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "drop", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) > 0 {
				action = args[0]
			}

			cfg, err := root.load()
			if err != nil {
				return err
			}

			if err := runMigration(cmd.OutOrStdout(), action, dir, cfg.Database.DSN()); err != nil {
				return fmt.Errorf("migration %s failed: %w", action, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migration %s completed\n", action)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "assets/migrations", "directory containing migration files")
	return cmd
}

func runMigration(out io.Writer, action, dir, dsn string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	absDir = filepath.ToSlash(absDir)

	m, err := migrate.New(fmt.Sprintf("file://%s", absDir), dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "drop":
		return m.Drop()
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Fprintln(out, "no migration applied")
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "version=%d dirty=%t\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}
