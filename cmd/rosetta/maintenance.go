package main

import (
	"fmt"

	"github.com/spf13/cobra"

	infra_config "github.com/spounge-ai/rosetta/internal/infra/config"
	"github.com/spounge-ai/rosetta/internal/infra/storage"
)

func newProxyCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "proxy-check [URL]",
		Short: "Check that a Gemini proxy answers; defaults to the stored proxy URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.ProxyHealth.Close() }()

			url := ""
			if len(args) == 1 {
				url = args[0]
			} else {
				prefs, err := svc.Preferences.GetOrDefault(cmd.Context())
				if err != nil {
					return err
				}
				url = prefs.ProxyURL()
			}
			if url == "" {
				return fmt.Errorf("no proxy URL given and none stored")
			}

			healthy, err := svc.ProxyHealth.Check(cmd.Context(), url)
			if err != nil {
				return err
			}
			if !healthy {
				return fmt.Errorf("proxy %s is not healthy", url)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "proxy %s is healthy\n", url)
			return nil
		},
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the storage schema for the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch a.cfg.Storage.Backend {
			case infra_config.StoragePostgres:
				if err := storage.MigratePostgres(a.cfg.Storage.Postgres.URL); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
			case infra_config.StorageSQLite:
				// Opening applies the schema.
				if _, err := a.container.GetDependencies(cmd.Context()); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s storage has no schema\n", a.cfg.Storage.Backend)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", a.cfg.Storage.Backend)
			return nil
		},
	}
}
