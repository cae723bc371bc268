package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/migrate"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage the remote backend",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the remote Postgres schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings()
			if err != nil {
				return sysError(err)
			}
			if cfg.Remote.Driver != types.RemotePostgres {
				return userError(fmt.Errorf("remote migrate needs remote.driver %q, got %q", types.RemotePostgres, cfg.Remote.Driver))
			}
			if cfg.Remote.DSN == "" {
				return userError(types.ErrRemoteDSNEmpty)
			}
			if err := migrate.Up(commandContext(cmd), cfg.Remote.DSN); err != nil {
				return sysError(fmt.Errorf("migrate: %w", err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Remote schema is up to date")
			return nil
		},
	})
	return cmd
}
