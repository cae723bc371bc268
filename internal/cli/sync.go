package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNoRemote = errors.New("no remote configured (set remote.driver or SUPABASE_URL and SUPABASE_ANON_KEY, and drop --offline)")

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize with the remote backend",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "pull",
		Short: "Replace local state with the newest remote records",
		Long: "Load the newest project name, board, and trash from the remote and\n" +
			"install them locally. Local changes that never reached the remote are\n" +
			"pushed instead of overwritten. Every command already pulls on start;\n" +
			"this one reports the result.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, s *session) error {
				if s.Remote == nil {
					return userError(errNoRemote)
				}
				if flags.jsonMode {
					return printJSON(cmd, map[string]any{
						"pulled":  s.start.Pulled,
						"columns": len(s.Board.Columns()),
						"trash":   s.Trash.Len(),
						"error":   s.Board.LastError(),
					})
				}
				if !s.start.Pulled {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing pulled, keeping local data")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pulled %q: %d column(s), %d trash item(s)\n",
					s.Board.ProjectName(), len(s.Board.Columns()), s.Trash.Len())
				return nil
			})
		},
	})
	return cmd
}
