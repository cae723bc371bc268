package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage the project",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rename <name>",
		Short: "Rename the project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return userError(errors.New("project name must not be empty"))
			}
			return withApp(cmd, func(ctx context.Context, s *session) error {
				s.Board.SetProjectName(name)
				if flags.jsonMode {
					return printJSON(cmd, map[string]string{"projectName": name})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project renamed to %q\n", name)
				return nil
			})
		},
	})
	return cmd
}
