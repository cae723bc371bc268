package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// boardView is the JSON shape of the show command.
type boardView struct {
	ProjectName string         `json:"projectName"`
	Columns     []types.Column `json:"columns"`
	TrashItems  int            `json:"trashItems"`
	Error       string         `json:"error,omitempty"`
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, s *session) error {
				view := boardView{
					ProjectName: s.Board.ProjectName(),
					Columns:     s.Board.Columns(),
					TrashItems:  s.Trash.Len(),
					Error:       s.Board.LastError(),
				}
				if flags.jsonMode {
					return printJSON(cmd, view)
				}
				printBoard(cmd, view)
				return nil
			})
		},
	}
}

func printBoard(cmd *cobra.Command, view boardView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", view.ProjectName)
	if len(view.Columns) == 0 {
		fmt.Fprintln(out, "\n(no columns)")
	}
	for i, col := range view.Columns {
		fmt.Fprintf(out, "\n[%d] %s  (%s)\n", i, col.Title, col.ID)
		for j, b := range col.Blocks {
			content := summary(b.Content, 60)
			if content == "" {
				content = "(empty)"
			}
			fmt.Fprintf(out, "  %d. %s  (%s)\n", j, content, b.ID)
		}
	}
	if view.TrashItems > 0 {
		fmt.Fprintf(out, "\nTrash: %d item(s)\n", view.TrashItems)
	}
}
