package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

func newColumnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Add, rename, delete, and move columns",
	}
	cmd.AddCommand(newColumnAddCmd())
	cmd.AddCommand(newColumnRenameCmd())
	cmd.AddCommand(newColumnDeleteCmd())
	cmd.AddCommand(newColumnMoveCmd())
	return cmd
}

func newColumnAddCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a column with one empty block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, s *session) error {
				col := s.Board.AddColumn()
				if title != "" && s.Board.UpdateColumnTitle(col.ID, title) {
					col.Title = title
				}
				if flags.jsonMode {
					return printJSON(cmd, col)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", col.Title, col.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "column title (default: next \"Column N\")")
	return cmd
}

func newColumnRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <column-id> <title>",
		Short: "Rename a column",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := types.ID(args[0])
			title := strings.Join(args[1:], " ")
			return withApp(cmd, func(ctx context.Context, s *session) error {
				if !s.Board.UpdateColumnTitle(id, title) {
					return fmt.Errorf("%w: %s", types.ErrColumnNotFound, id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", id, title)
				return nil
			})
		},
	}
}

func newColumnDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <column-id>",
		Short: "Move a column and its blocks to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := types.ID(args[0])
			return withApp(cmd, func(ctx context.Context, s *session) error {
				if !s.Board.DeleteColumn(id) {
					return fmt.Errorf("%w: %s", types.ErrColumnNotFound, id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved column %s to the trash\n", id)
				return nil
			})
		},
	}
}

func newColumnMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a column to another position (zero-based)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			to, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, s *session) error {
				if from == to {
					return nil
				}
				if !s.Board.ReorderColumns(from, to) {
					return fmt.Errorf("%w: %d -> %d", types.ErrInvalidIndex, from, to)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved column %d to %d\n", from, to)
				return nil
			})
		},
	}
}
