package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/trash"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

func newTrashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect, restore, and purge deleted items",
		Long: fmt.Sprintf("Deleted columns and blocks stay in the trash for %d days. Expired items\n"+
			"are removed at most once a day when a command starts.", trash.RetentionDays),
	}
	cmd.AddCommand(newTrashListCmd())
	cmd.AddCommand(newTrashRestoreColumnCmd())
	cmd.AddCommand(newTrashRestoreBlockCmd())
	cmd.AddCommand(newTrashPurgeCmd())
	cmd.AddCommand(newTrashClearCmd())
	cmd.AddCommand(newTrashCleanupCmd())
	return cmd
}

func newTrashListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trashed columns and blocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, s *session) error {
				bin := s.Trash.Bin()
				if flags.jsonMode {
					return printJSON(cmd, bin)
				}
				if bin.Len() == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Trash is empty")
					return nil
				}
				w := newTable(cmd)
				fmt.Fprintln(w, "KIND\tID\tTITLE\tDELETED\tFROM")
				for _, tc := range bin.Columns {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t-\n",
						types.TrashKindColumn, tc.ID, summary(tc.Title, 40), formatTime(tc.DeletedAt))
				}
				for _, tb := range bin.Blocks {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						types.TrashKindBlock, tb.ID, summary(tb.Content, 40), formatTime(tb.DeletedAt), tb.SourceColumnTitle)
				}
				return w.Flush()
			})
		},
	}
}

func newTrashRestoreColumnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore-column <id>",
		Short: "Restore a column to the end of the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := types.ID(args[0])
			return withApp(cmd, func(ctx context.Context, s *session) error {
				if err := s.RestoreColumn(id); err != nil {
					return fmt.Errorf("restore column %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored column %s\n", id)
				return nil
			})
		},
	}
}

func newTrashRestoreBlockCmd() *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "restore-block <id>",
		Short: "Restore a block to the end of a column",
		Long:  "Restore a block to the end of --column, or of the column it was deleted from.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := types.ID(args[0])
			return withApp(cmd, func(ctx context.Context, s *session) error {
				target, err := s.RestoreBlock(id, types.ID(column))
				if err != nil {
					return fmt.Errorf("restore block %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored block %s to column %s\n", id, target)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "target column (default: the column it was deleted from)")
	return cmd
}

func newTrashPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <column|block> <id>",
		Short: "Permanently delete one trashed item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, id := types.TrashKind(args[0]), types.ID(args[1])
			if !kind.Valid() {
				return userError(fmt.Errorf("%w: %q (valid: %s, %s)", types.ErrInvalidKind, kind, types.TrashKindColumn, types.TrashKindBlock))
			}
			return withApp(cmd, func(ctx context.Context, s *session) error {
				if err := s.PurgeTrashItem(id, kind); err != nil {
					return fmt.Errorf("purge %s %s: %w", kind, id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Permanently deleted %s %s\n", kind, id)
				return nil
			})
		},
	}
}

func newTrashClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Permanently delete everything in the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, s *session) error {
				n := s.Trash.Len()
				s.Trash.ClearTrash()
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d item(s) from the trash\n", n)
				return nil
			})
		},
	}
}

// newTrashCleanupCmd reports the expiry pass. The pass itself runs in the
// start lifecycle of every command, so this command only surfaces it.
func newTrashCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: fmt.Sprintf("Remove items deleted more than %d days ago", trash.RetentionDays),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, s *session) error {
				if flags.jsonMode {
					return printJSON(cmd, map[string]any{"cleaned": s.start.Cleaned, "remaining": s.Trash.Len()})
				}
				if s.start.Cleaned {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed expired items, %d left in the trash\n", s.Trash.Len())
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to clean up (expired items are checked once a day)")
				return nil
			})
		},
	}
}
