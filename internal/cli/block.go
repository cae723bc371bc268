package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

func newBlockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Add, edit, style, delete, and move blocks",
	}
	cmd.AddCommand(newBlockAddCmd())
	cmd.AddCommand(newBlockEditCmd())
	cmd.AddCommand(newBlockStyleCmd())
	cmd.AddCommand(newBlockDeleteCmd())
	cmd.AddCommand(newBlockMoveCmd())
	return cmd
}

func newBlockAddCmd() *cobra.Command {
	var (
		after   string
		content string
	)
	cmd := &cobra.Command{
		Use:   "add <column-id>",
		Short: "Insert an empty block after another block",
		Long:  "Insert a block after --after, or after the last block of the column.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			columnID := types.ID(args[0])
			return withApp(cmd, func(ctx context.Context, s *session) error {
				col, err := requireColumn(s, columnID)
				if err != nil {
					return err
				}
				anchor := types.ID(after)
				if anchor == "" {
					if len(col.Blocks) == 0 {
						return fmt.Errorf("%w: column %s has no blocks", types.ErrBlockNotFound, columnID)
					}
					anchor = col.Blocks[len(col.Blocks)-1].ID
				}
				b, ok := s.Board.AddBlockAfter(columnID, anchor)
				if !ok {
					return fmt.Errorf("%w: %s", types.ErrBlockNotFound, anchor)
				}
				if content != "" {
					s.Board.UpdateBlockContent(columnID, b.ID, content)
					b.Content = content
				}
				if flags.jsonMode {
					return printJSON(cmd, b)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added block %s\n", b.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&after, "after", "", "block to insert after (default: last block)")
	cmd.Flags().StringVar(&content, "content", "", "initial content")
	return cmd
}

func newBlockEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <column-id> <block-id> <content>",
		Short: "Replace a block's content",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			columnID, blockID := types.ID(args[0]), types.ID(args[1])
			content := strings.Join(args[2:], " ")
			return withApp(cmd, func(ctx context.Context, s *session) error {
				if _, _, err := requireBlock(s, columnID, blockID); err != nil {
					return err
				}
				s.Board.UpdateBlockContent(columnID, blockID, content)
				fmt.Fprintf(cmd.OutOrStdout(), "Updated block %s\n", blockID)
				return nil
			})
		},
	}
}

func newBlockStyleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "style <column-id> <block-id> key=value...",
		Short: "Set style attributes on a block",
		Long: `Set style attributes on a block. Values that parse as JSON are stored
decoded, anything else is stored as a string.

Example:
  megakanban block style <column-id> <block-id> backgroundColor=#ffe08a bold=true`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			columnID, blockID := types.ID(args[0]), types.ID(args[1])
			fields, err := parseStyle(args[2:])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, s *session) error {
				if _, _, err := requireBlock(s, columnID, blockID); err != nil {
					return err
				}
				s.Board.UpdateBlockStyle(columnID, blockID, fields)
				fmt.Fprintf(cmd.OutOrStdout(), "Styled block %s\n", blockID)
				return nil
			})
		},
	}
}

func newBlockDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <column-id> <block-id>",
		Short: "Move a block to the trash",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			columnID, blockID := types.ID(args[0]), types.ID(args[1])
			return withApp(cmd, func(ctx context.Context, s *session) error {
				col, _, err := requireBlock(s, columnID, blockID)
				if err != nil {
					return err
				}
				if len(col.Blocks) <= 1 {
					return types.ErrLastBlock
				}
				if !s.Board.DeleteBlock(columnID, blockID) {
					return fmt.Errorf("%w: %s", types.ErrBlockNotFound, blockID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved block %s to the trash\n", blockID)
				return nil
			})
		},
	}
}

func newBlockMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <src-column-id> <src-index> <dst-column-id> <dst-index>",
		Short: "Move a block within or between columns (zero-based)",
		Long: `Move a block within or between columns. The destination index is applied
after the block is removed from the source column.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcID, dstID := types.ID(args[0]), types.ID(args[2])
			srcIndex, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			dstIndex, err := parseIndex(args[3])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, s *session) error {
				if _, err := requireColumn(s, srcID); err != nil {
					return err
				}
				if _, err := requireColumn(s, dstID); err != nil {
					return err
				}
				if !s.Board.ReorderBlocks(srcID, srcIndex, dstID, dstIndex) {
					return fmt.Errorf("%w: %d -> %d", types.ErrInvalidIndex, srcIndex, dstIndex)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved block %s[%d] to %s[%d]\n", srcID, srcIndex, dstID, dstIndex)
				return nil
			})
		},
	}
}
