package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/backup"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create backups and manage the backup directory",
	}
	dir := &cobra.Command{
		Use:   "dir",
		Short: "Manage the backup directory",
	}
	dir.AddCommand(newBackupDirSetCmd())
	dir.AddCommand(newBackupDirClearCmd())

	cmd.AddCommand(newBackupNowCmd())
	cmd.AddCommand(newBackupStatusCmd())
	cmd.AddCommand(dir)
	return cmd
}

func newBackupNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Write a backup regardless of the hourly gate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, s *session) error {
				res, err := s.Backup.CreateBackup(ctx)
				if err != nil {
					return fmt.Errorf("create backup: %w", err)
				}
				if flags.jsonMode {
					return printJSON(cmd, res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", res.Location)
				return nil
			})
		},
	}
}

// backupStatus is the JSON shape of the backup status command.
type backupStatus struct {
	Due       bool             `json:"due"`
	Remaining backup.Remaining `json:"remaining"`
	Directory string           `json:"directory,omitempty"`
	Path      string           `json:"path,omitempty"`
	LastStart *backup.Result   `json:"lastAutoBackup,omitempty"`
}

func newBackupStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show when the next automatic backup is due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, s *session) error {
				st := backupStatus{
					Due:       s.Backup.ShouldCreateBackup(),
					Remaining: s.Backup.TimeUntilNextBackup(),
					Directory: s.Backup.BackupDirectoryName(),
					Path:      s.Backup.BackupDirectoryPath(),
				}
				if res := s.start.Backup; res.FileName != "" {
					st.LastStart = &res
				}
				if flags.jsonMode {
					return printJSON(cmd, st)
				}
				out := cmd.OutOrStdout()
				if st.LastStart != nil {
					fmt.Fprintf(out, "Automatic backup written to %s\n", st.LastStart.Location)
				}
				if st.Due {
					fmt.Fprintln(out, "Next backup: due now")
				} else {
					fmt.Fprintf(out, "Next backup: in %dh %dm %ds\n", st.Remaining.Hours, st.Remaining.Minutes, st.Remaining.Seconds)
				}
				if st.Directory == "" {
					fmt.Fprintln(out, "Backup directory: not set (using downloads)")
				} else {
					fmt.Fprintf(out, "Backup directory: %s (%s)\n", st.Directory, st.Path)
				}
				return nil
			})
		},
	}
}

func newBackupDirSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <path>",
		Short: "Write backups to an existing directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, s *session) error {
				if err := s.Backup.SetBackupDirectory(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup directory set to %s\n", s.Backup.BackupDirectoryPath())
				return nil
			})
		},
	}
}

func newBackupDirClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the backup directory and use downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, s *session) error {
				if err := s.Backup.ClearBackupDirectory(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Backup directory cleared")
				return nil
			})
		},
	}
}
