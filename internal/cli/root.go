// Package cli implements the megakanban command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/backup"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	offline   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "megakanban" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "megakanban",
		Short: "A local-first kanban board with a remote mirror",
		Long: "megakanban keeps a kanban board of columns and blocks in a local store,\n" +
			"mirrors every change to a remote Postgres or PostgREST backend, keeps\n" +
			"deleted items in a 30-day trash, and writes hourly JSON backups.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&flags.offline, "offline", false, "do not contact the remote backend")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newProjectCmd())
	root.AddCommand(newColumnCmd())
	root.AddCommand(newBlockCmd())
	root.AddCommand(newTrashCmd())
	root.AddCommand(newBackupCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newRemoteCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitError carries the process exit code for a command failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }

func sysError(err error) error { return &exitError{code: exitSysError, err: err} }

// userErrors are failures caused by the arguments rather than the system.
var userErrors = []error{
	types.ErrColumnNotFound,
	types.ErrColumnExists,
	types.ErrBlockNotFound,
	types.ErrInvalidIndex,
	types.ErrLastBlock,
	types.ErrInvalidID,
	types.ErrTrashItemNotFound,
	types.ErrInvalidKind,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrRemoteDriverUnknown,
	types.ErrRemoteDSNEmpty,
	types.ErrRemoteURLEmpty,
	types.ErrRemoteTimeoutInvalid,
	types.ErrQueueSizeInvalid,
	backup.ErrNoData,
	backup.ErrNotDirectory,
}

// classify wraps err with an exit code unless it already has one.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return userError(err)
		}
	}
	return sysError(err)
}

// exitCode returns the exit code for an error returned by Execute. Errors
// without a code come from cobra's argument and flag parsing.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
