// Shared helpers for megakanban CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/app"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/logging"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// shutdownTimeout bounds how long a command waits for pending remote writes.
const shutdownTimeout = 10 * time.Second

// session is an opened app plus what its start lifecycle did.
type session struct {
	*app.App
	start app.StartReport
}

// withApp opens the app, runs its start lifecycle, calls fn, and closes the
// app, draining pending remote writes. A remote failure recorded during
// the command is printed as a warning.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := commandContext(cmd)

	cfg, err := loadSettings()
	if err != nil {
		return sysError(err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return userError(fmt.Errorf("configure logging: %w", err))
	}

	var opts []app.Option
	if flags.offline {
		opts = append(opts, app.WithOffline())
	}
	a, err := app.Open(ctx, cfg, logger, opts...)
	if err != nil {
		return classify(err)
	}

	s := &session{App: a}
	s.start = a.Start(ctx)
	runErr := fn(ctx, s)

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		logger.Warn("closing app", zap.Error(err))
		if runErr == nil {
			runErr = sysError(err)
		}
	}
	if msg := a.Board.LastError(); msg != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", msg)
	}
	return classify(runErr)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	return nil
}

func newTable(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
}

// parseIndex parses a zero-based position argument.
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, userError(fmt.Errorf("%w: %q", types.ErrInvalidIndex, s))
	}
	return n, nil
}

// parseStyle parses key=value arguments. Values that are valid JSON are
// decoded, anything else is kept as a string.
func parseStyle(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, userError(fmt.Errorf("invalid style %q (expected key=value)", arg))
		}
		if types.IsReservedKey(key) {
			return nil, userError(fmt.Errorf("%q is not a style property", key))
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		fields[key] = parsed
	}
	return fields, nil
}

// requireColumn returns the column or ErrColumnNotFound.
func requireColumn(s *session, id types.ID) (types.Column, error) {
	col, ok := s.Board.Column(id)
	if !ok {
		return types.Column{}, fmt.Errorf("%w: %s", types.ErrColumnNotFound, id)
	}
	return col, nil
}

// requireBlock returns the column holding blockID and the block's index.
func requireBlock(s *session, columnID, blockID types.ID) (types.Column, int, error) {
	col, err := requireColumn(s, columnID)
	if err != nil {
		return col, -1, err
	}
	i := col.BlockIndex(blockID)
	if i < 0 {
		return col, -1, fmt.Errorf("%w: %s", types.ErrBlockNotFound, blockID)
	}
	return col, i, nil
}

// summary shortens text to one line for table output.
func summary(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len([]rune(text)) <= width {
		return text
	}
	return string([]rune(text)[:width-3]) + "..."
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
