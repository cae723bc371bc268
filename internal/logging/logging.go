// Package logging builds the zap logger from the log section of the config.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// Log formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// DefaultLevel keeps CLI output quiet unless something goes wrong.
const DefaultLevel = "warn"

// New returns a logger writing to stderr. The json format uses the
// production encoder; text uses the console encoder.
func New(cfg types.LogConfig) (*zap.Logger, error) {
	levelName := cfg.Level
	if levelName == "" {
		levelName = DefaultLevel
	}
	level, err := zapcore.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch cfg.Format {
	case FormatJSON:
		zc = zap.NewProductionConfig()
	case "", FormatText:
		zc = zap.NewDevelopmentConfig()
		zc.Development = false
		zc.DisableStacktrace = true
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}
