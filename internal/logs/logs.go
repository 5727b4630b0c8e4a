// Package logs builds the scoped leveled loggers used across pidsim.
//
// Every long-lived component takes a [logging.LoggerFactory] and asks it for
// a logger named after its scope. PION_LOG_<LEVEL>=scope1,scope2 environment
// variables still override the level for individual scopes.
package logs

import (
	"fmt"
	"io"
	"strings"

	"github.com/pion/logging"
)

// Scopes used by pidsim components.
const (
	ScopeCLI        = "cli"
	ScopeExperiment = "experiment"
	ScopeSim        = "sim"
	ScopeStorage    = "storage"
	ScopeTUI        = "tui"
)

var levels = map[string]logging.LogLevel{
	"disable": logging.LogLevelDisabled,
	"error":   logging.LogLevelError,
	"warn":    logging.LogLevelWarn,
	"info":    logging.LogLevelInfo,
	"debug":   logging.LogLevelDebug,
	"trace":   logging.LogLevelTrace,
}

// ParseLevel accepts disable, error, warn, info, debug or trace in any case.
func ParseLevel(name string) (logging.LogLevel, error) {
	lvl, ok := levels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return logging.LogLevelDisabled, fmt.Errorf("logs: unknown level %q (want disable|error|warn|info|debug|trace)", name)
	}
	return lvl, nil
}

// NewFactory returns a factory writing to w at the named default level.
// A nil w keeps the factory's stderr default.
func NewFactory(level string, w io.Writer) (*logging.DefaultLoggerFactory, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = lvl
	if w != nil {
		f.Writer = w
	}
	return f, nil
}

// OrDefault returns f, or the environment-driven default factory when f is nil.
func OrDefault(f logging.LoggerFactory) logging.LoggerFactory {
	if f == nil {
		return logging.NewDefaultLoggerFactory()
	}
	return f
}

// Discard returns a factory whose loggers drop everything.
func Discard() logging.LoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = logging.LogLevelDisabled
	f.ScopeLevels = map[string]logging.LogLevel{}
	f.Writer = io.Discard
	return f
}
