// Package logging provides the subsystem loggers used throughout listingd.
// Every component that logs accepts a Logger; nothing logs through a global.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// Logger is the logging interface handed to every constructor.
type Logger = slog.Logger

// Disabled discards everything. Tests use it.
var Disabled Logger = slog.Disabled

// Subsystem identifiers.
const (
	SubsystemMain    = "MAIN"
	SubsystemLedger  = "LDGR"
	SubsystemTx      = "TXN"
	SubsystemRPC     = "RPC"
	SubsystemDB      = "DB"
	SubsystemHistory = "HIST"
)

// Subsystems lists every known subsystem identifier.
func Subsystems() []string {
	return []string{SubsystemMain, SubsystemLedger, SubsystemTx, SubsystemRPC, SubsystemDB, SubsystemHistory}
}

// LoggerMaker allows creation of new log subsystems with predefined levels.
type LoggerMaker struct {
	*slog.Backend
	DefaultLevel slog.Level
	Levels       map[string]slog.Level

	rotator *rotator.Rotator
}

// Config selects log outputs and levels.
type Config struct {
	// Level is either a single level ("info") or a comma separated list
	// with per-subsystem overrides ("info,TXN=debug").
	Level    string
	File     string
	MaxRolls int
	Console  bool
}

// NewLoggerMaker builds the backend described by cfg. Close must be called on
// shutdown when a log file is configured.
func NewLoggerMaker(cfg Config) (*LoggerMaker, error) {
	def, levels, err := ParseLevels(cfg.Level)
	if err != nil {
		return nil, err
	}

	lm := &LoggerMaker{
		DefaultLevel: def,
		Levels:       levels,
	}

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, os.Stdout)
	}
	if cfg.File != "" {
		logDir, _ := filepath.Split(cfg.File)
		if logDir != "" {
			if err := os.MkdirAll(logDir, 0700); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		maxRolls := cfg.MaxRolls
		if maxRolls <= 0 {
			maxRolls = 16
		}
		lm.rotator, err = rotator.New(cfg.File, 32*1024, false, maxRolls)
		if err != nil {
			return nil, fmt.Errorf("failed to create file rotator: %w", err)
		}
		writers = append(writers, lm.rotator)
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}
	lm.Backend = slog.NewBackend(out)
	return lm, nil
}

// SubLogger creates a Logger with a subsystem name "parent[name]", using any
// known log level for the parent subsystem.
func (lm *LoggerMaker) SubLogger(parent, name string) Logger {
	level, ok := lm.Levels[parent]
	if !ok {
		level = lm.DefaultLevel
	}
	logger := lm.Backend.Logger(fmt.Sprintf("%s[%s]", parent, name))
	logger.SetLevel(level)
	return logger
}

// NewLogger creates a new Logger for the subsystem with the given name.
func (lm *LoggerMaker) NewLogger(name string, level ...slog.Level) Logger {
	lvl, ok := lm.Levels[name]
	if !ok {
		lvl = lm.DefaultLevel
	}
	if len(level) > 0 {
		lvl = level[0]
	}
	logger := lm.Backend.Logger(name)
	logger.SetLevel(lvl)
	return logger
}

// Close flushes and closes the log file, if any.
func (lm *LoggerMaker) Close() error {
	if lm.rotator == nil {
		return nil
	}
	return lm.rotator.Close()
}

// ParseLevels parses "level[,SUBSYS=level...]".
func ParseLevels(spec string) (slog.Level, map[string]slog.Level, error) {
	def := slog.LevelInfo
	levels := make(map[string]slog.Level)
	if strings.TrimSpace(spec) == "" {
		return def, levels, nil
	}

	known := make(map[string]bool)
	for _, s := range Subsystems() {
		known[s] = true
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		subsys, lvlStr, hasSubsys := strings.Cut(part, "=")
		if !hasSubsys {
			lvl, ok := slog.LevelFromString(part)
			if !ok {
				return def, nil, fmt.Errorf("invalid log level %q", part)
			}
			def = lvl
			continue
		}
		if !known[subsys] {
			return def, nil, fmt.Errorf("unknown log subsystem %q (known: %s)", subsys, strings.Join(sortedSubsystems(), ", "))
		}
		lvl, ok := slog.LevelFromString(lvlStr)
		if !ok {
			return def, nil, fmt.Errorf("invalid log level %q for %s", lvlStr, subsys)
		}
		levels[subsys] = lvl
	}
	return def, levels, nil
}

func sortedSubsystems() []string {
	s := Subsystems()
	sort.Strings(s)
	return s
}
