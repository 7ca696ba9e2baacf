package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevels(t *testing.T) {
	tt := []struct {
		description string
		spec        string
		def         slog.Level
		levels      map[string]slog.Level
		fails       bool
	}{
		{"empty", "", slog.LevelInfo, map[string]slog.Level{}, false},
		{"default only", "debug", slog.LevelDebug, map[string]slog.Level{}, false},
		{"with override", "warn, TXN=trace", slog.LevelWarn, map[string]slog.Level{"TXN": slog.LevelTrace}, false},
		{"bad level", "loud", slog.LevelInfo, nil, true},
		{"unknown subsystem", "NOPE=debug", slog.LevelInfo, nil, true},
	}

	for _, tc := range tt {
		t.Run(tc.description, func(t *testing.T) {
			def, levels, err := ParseLevels(tc.spec)
			if tc.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.def, def)
			assert.Equal(t, tc.levels, levels)
		})
	}
}

func TestLoggerMakerWritesFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "listingd.log")
	lm, err := NewLoggerMaker(Config{Level: "info,TXN=debug", File: logFile, MaxRolls: 2})
	require.NoError(t, err)

	txLog := lm.NewLogger(SubsystemTx)
	assert.Equal(t, slog.LevelDebug, txLog.Level())
	mainLog := lm.NewLogger(SubsystemMain)
	assert.Equal(t, slog.LevelInfo, mainLog.Level())

	txLog.Debugf("applied %d", 1)
	mainLog.Debugf("suppressed")
	require.NoError(t, lm.Close())

	raw, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[DBG] TXN: applied 1")
	assert.NotContains(t, string(raw), "suppressed")
}
