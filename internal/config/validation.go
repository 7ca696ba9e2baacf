package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/storage/database/backends"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := validateServer(&config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := validateLedger(&config.Ledger); err != nil {
		return fmt.Errorf("ledger config validation failed: %w", err)
	}

	if err := validateDatabase(&config.Database); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}

	if config.History.Enabled() {
		if _, err := config.RelationalConfig(); err != nil {
			return fmt.Errorf("history config validation failed: %w", err)
		}
	}

	if _, _, err := logging.ParseLevels(config.Log.Level); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}
	if config.Log.MaxRolls < 0 {
		return fmt.Errorf("log config validation failed: max_rolls must be non-negative")
	}

	if _, err := config.GenesisState(); err != nil {
		return fmt.Errorf("genesis config validation failed: %w", err)
	}

	return nil
}

func validateServer(s *ServerConfig) error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", s.Port)
	}
	if s.MaxRequestBytes <= 0 {
		return fmt.Errorf("max_request_bytes must be positive")
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.ShutdownTimeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	return nil
}

func validateLedger(l *LedgerConfig) error {
	if _, err := l.Program(); err != nil {
		return fmt.Errorf("invalid program_id %q: %w", l.ProgramID, err)
	}
	if l.DepositPerByte == 0 {
		return fmt.Errorf("deposit_per_byte must be positive")
	}
	if l.CacheSize < 0 || l.DedupWindow < 0 || l.EventBuffer < 0 {
		return fmt.Errorf("cache_size, dedup_window and event_buffer must be non-negative")
	}
	return nil
}

func validateDatabase(d *DatabaseConfig) error {
	names := backends.Names()
	if !slices.Contains(names, d.Backend) {
		return fmt.Errorf("unknown backend %q (supported: %s)", d.Backend, strings.Join(names, ", "))
	}
	if d.Backend != backends.Memory && d.Path == "" {
		return fmt.Errorf("path is required for backend %q", d.Backend)
	}
	if d.CacheMB < 0 {
		return fmt.Errorf("cache_mb must not be negative")
	}
	return nil
}
