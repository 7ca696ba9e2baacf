package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/LeJamon/goListingd/internal/core/ledger"
	"github.com/LeJamon/goListingd/internal/core/ledger/service"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/storage/database"
)

// setDefaults sets every default value
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", ".")

	// Server
	v.SetDefault("server.bind", "127.0.0.1")
	v.SetDefault("server.port", 8899)
	v.SetDefault("server.websocket", true)
	v.SetDefault("server.metrics", true)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_request_bytes", 1<<20)

	// Ledger
	v.SetDefault("ledger.program_id", "")
	v.SetDefault("ledger.deposit_per_byte", sle.DefaultDepositPerByte)
	v.SetDefault("ledger.cache_size", ledger.DefaultCacheSize)
	v.SetDefault("ledger.dedup_window", service.DefaultDedupWindow)
	v.SetDefault("ledger.event_buffer", service.DefaultEventBuffer)
	v.SetDefault("ledger.standalone", false)

	// Ledger state database
	v.SetDefault("database.backend", "pebble")
	v.SetDefault("database.path", "state")
	v.SetDefault("database.cache_mb", database.DefaultCacheBytes>>20)
	v.SetDefault("database.no_sync", false)

	// History is off unless a driver is set
	v.SetDefault("history.driver", "")
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.max_open_conns", 0)
	v.SetDefault("history.max_idle_conns", 0)
	v.SetDefault("history.conn_max_lifetime", time.Duration(0))
	v.SetDefault("history.timeout", 30*time.Second)

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_rolls", 3)
	v.SetDefault("log.console", true)
}
