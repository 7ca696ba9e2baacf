// Package config loads the listingd configuration from defaults, a TOML
// file and LISTINGD_ environment variables.
package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/LeJamon/goListingd/internal/core/ledger/genesis"
	"github.com/LeJamon/goListingd/internal/core/ledger/service"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/storage/database"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
	"github.com/LeJamon/goListingd/internal/types"
)

// DefaultConfigFile is looked up in the data directory when no file is given.
const DefaultConfigFile = "listingd.toml"

// Config represents the complete listingd configuration
type Config struct {
	// DataDir anchors relative paths of the database, history and log file.
	DataDir string `toml:"data_dir" mapstructure:"data_dir"`

	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Ledger   LedgerConfig   `toml:"ledger" mapstructure:"ledger"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	History  HistoryConfig  `toml:"history" mapstructure:"history"`
	Log      LogConfig      `toml:"log" mapstructure:"log"`
	Genesis  GenesisConfig  `toml:"genesis" mapstructure:"genesis"`

	// Internal fields for configuration management
	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig is the RPC listener.
type ServerConfig struct {
	Bind string `toml:"bind" mapstructure:"bind"`
	Port int    `toml:"port" mapstructure:"port"`

	// Websocket enables the /ws event stream
	Websocket bool `toml:"websocket" mapstructure:"websocket"`
	// Metrics enables /metrics
	Metrics bool `toml:"metrics" mapstructure:"metrics"`

	ReadTimeout     time.Duration `toml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// MaxRequestBytes bounds a JSON-RPC request body
	MaxRequestBytes int64 `toml:"max_request_bytes" mapstructure:"max_request_bytes"`
}

// Address returns the host:port the server listens on.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Bind, strconv.Itoa(s.Port))
}

// LedgerConfig configures the marketplace engine.
type LedgerConfig struct {
	// ProgramID is the base58 marketplace identity. Empty selects the
	// built-in default.
	ProgramID      string `toml:"program_id" mapstructure:"program_id"`
	DepositPerByte uint64 `toml:"deposit_per_byte" mapstructure:"deposit_per_byte"`
	CacheSize      int    `toml:"cache_size" mapstructure:"cache_size"`
	DedupWindow    int    `toml:"dedup_window" mapstructure:"dedup_window"`
	EventBuffer    int    `toml:"event_buffer" mapstructure:"event_buffer"`

	// Standalone enables the faucet
	Standalone bool `toml:"standalone" mapstructure:"standalone"`
}

// Program returns the configured marketplace program id.
func (l LedgerConfig) Program() (types.Address, error) {
	if l.ProgramID == "" {
		return types.DefaultMarketplaceID, nil
	}
	return types.ParseAddress(l.ProgramID)
}

// DatabaseConfig selects the ledger state backend.
type DatabaseConfig struct {
	Backend string `toml:"backend" mapstructure:"backend"`
	Path    string `toml:"path" mapstructure:"path"`

	// CacheMB sizes the pebble and leveldb block cache
	CacheMB int `toml:"cache_mb" mapstructure:"cache_mb"`
	// NoSync skips the fsync after each committed invocation
	NoSync bool `toml:"no_sync" mapstructure:"no_sync"`
}

// HistoryConfig configures the relational invocation history. An empty
// driver disables it.
type HistoryConfig struct {
	Driver string `toml:"driver" mapstructure:"driver"`

	// DSN is a postgres connection string or a sqlite file path
	DSN string `toml:"dsn" mapstructure:"dsn"`

	MaxOpenConns    int           `toml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	Timeout         time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// Enabled reports whether a history store is configured.
func (h HistoryConfig) Enabled() bool {
	return h.Driver != ""
}

// LogConfig configures the logging backend.
type LogConfig struct {
	// Level is a level or a per-subsystem list ("info,TXN=debug")
	Level    string `toml:"level" mapstructure:"level"`
	File     string `toml:"file" mapstructure:"file"`
	MaxRolls int    `toml:"max_rolls" mapstructure:"max_rolls"`
	Console  bool   `toml:"console" mapstructure:"console"`
}

// GenesisConfig lists the wallets funded when the ledger starts empty.
type GenesisConfig struct {
	Accounts []GenesisAccount `toml:"accounts" mapstructure:"accounts"`
}

// GenesisAccount is a wallet funded at genesis.
type GenesisAccount struct {
	Address  string `toml:"address" mapstructure:"address"`
	Lamports uint64 `toml:"lamports" mapstructure:"lamports"`
}

// GetConfigPath returns the path to the configuration file, if one was read.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// ResolvePath makes p absolute relative to the data directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// DatabasePath returns the resolved ledger state directory.
func (c *Config) DatabasePath() string {
	return c.ResolvePath(c.Database.Path)
}

// StorageOptions converts the database section for backends.Open.
func (c *Config) StorageOptions(log logging.Logger) database.Options {
	return database.Options{
		CacheBytes: int64(c.Database.CacheMB) << 20,
		NoSync:     c.Database.NoSync,
		Log:        log,
	}
}

// LoggingConfig converts the log section for logging.NewLoggerMaker.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:    c.Log.Level,
		File:     c.ResolvePath(c.Log.File),
		MaxRolls: c.Log.MaxRolls,
		Console:  c.Log.Console,
	}
}

// RelationalConfig converts the history section for the history store.
func (c *Config) RelationalConfig() (*relationaldb.Config, error) {
	var rc *relationaldb.Config
	switch c.History.Driver {
	case relationaldb.DriverSQLite:
		dsn := c.History.DSN
		if dsn == "" {
			dsn = "history.db"
		}
		rc = relationaldb.SQLiteConfig(c.ResolvePath(dsn))
	case relationaldb.DriverPostgres:
		rc = relationaldb.PostgresConfig()
		rc.ConnectionString = c.History.DSN
	default:
		return nil, fmt.Errorf("unknown history driver %q", c.History.Driver)
	}
	if c.History.MaxOpenConns > 0 {
		rc.MaxOpenConns = c.History.MaxOpenConns
	}
	if c.History.MaxIdleConns > 0 {
		rc.MaxIdleConns = c.History.MaxIdleConns
	}
	if c.History.ConnMaxLifetime > 0 {
		rc.ConnMaxLifetime = c.History.ConnMaxLifetime
	}
	if c.History.Timeout > 0 {
		rc.DefaultTimeout = c.History.Timeout
	}
	return rc, rc.Validate()
}

// GenesisState converts the genesis section.
func (c *Config) GenesisState() (genesis.Config, error) {
	out := genesis.Config{Accounts: make([]genesis.Account, 0, len(c.Genesis.Accounts))}
	for i, a := range c.Genesis.Accounts {
		addr, err := types.ParseAddress(a.Address)
		if err != nil {
			return genesis.Config{}, fmt.Errorf("genesis account %d: %w", i, err)
		}
		out.Accounts = append(out.Accounts, genesis.Account{Address: addr, Lamports: a.Lamports})
	}
	return out, nil
}

// ServiceConfig builds the ledger service configuration. History, metrics
// and the asset service are wired by the caller.
func (c *Config) ServiceConfig() (service.Config, error) {
	program, err := c.Ledger.Program()
	if err != nil {
		return service.Config{}, fmt.Errorf("ledger.program_id: %w", err)
	}
	gen, err := c.GenesisState()
	if err != nil {
		return service.Config{}, err
	}
	sc := service.DefaultConfig()
	sc.Engine.ProgramID = program
	sc.Engine.Standalone = c.Ledger.Standalone
	if c.Ledger.DepositPerByte > 0 {
		sc.Engine.DepositPerByte = c.Ledger.DepositPerByte
	}
	if c.Ledger.DedupWindow > 0 {
		sc.DedupWindow = c.Ledger.DedupWindow
	}
	if c.Ledger.EventBuffer > 0 {
		sc.EventBuffer = c.Ledger.EventBuffer
	}
	sc.Genesis = gen
	return sc, nil
}
