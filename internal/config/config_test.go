package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/core/ledger"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
	"github.com/LeJamon/goListingd/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listingd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8899", config.Server.Address())
	assert.True(t, config.Server.Websocket)
	assert.Equal(t, 30*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, "pebble", config.Database.Backend)
	assert.Equal(t, uint64(sle.DefaultDepositPerByte), config.Ledger.DepositPerByte)
	assert.Equal(t, ledger.DefaultCacheSize, config.Ledger.CacheSize)
	assert.False(t, config.History.Enabled())
	assert.Empty(t, config.GetConfigPath())

	program, err := config.Ledger.Program()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultMarketplaceID, program)
}

func TestLoadConfig(t *testing.T) {
	wallet := types.TokenProgramID.String()
	path := writeConfig(t, `
data_dir = "/var/lib/listingd"

[server]
bind = "0.0.0.0"
port = 9000
websocket = false

[ledger]
deposit_per_byte = 10
standalone = true

[database]
backend = "bbolt"
path = "ledger"
cache_mb = 16
no_sync = true

[history]
driver = "sqlite"
dsn = "history.sqlite"

[log]
level = "debug,TXN=trace"
file = "listingd.log"

[[genesis.accounts]]
address = "`+wallet+`"
lamports = 500
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, config.GetConfigPath())
	assert.Equal(t, "0.0.0.0:9000", config.Server.Address())
	assert.False(t, config.Server.Websocket)
	assert.True(t, config.Ledger.Standalone)
	assert.Equal(t, "/var/lib/listingd/ledger", config.DatabasePath())
	opts := config.StorageOptions(nil)
	assert.Equal(t, int64(16<<20), opts.CacheBytes)
	assert.True(t, opts.NoSync)
	assert.Equal(t, "/var/lib/listingd/listingd.log", config.LoggingConfig().File)

	rc, err := config.RelationalConfig()
	require.NoError(t, err)
	assert.Equal(t, relationaldb.DriverSQLite, rc.Driver)
	assert.Equal(t, "/var/lib/listingd/history.sqlite", rc.Database)

	sc, err := config.ServiceConfig()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), sc.Engine.DepositPerByte)
	assert.True(t, sc.Engine.Standalone)
	require.Len(t, sc.Genesis.Accounts, 1)
	assert.Equal(t, types.TokenProgramID, sc.Genesis.Accounts[0].Address)
	assert.Equal(t, uint64(500), sc.Genesis.Accounts[0].Lamports)
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9000
`)
	t.Setenv("LISTINGD_SERVER_PORT", "9100")
	t.Setenv("LISTINGD_DATABASE_BACKEND", "memory")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, "memory", config.Database.Backend)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config string
		errMsg string
	}{
		{
			name:   "port out of range",
			config: "[server]\nport = 70000\n",
			errMsg: "server config validation failed",
		},
		{
			name:   "bad program id",
			config: "[ledger]\nprogram_id = \"not-base58-0OIl\"\n",
			errMsg: "invalid program_id",
		},
		{
			name:   "zero deposit price",
			config: "[ledger]\ndeposit_per_byte = 0\n",
			errMsg: "deposit_per_byte must be positive",
		},
		{
			name:   "unknown backend",
			config: "[database]\nbackend = \"rocksdb\"\n",
			errMsg: "unknown backend",
		},
		{
			name:   "disk backend without path",
			config: "[database]\nbackend = \"leveldb\"\npath = \"\"\n",
			errMsg: "path is required",
		},
		{
			name:   "negative cache",
			config: "[database]\ncache_mb = -1\n",
			errMsg: "cache_mb must not be negative",
		},
		{
			name:   "unknown history driver",
			config: "[history]\ndriver = \"mysql\"\n",
			errMsg: "unknown history driver",
		},
		{
			name:   "bad log level",
			config: "[log]\nlevel = \"loud\"\n",
			errMsg: "log config validation failed",
		},
		{
			name:   "bad genesis address",
			config: "[[genesis.accounts]]\naddress = \"nope\"\nlamports = 1\n",
			errMsg: "genesis account 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.config))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPostgresHistory(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, `
[history]
driver = "postgres"
dsn = "postgres://listingd@localhost/listingd?sslmode=disable"
max_open_conns = 8
max_idle_conns = 2
`))
	require.NoError(t, err)

	rc, err := config.RelationalConfig()
	require.NoError(t, err)
	assert.Equal(t, relationaldb.DriverPostgres, rc.Driver)
	assert.Equal(t, 8, rc.MaxOpenConns)
	assert.Equal(t, 2, rc.MaxIdleConns)
	assert.Equal(t, "postgres://listingd@localhost/listingd?sslmode=disable", rc.ConnectionString)
}
