// Package service runs the marketplace ledger: it submits signed envelopes
// to the engine, answers state queries, records history and publishes an
// event per applied invocation.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/LeJamon/goListingd/internal/core/ledger"
	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
	"github.com/LeJamon/goListingd/internal/core/ledger/genesis"
	"github.com/LeJamon/goListingd/internal/core/token"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/metrics"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
	"github.com/LeJamon/goListingd/internal/types"
)

// Common errors
var (
	ErrNotStandalone   = errors.New("operation only valid in standalone mode")
	ErrHistoryDisabled = errors.New("invocation history is not configured")
	ErrNotFound        = errors.New("entry not found")
	ErrClosed          = errors.New("service closed")
)

// DefaultDedupWindow is the number of recent envelope hashes remembered.
const DefaultDedupWindow = 65536

// Config holds configuration for the ledger service
type Config struct {
	Engine tx.EngineConfig

	// DedupWindow bounds how many applied envelope hashes are remembered
	// for duplicate rejection.
	DedupWindow int

	// EventBuffer is the per-subscriber channel capacity.
	EventBuffer int

	// Genesis is written when the state is empty at Start.
	Genesis genesis.Config

	// History records applied invocations (optional)
	History relationaldb.HistoryRepository

	// Metrics is updated on every submission (optional)
	Metrics *metrics.Metrics

	// Transfer overrides the asset service (optional)
	Transfer tx.AssetTransfer
}

// DefaultConfig returns the default service configuration
func DefaultConfig() Config {
	return Config{
		Engine:      tx.DefaultEngineConfig(),
		DedupWindow: DefaultDedupWindow,
		EventBuffer: DefaultEventBuffer,
		Genesis:     genesis.DefaultConfig(),
	}
}

// Service manages the marketplace ledger
type Service struct {
	config  Config
	state   *ledger.State
	engine  *tx.Engine
	history relationaldb.HistoryRepository
	metrics *metrics.Metrics
	events  *EventPublisher
	log     logging.Logger

	dedupMu sync.Mutex
	dedup   *lru.Cache[[32]byte, struct{}]

	active  atomic.Int64
	started time.Time
	closed  atomic.Bool
}

// New creates a service over state.
func New(cfg Config, state *ledger.State, log logging.Logger) (*Service, error) {
	if log == nil {
		log = logging.Disabled
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = DefaultDedupWindow
	}
	dedup, err := lru.New[[32]byte, struct{}](cfg.DedupWindow)
	if err != nil {
		return nil, err
	}
	if cfg.Transfer == nil {
		cfg.Transfer = token.NewService(log)
	}
	engine := tx.NewEngine(state, cfg.Engine, cfg.Transfer, log)
	cfg.Engine = engine.Config()

	return &Service{
		config:  cfg,
		state:   state,
		engine:  engine,
		history: cfg.History,
		metrics: cfg.Metrics,
		events:  NewEventPublisher(cfg.EventBuffer, cfg.Metrics, log),
		log:     log,
		dedup:   dedup,
	}, nil
}

// Start writes the genesis state into an empty ledger and counts the active
// listings.
func (s *Service) Start(ctx context.Context) error {
	empty := true
	if err := s.state.ForEach(func([32]byte, []byte) bool {
		empty = false
		return false
	}); err != nil {
		return err
	}
	if empty && s.state.Applied() == 0 {
		changes, err := genesis.Create(s.config.Genesis)
		if err != nil {
			return fmt.Errorf("failed to create genesis state: %w", err)
		}
		if err := s.state.Restore(changes); err != nil {
			return fmt.Errorf("failed to write genesis state: %w", err)
		}
		s.log.Infof("Wrote genesis state with %d funded wallets", len(changes))
	}

	var active int64
	err := s.state.ForEach(func(key [32]byte, data []byte) bool {
		if sle.EntryType(data) != entry.TypeListing {
			return true
		}
		if env, err := sle.DecodeEnvelope(data); err == nil {
			if l, err := sle.ParseListing(env.Data); err == nil && l.IsActive() {
				active++
			}
		}
		return ctx.Err() == nil
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.active.Store(active)
	s.metrics.SetActiveListings(int(active))
	s.started = time.Now()

	s.log.Infof("Ledger service started: program %s, %d invocations applied, %d active listings",
		s.config.Engine.ProgramID, s.state.Applied(), active)
	return nil
}

// Close stops event delivery. The state and history are owned by the caller.
func (s *Service) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.events.Close()
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.config
}

// ProgramID returns the marketplace program every listing derives under.
func (s *Service) ProgramID() types.Address {
	return s.config.Engine.ProgramID
}

// IsStandalone indicates whether the faucet is enabled
func (s *Service) IsStandalone() bool {
	return s.config.Engine.Standalone
}

// Events returns the event publisher.
func (s *Service) Events() *EventPublisher {
	return s.events
}

// ServerInfo describes the running service.
type ServerInfo struct {
	ProgramID      types.Address     `json:"program_id"`
	Standalone     bool              `json:"standalone"`
	DepositPerByte uint64            `json:"deposit_per_byte"`
	Applied        uint64            `json:"applied"`
	ActiveListings int64             `json:"active_listings"`
	Uptime         uint64            `json:"uptime"`
	Cache          ledger.CacheStats `json:"cache"`
	History        bool              `json:"history"`
	HistoryCount   int64             `json:"history_count,omitempty"`
	Subscribers    int               `json:"subscribers"`
}

// ServerInfo reports service state.
func (s *Service) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	info := &ServerInfo{
		ProgramID:      s.config.Engine.ProgramID,
		Standalone:     s.config.Engine.Standalone,
		DepositPerByte: s.config.Engine.DepositPerByte,
		Applied:        s.state.Applied(),
		ActiveListings: s.active.Load(),
		Cache:          s.state.Stats(),
		History:        s.history != nil,
		Subscribers:    s.events.Count(),
	}
	if !s.started.IsZero() {
		info.Uptime = uint64(time.Since(s.started).Seconds())
	}
	if s.history != nil {
		n, err := s.history.Count(ctx)
		if err != nil {
			return nil, err
		}
		info.HistoryCount = n
	}
	return info, nil
}
