package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goListingd/internal/config"
	"github.com/LeJamon/goListingd/internal/core/ledger"
	"github.com/LeJamon/goListingd/internal/core/ledger/service"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/metrics"
	"github.com/LeJamon/goListingd/internal/storage/database"
	"github.com/LeJamon/goListingd/internal/storage/database/backends"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb/sqlstore"
)

// stateDB is the database name of the ledger state.
const stateDB = "state"

// node is an opened ledger: logging, state storage and, when the service
// is requested, the history store, metrics and ledger service.
type node struct {
	cfg     *config.Config
	logs    *logging.LoggerMaker
	log     logging.Logger
	manager database.Manager
	state   *ledger.State
	history *sqlstore.Store
	metrics *metrics.Metrics
	service *service.Service
}

// openState opens logging and the ledger state only.
func openState(cfg *config.Config) (*node, error) {
	logs, err := logging.NewLoggerMaker(cfg.LoggingConfig())
	if err != nil {
		return nil, err
	}
	n := &node{cfg: cfg, logs: logs, log: logs.NewLogger(logging.SubsystemMain)}

	dbLog := logs.NewLogger(logging.SubsystemDB)
	n.manager, err = backends.Open(cfg.Database.Backend, cfg.DatabasePath(), cfg.StorageOptions(dbLog))
	if err != nil {
		n.Close()
		return nil, fmt.Errorf("open %s database: %w", cfg.Database.Backend, err)
	}
	db, err := n.manager.OpenDB(stateDB)
	if err != nil {
		n.Close()
		return nil, fmt.Errorf("open state database: %w", err)
	}
	n.state, err = ledger.NewState(db, cfg.Ledger.CacheSize, dbLog)
	if err != nil {
		n.Close()
		return nil, err
	}
	n.log.Infof("Opened %s state at %s (%d invocations applied)",
		cfg.Database.Backend, cfg.DatabasePath(), n.state.Applied())
	return n, nil
}

// openNode opens the state and starts the ledger service over it.
func openNode(ctx context.Context, cfg *config.Config) (*node, error) {
	n, err := openState(cfg)
	if err != nil {
		return nil, err
	}

	sc, err := cfg.ServiceConfig()
	if err != nil {
		n.Close()
		return nil, err
	}
	if cfg.History.Enabled() {
		rc, err := cfg.RelationalConfig()
		if err != nil {
			n.Close()
			return nil, err
		}
		n.history, err = sqlstore.Open(ctx, rc, n.logs.NewLogger(logging.SubsystemHistory))
		if err != nil {
			n.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		sc.History = n.history
	}
	if cfg.Server.Metrics {
		n.metrics = metrics.New()
		sc.Metrics = n.metrics
	}

	n.service, err = service.New(sc, n.state, n.logs.NewLogger(logging.SubsystemLedger))
	if err != nil {
		n.Close()
		return nil, err
	}
	if err := n.service.Start(ctx); err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

// Close releases everything in reverse order of opening.
func (n *node) Close() error {
	var errs []error
	if n.service != nil {
		n.service.Close()
	}
	if n.history != nil {
		errs = append(errs, n.history.Close())
	}
	if n.manager != nil {
		errs = append(errs, n.manager.Close())
	}
	if n.logs != nil {
		errs = append(errs, n.logs.Close())
	}
	return errors.Join(errs...)
}
