// Package sqlstore implements relationaldb.HistoryRepository on database/sql
// for PostgreSQL and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
	"github.com/LeJamon/goListingd/internal/types"
)

// Store is a SQL-backed history repository.
type Store struct {
	db      *sql.DB
	dialect dialect
	timeout time.Duration
	log     logging.Logger
}

var _ relationaldb.HistoryRepository = (*Store)(nil)

// Open connects to the database described by config and creates the schema.
func Open(ctx context.Context, config *relationaldb.Config, log logging.Logger) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, relationaldb.Wrap(relationaldb.KindConfig, "open", err)
	}
	d, err := dialectFor(config.Driver)
	if err != nil {
		return nil, relationaldb.Wrap(relationaldb.KindConfig, "open", err)
	}
	connStr, err := config.BuildConnectionString()
	if err != nil {
		return nil, relationaldb.Wrap(relationaldb.KindConfig, "open", err)
	}
	if log == nil {
		log = logging.Disabled
	}

	db, err := sql.Open(d.driver, connStr)
	if err != nil {
		return nil, relationaldb.Wrap(relationaldb.KindConnection, "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	s := &Store{db: db, dialect: d, timeout: config.DefaultTimeout, log: log}

	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, relationaldb.Wrap(relationaldb.KindSchema, "schema", err)
	}
	log.Infof("History store open (%s)", d.driver)
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	for _, query := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// Ping tests the database connection
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return relationaldb.ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return relationaldb.Wrap(relationaldb.KindConnection, "ping", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return relationaldb.Wrap(relationaldb.KindConnection, "close", err)
}

// Record inserts inv and sets its ID. Recording the same hash twice fails
// with ErrDuplicateEntry.
func (s *Store) Record(ctx context.Context, inv *relationaldb.Invocation) error {
	if s.db == nil {
		return relationaldb.ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if inv.Time.IsZero() {
		inv.Time = time.Now()
	}
	listing := ""
	if !inv.Listing.IsZero() {
		listing = inv.Listing.Hex()
	}

	query := s.dialect.rebind(`INSERT INTO invocations
		(hash, type, result, signer, listing, amount, cost, metadata, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (hash) DO NOTHING
		RETURNING id`)

	err := s.db.QueryRowContext(ctx, query,
		inv.Hash.String(), inv.Type, inv.Result, inv.Signer.Hex(), listing,
		strconv.FormatUint(inv.Amount, 10), strconv.FormatUint(inv.Cost, 10),
		inv.Metadata, inv.Time.UnixNano(),
	).Scan(&inv.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return relationaldb.Wrap(relationaldb.KindData, "record "+inv.Hash.String(), relationaldb.ErrDuplicateEntry)
	}
	if err != nil {
		return relationaldb.Wrap(relationaldb.KindQuery, "record", err)
	}
	return nil
}

const selectColumns = `SELECT id, hash, type, result, signer, listing, amount, cost, metadata, recorded_at FROM invocations`

// Get returns the invocation with the given hash.
func (s *Store) Get(ctx context.Context, hash relationaldb.Hash) (*relationaldb.Invocation, error) {
	if s.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, s.dialect.rebind(selectColumns+` WHERE hash = ?`), hash.String())
	inv, err := scanInvocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, relationaldb.Wrap(relationaldb.KindData, "get "+hash.String(), relationaldb.ErrInvocationNotFound)
	}
	if err != nil {
		return nil, relationaldb.Wrap(relationaldb.KindQuery, "get", err)
	}
	return inv, nil
}

// ByListing returns the history of one listing, newest first.
func (s *Store) ByListing(ctx context.Context, listing types.Address, opts relationaldb.PageOptions) ([]relationaldb.Invocation, error) {
	return s.page(ctx, "listing", listing.Hex(), opts)
}

// BySigner returns the invocations signed by signer, newest first.
func (s *Store) BySigner(ctx context.Context, signer types.Address, opts relationaldb.PageOptions) ([]relationaldb.Invocation, error) {
	return s.page(ctx, "signer", signer.Hex(), opts)
}

// column is one of a fixed set of names, never user input.
func (s *Store) page(ctx context.Context, column, value string, opts relationaldb.PageOptions) ([]relationaldb.Invocation, error) {
	if s.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := selectColumns + ` WHERE ` + column + ` = ?`
	args := []any{value}
	if opts.Before > 0 {
		query += ` AND id < ?`
		args = append(args, opts.Before)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, relationaldb.Wrap(relationaldb.KindQuery, "page by "+column, err)
	}
	defer rows.Close()

	out := make([]relationaldb.Invocation, 0, opts.Limit)
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, relationaldb.Wrap(relationaldb.KindData, "page by "+column, err)
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.Wrap(relationaldb.KindQuery, "page by "+column, err)
	}
	return out, nil
}

// Count returns the number of recorded invocations.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, relationaldb.ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invocations`).Scan(&n); err != nil {
		return 0, relationaldb.Wrap(relationaldb.KindQuery, "count", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvocation(row scanner) (*relationaldb.Invocation, error) {
	var (
		inv                   relationaldb.Invocation
		hash, signer, listing string
		amount, cost          string
		recordedAt            int64
	)
	if err := row.Scan(&inv.ID, &hash, &inv.Type, &inv.Result, &signer, &listing,
		&amount, &cost, &inv.Metadata, &recordedAt); err != nil {
		return nil, err
	}

	var err error
	if inv.Hash, err = relationaldb.ParseHash(hash); err != nil {
		return nil, err
	}
	if inv.Signer, err = types.AddressFromHex(signer); err != nil {
		return nil, err
	}
	if listing != "" {
		if inv.Listing, err = types.AddressFromHex(listing); err != nil {
			return nil, err
		}
	}
	if inv.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
		return nil, err
	}
	if inv.Cost, err = strconv.ParseUint(cost, 10, 64); err != nil {
		return nil, err
	}
	inv.Time = time.Unix(0, recordedAt)
	return &inv, nil
}
