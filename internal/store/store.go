package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/sethvargo/go-retry"
)

const (
	defaultMaxOpenConns   = 20
	defaultPingTimeout    = 3 * time.Second
	defaultConnectBackoff = 200 * time.Millisecond
)

// Config holds connection settings for Open.
type Config struct {
	// URI selects the engine and database. See ParseURI.
	URI string

	// Pool bounds. Ignored by SQLite, which always uses one connection.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// ConnectRetries is how many times the initial ping is retried with
	// exponential backoff starting at ConnectBackoff. Zero means one attempt.
	ConnectRetries int
	ConnectBackoff time.Duration

	// PingTimeout bounds each connectivity check.
	PingTimeout time.Duration
}

// Clock supplies the default read cursor.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used when ReadPosts gets no cursor.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store provides durable storage for posts.
//
// Store holds no mutable state besides the connection pool: every operation
// runs in its own transaction, so a Store is safe for concurrent use and
// several Stores may share one database.
type Store struct {
	db          *sql.DB
	dialect     Dialect
	clock       Clock
	logger      *slog.Logger
	pingTimeout time.Duration
}

// Open connects to the database named by cfg.URI and verifies the
// connection. It does not create the schema; call InitSchema for that.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	dialect, dsn, err := ParseURI(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	dialect.Configure(db, cfg)

	s := &Store{
		db:          db,
		dialect:     dialect,
		clock:       systemClock{},
		logger:      slog.Default(),
		pingTimeout: cfg.PingTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pingTimeout <= 0 {
		s.pingTimeout = defaultPingTimeout
	}

	if err := s.connect(ctx, cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	s.logger.Info("store opened", "driver", dialect.Name())
	return s, nil
}

// connect pings the database, retrying with exponential backoff.
func (s *Store) connect(ctx context.Context, cfg Config) error {
	base := cfg.ConnectBackoff
	if base <= 0 {
		base = defaultConnectBackoff
	}
	retries := cfg.ConnectRetries
	if retries < 0 {
		retries = 0
	}
	backoff := retry.WithMaxRetries(uint64(retries), retry.NewExponential(base))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := s.Ping(ctx); err != nil {
			s.logger.Warn("database not reachable", "driver", s.dialect.Name(), "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()
	if err := s.db.PingContext(pctx); err != nil {
		return wrapError(s.dialect, "ping", err)
	}
	return nil
}

// Dialect returns the engine dialect the store was opened with.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// builder returns a statement builder using the dialect's placeholders.
func (s *Store) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(s.dialect.Placeholder())
}

// withTx runs fn inside a transaction. The transaction is rolled back on
// every path that does not reach Commit.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapError(s.dialect, op, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return wrapError(s.dialect, op, err)
	}

	if err := tx.Commit(); err != nil {
		return wrapError(s.dialect, op, fmt.Errorf("commit: %w", err))
	}
	return nil
}
