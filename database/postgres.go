package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"clinical-note-cleaner/errors"
)

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// Connection pool settings
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
	ConnectWait time.Duration

	// ConnectRetry controls how often the initial ping is retried
	ConnectRetry *errors.RetryConfig
}

// DefaultPostgresConfig returns sensible defaults
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:        "localhost",
		Port:        5432,
		Database:    "postgres",
		User:        "postgres",
		SSLMode:     "prefer",
		MaxConns:    10,
		MinConns:    2,
		MaxConnLife: time.Hour,
		MaxConnIdle: 30 * time.Minute,
		ConnectWait: 5 * time.Second,
	}
}

// BuildConnectionString builds a libpq-style connection string.
// An empty password is left out so the next keyword is not read as its value.
func (c *PostgresConfig) BuildConnectionString() string {
	if c.Password == "" {
		return fmt.Sprintf("host=%s port=%d dbname=%s user=%s sslmode=%s",
			c.Host, c.Port, c.Database, c.User, c.SSLMode)
	}
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode,
	)
}

// PostgresService owns the connection pool used by the dictionary repository
type PostgresService struct {
	pool *pgxpool.Pool
	db   *sql.DB
	cfg  *PostgresConfig
}

// NewPostgresService connects to PostgreSQL and verifies the connection
func NewPostgresService(ctx context.Context, cfg *PostgresConfig) (*PostgresService, error) {
	if cfg == nil {
		cfg = DefaultPostgresConfig()
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.BuildConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLife > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLife
	}
	if cfg.MaxConnIdle > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdle
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	wait := cfg.ConnectWait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	retry := cfg.ConnectRetry
	if retry == nil {
		retry = errors.DatabaseRetryConfig()
	}
	err = errors.NewRetryer(retry).Execute(ctx, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			return connectError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresService{
		pool: pool,
		db:   stdlib.OpenDBFromPool(pool),
		cfg:  cfg,
	}, nil
}

// connectError classifies a failed ping. Timeouts and unreachable servers are
// retried; an error reported by the server itself (bad credentials, unknown
// database) is not.
func connectError(err error) *errors.AppError {
	var pgErr *pgconn.PgError
	switch {
	case stderrors.As(err, &pgErr):
		appErr := errors.NewDatabaseError(errors.ErrCodeDatabaseConnection, "database rejected the connection", err)
		appErr.Retryable = false
		return appErr
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewTimeoutError(errors.ErrCodeDatabaseConnection, "timed out connecting to database", err)
	default:
		return errors.NewNetworkError(errors.ErrCodeDatabaseConnection, "failed to connect to database", err)
	}
}

// Close closes the connection pool
func (s *PostgresService) Close() {
	if s.db != nil {
		s.db.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// Pool returns the underlying connection pool
func (s *PostgresService) Pool() *pgxpool.Pool {
	return s.pool
}

// DB returns a database/sql handle sharing the pool
func (s *PostgresService) DB() *sql.DB {
	return s.db
}

// Begin starts a new transaction
func (s *PostgresService) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.pool.Begin(ctx)
}

// Ping checks database connectivity
func (s *PostgresService) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Health checks that the pool can serve a query
func (s *PostgresService) Health(ctx context.Context) error {
	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := s.pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return nil
}
