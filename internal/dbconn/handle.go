package dbconn

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

const (
	defaultConnectTimeout = 15 * time.Second
	defaultMaxConns       = 4
)

// Factory opens handles. Its zero value is usable.
type Factory struct {
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
	MaxConns       int
	Logger         *slog.Logger
}

// Open builds the engine-specific pool for conn and pings it under the
// connect timeout. The password must already be plaintext. Failures are
// reported as ErrConnection and never retried. The caller owns the handle
// and must Close it.
func (f *Factory) Open(ctx context.Context, conn Connection, d *Dialect) (*Handle, error) {
	if d == nil {
		var err error
		if d, err = Resolve(conn.ConnectionType); err != nil {
			return nil, err
		}
	}

	db, err := d.open(conn)
	if err != nil {
		return nil, wrap(ErrConnection, err)
	}
	maxConns := f.MaxConns
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	timeout := f.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, wrap(ErrConnection, err)
	}

	h := NewHandle(db, d, f.QueryTimeout, f.Logger)
	h.database = conn.DatabaseName
	h.logger.Debug("handle opened",
		"dialect", d.ID,
		"server", conn.Server,
		"database", conn.DatabaseName,
		"duration", time.Since(start))
	return h, nil
}

// Handle is the connection scope of one logical operation. Every catalog,
// count and data query of that operation runs through it.
type Handle struct {
	db           *sql.DB
	dialect      *Dialect
	database     string
	queryTimeout time.Duration
	maxConns     int
	logger       *slog.Logger
}

// NewHandle wraps an already opened pool. queryTimeout <= 0 disables the
// per-query deadline.
func NewHandle(db *sql.DB, d *Dialect, queryTimeout time.Duration, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxConns := db.Stats().MaxOpenConnections
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	return &Handle{
		db:           db,
		dialect:      d,
		queryTimeout: queryTimeout,
		maxConns:     maxConns,
		logger:       logger,
	}
}

// Dialect returns the strategy the handle was opened with.
func (h *Handle) Dialect() *Dialect { return h.dialect }

// Close releases the underlying pool.
func (h *Handle) Close() error {
	return h.db.Close()
}
