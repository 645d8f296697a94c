package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAcquireTimeout is returned when no pooled connection became free within
// the configured acquire timeout.
var ErrAcquireTimeout = errors.New("database: connection acquire timeout")

// BoundedPool is a DBTX over a pgxpool.Pool that bounds the time spent
// waiting for a connection. Statements themselves run under the caller's
// context, so a burst of requests queues for at most AcquireTimeout and then
// fails instead of piling up.
type BoundedPool struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

// NewBoundedPool wraps pool. A zero timeout waits as long as the caller's context allows.
func NewBoundedPool(pool *pgxpool.Pool, acquireTimeout time.Duration) *BoundedPool {
	return &BoundedPool{pool: pool, acquireTimeout: acquireTimeout}
}

// Pool returns the underlying pgxpool.Pool.
func (p *BoundedPool) Pool() *pgxpool.Pool {
	return p.pool
}

// Ping verifies a connection can be acquired and used.
func (p *BoundedPool) Ping(ctx context.Context) error {
	conn, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.Ping(ctx)
}

// Exec acquires a connection, executes sql and releases the connection.
func (p *BoundedPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer conn.Release()
	return conn.Exec(ctx, sql, args...)
}

// Query acquires a connection and returns rows that release it on Close.
func (p *BoundedPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		conn.Release()
		return nil, err
	}
	return &releasingRows{Rows: rows, conn: conn}, nil
}

// QueryRow acquires a connection and returns a row that releases it on Scan.
func (p *BoundedPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	conn, err := p.acquire(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return &releasingRow{row: conn.QueryRow(ctx, sql, args...), conn: conn}
}

func (p *BoundedPool) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	if p.acquireTimeout <= 0 {
		return p.pool.Acquire(ctx)
	}

	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.pool.Acquire(acquireCtx)
	if err != nil {
		// Only report a pool timeout when the caller's own context is still live.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", ErrAcquireTimeout, p.acquireTimeout)
		}
		return nil, err
	}
	return conn, nil
}

// releaser is the part of *pgxpool.Conn the wrappers need.
type releaser interface {
	Release()
}

type releasingRows struct {
	pgx.Rows
	conn releaser
	once sync.Once
}

func (r *releasingRows) Close() {
	r.Rows.Close()
	r.once.Do(r.conn.Release)
}

type releasingRow struct {
	row  pgx.Row
	conn releaser
}

func (r *releasingRow) Scan(dest ...any) error {
	defer r.conn.Release()
	return r.row.Scan(dest...)
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
