// Package runlock provides a database-backed lease so that at most one worker
// processes a given extraction run at a time. The lease lives in the
// run_locks table and is renewed in the background until released; a crashed
// holder loses the lease once its TTL expires.
package runlock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/HexaField/causalmap/pkg/logger"
)

var ErrBusy = errors.New("run is locked by another worker")

const (
	defaultTTL   = 2 * time.Minute
	renewTimeout = 15 * time.Second
)

type Client struct {
	conn *pgxpool.Pool
	ttl  time.Duration
}

func New(conn *pgxpool.Pool) *Client {
	return &Client{conn: conn, ttl: defaultTTL}
}

// WithLock runs fn while holding the lease for key. It returns ErrBusy
// without calling fn when another worker holds the lease. The context passed
// to fn is cancelled if the lease is lost mid-flight.
func (c *Client) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lease, err := c.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer lease.release()
	return fn(lease.ctx)
}

type lease struct {
	key    string
	token  string
	client *Client

	ctx    context.Context
	cancel context.CancelCauseFunc

	stopOnce sync.Once
	stopCh   chan struct{}
}

func (c *Client) acquire(ctx context.Context, key string) (*lease, error) {
	if key == "" {
		return nil, errors.New("lock key is empty")
	}

	token, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	var returnedKey string
	err = c.conn.QueryRow(ctx, tryAcquireSQL, key, token, c.ttl.Milliseconds()).Scan(&returnedKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusy
		}
		return nil, err
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &lease{
		key:    key,
		token:  token,
		client: c,
		ctx:    leaseCtx,
		cancel: cancel,
		stopCh: make(chan struct{}),
	}
	go l.renewLoop()

	return l, nil
}

func (l *lease) release() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})

	releaseCtx, cancel := context.WithTimeout(context.Background(), renewTimeout)
	defer cancel()
	if _, err := l.client.conn.Exec(releaseCtx, releaseSQL, l.key, l.token); err != nil {
		logger.Warn("[RunLock] Failed to release lease", "key", l.key, "err", err)
	}
}

func (l *lease) renewLoop() {
	t := time.NewTicker(l.client.ttl / 2)
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.ctx.Done():
			return
		case <-t.C:
			if err := l.renewOnce(); err != nil {
				logger.Warn("[RunLock] Lease lost", "key", l.key, "err", err)
				l.cancel(err)
				return
			}
		}
	}
}

func (l *lease) renewOnce() error {
	renewCtx, cancel := context.WithTimeout(l.ctx, renewTimeout)
	defer cancel()

	var returnedKey string
	err := l.client.conn.QueryRow(renewCtx, renewSQL, l.key, l.token, l.client.ttl.Milliseconds()).Scan(&returnedKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.New("lease taken over by another holder")
	}
	return err
}

const tryAcquireSQL = `
INSERT INTO run_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by  = EXCLUDED.locked_by,
    expires_at = EXCLUDED.expires_at
WHERE run_locks.expires_at < now()
   OR run_locks.locked_by = EXCLUDED.locked_by
RETURNING lock_key;
`

const renewSQL = `
UPDATE run_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE lock_key = $1 AND locked_by = $2
RETURNING lock_key;
`

const releaseSQL = `
DELETE FROM run_locks
WHERE lock_key = $1 AND locked_by = $2;
`
