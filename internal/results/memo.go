// Package results memoises solve results in a shared store so identical
// frames from any replica skip detection.
package results

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/microdog/wechat-automated-jump-game/internal/cache/keys"
	"github.com/microdog/wechat-automated-jump-game/internal/solver"
)

// Store is the subset of redisstore.Client the memo needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// Backend computes results on a miss.
type Backend interface {
	SolveBytes(ctx context.Context, frame []byte) (solver.Result, error)
	Fingerprint() uint64
	Backend() string
}

type Memo struct {
	next      Backend
	store     Store
	ttl       time.Duration
	opTimeout time.Duration
	log       *slog.Logger
}

func New(next Backend, store Store, ttl, opTimeout time.Duration, log *slog.Logger) *Memo {
	if log == nil {
		log = slog.Default()
	}
	if opTimeout <= 0 {
		opTimeout = 100 * time.Millisecond
	}
	return &Memo{next: next, store: store, ttl: ttl, opTimeout: opTimeout, log: log}
}

// SolveBytes returns the stored result for frame or solves and stores it.
// Errors are never stored; store failures only cost a recomputation.
func (m *Memo) SolveBytes(ctx context.Context, frame []byte) (solver.Result, error) {
	if len(frame) == 0 {
		return m.next.SolveBytes(ctx, frame)
	}
	key := keys.ResultKey(m.next.Backend(), m.next.Fingerprint(), frame)

	if res, ok := m.lookup(ctx, key); ok {
		return res, nil
	}

	res, err := m.next.SolveBytes(ctx, frame)
	if err != nil {
		return res, err
	}
	m.save(ctx, key, res)
	return res, nil
}

func (m *Memo) lookup(ctx context.Context, key string) (solver.Result, bool) {
	opCtx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	b, ok, err := m.store.Get(opCtx, key)
	if err != nil {
		m.log.WarnContext(ctx, "result store get failed", "err", err)
		return solver.Result{}, false
	}
	if !ok {
		return solver.Result{}, false
	}
	var res solver.Result
	if err := json.Unmarshal(b, &res); err != nil {
		m.log.WarnContext(ctx, "result store entry unreadable", "key", key, "err", err)
		return solver.Result{}, false
	}
	m.log.DebugContext(ctx, "result store hit", "key", key)
	return res, true
}

func (m *Memo) save(ctx context.Context, key string, res solver.Result) {
	b, err := json.Marshal(res)
	if err != nil {
		m.log.WarnContext(ctx, "result encode failed", "err", err)
		return
	}
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opTimeout)
	defer cancel()
	if err := m.store.Set(opCtx, key, b, m.ttl); err != nil {
		m.log.WarnContext(ctx, "result store set failed", "err", err)
	}
}
