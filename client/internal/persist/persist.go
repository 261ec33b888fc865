// Package persist mirrors store collections to a kv.Store as JSON blobs.
//
// Reads are forgiving: a missing, unreadable or corrupt blob loads as empty
// and is only logged. Writes are strict: every failure is returned wrapped in
// ErrPersistence so the caller can leave its in-memory state untouched.
package persist

import (
	"context"
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/errors"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/kv"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/shardqueue"
)

// Storage keys, one blob each.
const (
	KeyUser           = "@maison/user"
	KeyConversations  = "@maison/conversations"
	KeyMessages       = "@maison/messages"
	KeySupportTickets = "@maison/support_tickets"
)

var (
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maison",
		Subsystem: "persist",
		Name:      "writes_total",
		Help:      "Blob writes and removals that reached storage.",
	}, []string{"key"})
	writeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maison",
		Subsystem: "persist",
		Name:      "write_failures_total",
		Help:      "Blob writes that failed after retries.",
	}, []string{"key"})
	loadFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maison",
		Subsystem: "persist",
		Name:      "load_failures_total",
		Help:      "Blobs that could not be read or decoded and loaded as empty.",
	}, []string{"key"})
)

// Executor serialises writes per storage key.
type Executor interface {
	SubmitWait(ctx context.Context, key string, job shardqueue.Job) error
}

// Mirror reads and writes blobs on one kv.Store through one Executor.
type Mirror struct {
	store kv.Store
	exec  Executor
	log   zerolog.Logger
}

func NewMirror(store kv.Store, exec Executor, log zerolog.Logger) *Mirror {
	return &Mirror{store: store, exec: exec, log: log}
}

// Load decodes the blob at key into out. It reports whether a value was
// decoded; absence and every failure report false and leave out untouched.
func (m *Mirror) Load(ctx context.Context, key string, out any) bool {
	raw, ok, err := m.store.Get(ctx, key)
	if err != nil {
		loadFailuresTotal.WithLabelValues(key).Inc()
		m.log.Warn().Err(err).Str("key", key).Msg("read failed, starting empty")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		loadFailuresTotal.WithLabelValues(key).Inc()
		m.log.Warn().Err(err).Str("key", key).Msg("corrupt blob, starting empty")
		return false
	}
	return true
}

// Save encodes v and writes it at key, waiting for the write to land.
func (m *Mirror) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return m.failed(key, errors.Permanent(err))
	}
	return m.submit(ctx, key, func(ctx context.Context) error {
		return m.store.Set(ctx, key, string(data))
	})
}

// Remove deletes the blob at key. Removing an absent blob succeeds.
func (m *Mirror) Remove(ctx context.Context, key string) error {
	return m.submit(ctx, key, func(ctx context.Context) error {
		return m.store.Remove(ctx, key)
	})
}

// Flush waits until every write already queued for key has completed.
func (m *Mirror) Flush(ctx context.Context, key string) error {
	return m.exec.SubmitWait(ctx, key, shardqueue.JobFunc(func(context.Context) error { return nil }))
}

func (m *Mirror) submit(ctx context.Context, key string, fn func(context.Context) error) error {
	if err := m.exec.SubmitWait(ctx, key, shardqueue.JobFunc(fn)); err != nil {
		return m.failed(key, err)
	}
	writesTotal.WithLabelValues(key).Inc()
	return nil
}

func (m *Mirror) failed(key string, err error) error {
	writeFailuresTotal.WithLabelValues(key).Inc()
	m.log.Error().Err(err).Str("key", key).Msg("write failed")
	return errors.Wrap(errors.ErrPersistence, err)
}
