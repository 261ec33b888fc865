// Package storetest holds deterministic collaborators shared by the store
// tests: a settable clock, sequential ids and a ready-made persistence mirror.
package storetest

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/kv"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/kv/kvtest"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/persist"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/shardqueue"
)

// Epoch is the default start time of a Clock.
var Epoch = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock { return &Clock{now: Epoch} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// IDs yields prefix-1, prefix-2, ...
type IDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func NewIDs(prefix string) *IDs { return &IDs{prefix: prefix} }

func (g *IDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Env is the storage side of a store under test. Store is shared across
// Mirror instances so a second store built on it simulates a restart.
type Env struct {
	Store  *kvtest.Faulty
	Exec   *shardqueue.ShardExecutor
	Mirror *persist.Mirror
}

// NewEnv builds an Env over a fresh memory store.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	return NewEnvOn(t, kv.NewMemory())
}

// NewEnvOn builds an Env over store with a fast-failing executor.
func NewEnvOn(t *testing.T, store kv.Store) *Env {
	t.Helper()
	faulty := kvtest.NewFaulty(store)
	exec := shardqueue.NewShardExecutor(shardqueue.Config{
		Shards:      2,
		QueueSize:   32,
		MaxAttempts: 2,
		BaseBackoff: time.Millisecond,
		MaxInterval: time.Millisecond,
	})
	t.Cleanup(exec.Stop)
	return &Env{
		Store:  faulty,
		Exec:   exec,
		Mirror: persist.NewMirror(faulty, exec, zerolog.Nop()),
	}
}

// Restart returns a new Env over the same underlying storage.
func (e *Env) Restart(t *testing.T) *Env {
	t.Helper()
	return NewEnvOn(t, e.Store.Store)
}
