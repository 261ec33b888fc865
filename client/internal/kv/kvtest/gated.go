package kvtest

import (
	"context"
	"sync"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/kv"
)

// Gated wraps a Store whose next Set blocks once armed. The write lands
// when Release is called, even if the caller's context was cancelled in
// between, like a backend that has already accepted the request.
type Gated struct {
	kv.Store

	mu      sync.Mutex
	armed   bool
	started chan struct{}
	release chan struct{}
}

// NewGated wraps inner (a fresh memory store when nil).
func NewGated(inner kv.Store) *Gated {
	if inner == nil {
		inner = kv.NewMemory()
	}
	return &Gated{Store: inner}
}

// Arm makes the next Set block. The returned channel closes when that Set
// has started.
func (g *Gated) Arm() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = true
	g.started = make(chan struct{})
	g.release = make(chan struct{})
	return g.started
}

// Release lets the blocked Set complete.
func (g *Gated) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.release)
}

func (g *Gated) Set(ctx context.Context, key, value string) error {
	g.mu.Lock()
	armed, started, release := g.armed, g.started, g.release
	g.armed = false
	g.mu.Unlock()
	if armed {
		close(started)
		<-release
		ctx = context.WithoutCancel(ctx)
	}
	return g.Store.Set(ctx, key, value)
}
