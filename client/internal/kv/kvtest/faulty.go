package kvtest

import (
	"context"
	"errors"
	"sync"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/kv"
)

// ErrInjected is returned by a Faulty store while a fault is armed.
var ErrInjected = errors.New("kvtest: injected storage fault")

// Faulty wraps a Store and fails reads or writes on demand.
type Faulty struct {
	kv.Store

	mu         sync.Mutex
	failReads  bool
	failWrites bool
	writes     int
}

// NewFaulty wraps inner (a fresh memory store when nil).
func NewFaulty(inner kv.Store) *Faulty {
	if inner == nil {
		inner = kv.NewMemory()
	}
	return &Faulty{Store: inner}
}

func (f *Faulty) FailReads(on bool)  { f.mu.Lock(); f.failReads = on; f.mu.Unlock() }
func (f *Faulty) FailWrites(on bool) { f.mu.Lock(); f.failWrites = on; f.mu.Unlock() }

// Writes counts successful Set and Remove calls.
func (f *Faulty) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *Faulty) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	fail := f.failReads
	f.mu.Unlock()
	if fail {
		return "", false, ErrInjected
	}
	return f.Store.Get(ctx, key)
}

func (f *Faulty) Set(ctx context.Context, key, value string) error {
	if err := f.writeGate(); err != nil {
		return err
	}
	return f.Store.Set(ctx, key, value)
}

func (f *Faulty) Remove(ctx context.Context, key string) error {
	if err := f.writeGate(); err != nil {
		return err
	}
	return f.Store.Remove(ctx, key)
}

func (f *Faulty) writeGate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return ErrInjected
	}
	f.writes++
	return nil
}
