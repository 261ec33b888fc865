package kv

import (
	"context"
	stderrors "errors"

	"github.com/cockroachdb/pebble"
)

// Pebble stores keys in an embedded LSM directory. Writes are synced before
// they return.
type Pebble struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a Pebble database in dir.
func OpenPebble(dir string) (*Pebble, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Pebble{db: db}, nil
}

func (p *Pebble) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, closer, err := p.db.Get([]byte(key))
	if stderrors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	// v is only valid until closer is closed
	out := string(v)
	_ = closer.Close()
	return out, true, nil
}

func (p *Pebble) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.db.Set([]byte(key), []byte(value), pebble.Sync)
}

func (p *Pebble) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.db.Delete([]byte(key), pebble.Sync)
}

func (p *Pebble) Close() error { return p.db.Close() }
