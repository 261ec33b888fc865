// Package kv is the durable key/value primitive under the stores: whole text
// blobs addressed by string keys, read and written atomically.
package kv

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/localstate"
)

// Store is implemented by every backend.
//
// Get reports ok=false for an absent key. Remove of an absent key succeeds.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Driver names a backend.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverSQLite Driver = "sqlite"
	DriverPebble Driver = "pebble"
	DriverRedis  Driver = "redis"
	DriverMongo  Driver = "mongo"
)

// Options selects and configures a backend for Open.
type Options struct {
	Driver Driver
	// Path is the SQLite file or Pebble directory. Empty means the default
	// location under the local data dir.
	Path          string
	RedisURL      string
	MongoURI      string
	MongoDatabase string
}

// Open constructs the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, "":
		path := opts.Path
		if path == "" {
			p, err := localstate.DBPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return OpenSQLite(path)
	case DriverPebble:
		dir := opts.Path
		if dir == "" {
			d, err := localstate.DataDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(d, "pebble")
		}
		return OpenPebble(dir)
	case DriverRedis:
		return OpenRedis(ctx, opts.RedisURL)
	case DriverMongo:
		return OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("kv: unsupported driver %q", opts.Driver)
	}
}
