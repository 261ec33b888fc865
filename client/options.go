package client

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file avoids cluttering
// client.go and makes it easy to discover all available knobs at a glance.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/kv"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/shardqueue"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/internal/config"
)

// Option configures a Client during construction in New.
//
// Options are applied before any store is built. Options must be
// deterministic and side-effect free.
type Option func(*Client) error

// WithConfig replaces the environment-derived configuration.
func WithConfig(cfg *config.Config) Option {
	return func(c *Client) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		if err := cfg.ResolveDefaults(); err != nil {
			return err
		}
		c.cfg = cfg
		return nil
	}
}

// WithHTTPClient replaces the http.Client used for auth calls. Apply it
// before WithHTTPTimeout or WithDebugLogging, which modify the client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.http = hc
		return nil
	}
}

// WithHTTPTimeout sets the underlying http.Client Timeout used for auth calls.
//
// Prefer per-request context deadlines where possible; this timeout is a
// coarse safety net. The value must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithDebugLogging wraps the client's transport so each auth request and
// response is logged when enabled is true.
//
// Do not enable this option in production environments: dumps include
// credentials and tokens.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			if _, already := c.http.Transport.(*debugTransport); already {
				return nil
			}
			c.http.Transport = &debugTransport{base: c.http.Transport, log: &c.log}
		}
		return nil
	}
}

// WithLogger sets the logger handed to every store.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// WithStore uses store instead of opening the configured backend. The
// caller keeps ownership: Close does not close it.
func WithStore(store kv.Store) Option {
	return func(c *Client) error {
		if store == nil {
			return fmt.Errorf("store cannot be nil")
		}
		c.store = store
		return nil
	}
}

// WithClock overrides the timestamp source.
func WithClock(clock Clock) Option {
	return func(c *Client) error {
		c.clock = clock
		return nil
	}
}

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(ids IDGenerator) Option {
	return func(c *Client) error {
		c.ids = ids
		return nil
	}
}

// WithAutoReplyDelay overrides the delay before a new ticket receives its
// automated acknowledgement. Zero fires it as soon as possible.
func WithAutoReplyDelay(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("auto reply delay must be >= 0")
		}
		c.ackDelay = &d
		return nil
	}
}

// WithExecutorConfig replaces the SQ_* write-queue settings.
func WithExecutorConfig(cfg shardqueue.Config) Option {
	return func(c *Client) error {
		c.execCfg = &cfg
		return nil
	}
}
