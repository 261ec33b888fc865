// Package client is the local state layer of the Maison app: the session,
// conversation and support-ticket stores, mirrored to device storage and
// wired to the remote auth endpoint.
package client

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/chat"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/events"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/kv"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/persist"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/scheduler"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/session"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/shardqueue"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/support"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/types"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/internal/config"
)

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

type Client struct {
	cfg      *config.Config
	http     *http.Client
	log      zerolog.Logger
	store    kv.Store
	ownStore bool // store opened by New and closed by Close
	exec     executor
	execCfg  *shardqueue.Config
	clock    types.Clock
	ids      types.IDGenerator
	ackDelay *time.Duration

	bus      *events.Bus
	sched    *scheduler.Scheduler
	mirror   *persist.Mirror
	sessions *session.Store
	chats    *chat.Store
	tickets  *support.Store

	closedOnce uint32 // ensures Close is idempotent
}

// New wires the stores and loads their persisted state. Configuration comes
// from MAISON_* environment variables unless WithConfig is given.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{
		http: &http.Client{},
		log:  zerolog.Nop(),
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.cfg == nil {
		cfg, err := config.New()
		if err != nil {
			return nil, err
		}
		c.cfg = cfg
	}
	if c.http.Timeout == 0 {
		c.http.Timeout = c.cfg.HTTPTimeout
	}
	if c.clock == nil {
		c.clock = types.SystemClock{}
	}
	if c.ids == nil {
		c.ids = types.UUIDGenerator{}
	}
	if c.store == nil {
		store, err := kv.Open(ctx, kv.Options{
			Driver:        kv.Driver(c.cfg.StorageDriver),
			Path:          c.cfg.StoragePath,
			RedisURL:      c.cfg.RedisURL,
			MongoURI:      c.cfg.MongoURI,
			MongoDatabase: c.cfg.MongoDatabase,
		})
		if err != nil {
			return nil, err
		}
		c.store = store
		c.ownStore = true
	}
	if c.exec == nil {
		c.exec = newDefaultExecutor(c.execCfg, &c.log)
	}

	ackDelay := c.cfg.AutoReplyDelay
	if c.ackDelay != nil {
		ackDelay = *c.ackDelay
	}

	c.bus = events.NewBus(256)
	c.sched = scheduler.New(c.log)
	c.mirror = persist.NewMirror(c.store, c.exec, c.log)
	c.sessions = session.New(session.Config{
		HTTP:    c.http,
		BaseURL: c.cfg.AuthBaseURL,
		Mirror:  c.mirror,
		Clock:   c.clock,
		IDs:     c.ids,
		Bus:     c.bus,
		Logger:  c.log,
	})
	c.chats = chat.New(chat.Config{
		Mirror: c.mirror,
		Clock:  c.clock,
		IDs:    c.ids,
		Bus:    c.bus,
		Logger: c.log,
	})
	c.tickets = support.New(support.Config{
		Mirror:    c.mirror,
		Clock:     c.clock,
		IDs:       c.ids,
		Bus:       c.bus,
		Scheduler: c.sched,
		AckDelay:  ackDelay,
		Logger:    c.log,
	})

	c.load(ctx)
	return c, nil
}

// load restores every store; failures are logged inside the stores.
func (c *Client) load(ctx context.Context) {
	timed := func(name string, fn func(context.Context)) {
		start := time.Now()
		fn(ctx)
		storeLoadSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
	timed("session", c.sessions.Load)
	timed("chat", c.chats.Load)
	timed("support", c.tickets.Load)
	c.log.Debug().
		Bool("authenticated", c.sessions.IsAuthenticated()).
		Str("storage_driver", c.cfg.StorageDriver).
		Msg("local state loaded")
}

// Session returns the session store.
func (c *Client) Session() *SessionStore { return c.sessions }

// Conversations returns the conversation store.
func (c *Client) Conversations() *ConversationStore { return c.chats }

// Tickets returns the support-ticket store.
func (c *Client) Tickets() *TicketStore { return c.tickets }

// Events subscribes to store change notifications. Call cancel when done;
// the channel is closed on cancel or Close.
func (c *Client) Events() (feed <-chan Event, cancel func()) {
	return c.bus.Subscribe()
}

// AwaitConsistency blocks until every write already queued for any storage
// key has landed. It works by submitting a no-op job per key and waiting for
// it to run, thereby guaranteeing FIFO ordering has flushed.
func (c *Client) AwaitConsistency(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, key := range []string{persist.KeyUser, persist.KeyConversations, persist.KeyMessages, persist.KeySupportTickets} {
		if err := c.mirror.Flush(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Close cancels pending acknowledgements, drains the write queue and
// releases storage. Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.sched != nil {
		c.sched.Stop()
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	if c.bus != nil {
		c.bus.Close()
	}
	if c.ownStore && c.store != nil {
		return c.store.Close()
	}
	return nil
}

// newDefaultExecutor constructs the shardqueue executor from SQ_* settings,
// falling back to built-in defaults when they cannot be parsed.
func newDefaultExecutor(cfg *shardqueue.Config, log *zerolog.Logger) *shardqueue.ShardExecutor {
	if cfg == nil {
		loaded, err := shardqueue.LoadConfig()
		if err != nil {
			log.Warn().Err(err).Msg("invalid SQ_* settings, using executor defaults")
			loaded = shardqueue.Config{}
		}
		cfg = &loaded
	}
	cfg.Logger = log
	return shardqueue.NewShardExecutor(*cfg)
}
