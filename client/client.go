package client

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/dialect"
	"github.com/Startitecture/storm-sub007/dialect/sql"
	"github.com/Startitecture/storm-sub007/dialect/sql/sqlgraph"
	"github.com/Startitecture/storm-sub007/selection"
)

// Option configures a Client.
type Option func(*config)

type config struct {
	driver   dialect.Driver
	cache    storm.Cache
	cacheTTL time.Duration
	log      *slog.Logger
	resolver *sqlgraph.Resolver
}

// Driver sets the driver statements are executed with.
func Driver(drv dialect.Driver) Option {
	return func(c *config) {
		c.driver = drv
	}
}

// Cache sets the cache compiled statement text is kept in. A nil cache
// disables statement caching.
func Cache(cache storm.Cache, ttl time.Duration) Option {
	return func(c *config) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// Log sets the logger compile and cache decisions are written to.
func Log(l *slog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// Resolver sets the resolver selections built by the client use.
func Resolver(r *sqlgraph.Resolver) Option {
	return func(c *config) {
		c.resolver = r
	}
}

// CacheStats counts statement cache lookups.
type CacheStats struct {
	Hits   int64
	Misses int64
}

type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// Client executes selections and bulk commands.
type Client struct {
	config
	stats *counters
	// tx is set on clients bound to a transaction.
	tx dialect.Tx
}

// New returns a client configured with the given options. Statements are
// cached in a fresh storm.MemoryCache unless Cache says otherwise.
func New(opts ...Option) *Client {
	c := &Client{
		config: config{
			cache:    storm.NewMemoryCache(),
			log:      slog.Default(),
			resolver: sqlgraph.Default,
		},
		stats: &counters{},
	}
	for _, opt := range opts {
		opt(&c.config)
	}
	return c
}

// Open opens a connection with the database/sql driver registered as
// driverName and wraps it as cfg says: statement logging when Debug is
// set, statistics with slow statement logging always.
//
//	c, err := client.Open("sqlserver", dsn, storm.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
func Open(driverName, source string, cfg storm.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	drv, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	c := New(opts...)
	var d dialect.Driver = drv
	if cfg.Debug {
		d = sql.NewDebugDriver(d, sql.DebugWithLogger(c.log))
	}
	c.driver = sql.NewStatsDriver(d,
		sql.WithSlowThreshold(cfg.SlowThreshold),
		sql.WithSlowQueryLog(c.log),
	)
	switch {
	case !cfg.StatementCache.Enabled:
		c.cache = nil
	case c.cache != nil:
		c.cacheTTL = cfg.StatementCache.TTL
	}
	return c, nil
}

// Close closes the underlying driver.
func (c *Client) Close() error {
	if c.driver == nil {
		return nil
	}
	return c.driver.Close()
}

// Dialect returns the dialect of the underlying driver.
func (c *Client) Dialect() string {
	return c.driver.Dialect()
}

// CacheStats returns the statement cache counters.
func (c *Client) CacheStats() CacheStats {
	return CacheStats{Hits: c.stats.hits.Load(), Misses: c.stats.misses.Load()}
}

// From starts a selection of rows of type T resolved with the client's
// resolver.
func From[T any](c *Client) *selection.Selection {
	return selection.From[T](selection.WithResolver(c.resolver))
}

func (c *Client) execer() dialect.ExecQuerier {
	if c.tx != nil {
		return c.tx
	}
	return c.driver
}

func (c *Client) ready() error {
	if c.driver == nil {
		return fmt.Errorf("storm: client has no driver")
	}
	return nil
}
