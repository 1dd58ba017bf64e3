package matcher

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// Cached remembers resolved customer ids per (org, name) for a while, so a batch full
// of the same insured hits the store once. Concurrent misses for one key share a
// single store call. Entries are per process.
type Cached struct {
	next   Matcher
	cache  *expirable.LRU[string, string]
	group  singleflight.Group
	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewCached wraps next with an LRU of size entries that expire after ttl.
func NewCached(next Matcher, size int, ttl time.Duration, reg prometheus.Registerer) (*Cached, error) {
	c := &Cached{
		next:  next,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tt2_customer_cache_hits_total",
			Help: "Customer lookups answered from the in-process cache.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tt2_customer_cache_misses_total",
			Help: "Customer lookups that went to the store.",
		}),
	}
	for _, col := range []prometheus.Collector{c.hits, c.misses} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// FindOrCreateCustomer answers from the cache or delegates and caches the result.
// Failed lookups are not cached. Only the caller that ran the store call sees
// Created set.
func (c *Cached) FindOrCreateCustomer(ctx context.Context, orgID, name string, attrs CustomerAttributes) (Match, error) {
	key := orgID + "\x00" + name
	if id, ok := c.cache.Get(key); ok {
		c.hits.Inc()
		return Match{CustomerID: id}, nil
	}
	c.misses.Inc()

	var ran bool
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		ran = true
		m, err := c.next.FindOrCreateCustomer(ctx, orgID, name, attrs)
		if err != nil {
			return Match{}, err
		}
		c.cache.Add(key, m.CustomerID)
		return m, nil
	})
	if err != nil {
		return Match{}, err
	}
	m := v.(Match)
	if !ran {
		m.Created = false
	}
	return m, nil
}

// Len reports the number of cached entries.
func (c *Cached) Len() int {
	return c.cache.Len()
}
