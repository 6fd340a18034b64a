package geo

import (
	"context"
	"sync"

	"hivetrace/internal/metrics"
	"hivetrace/internal/types"
)

// Cache memoizes resolver answers for the lifetime of the process.
//
// Entries are insert-once and never evicted: the set of distinct attacker
// IPs a honeypot sees is small, and a resolved location is expected to be
// stable. Negative (Unknown) answers are cached too so a dead resolver is
// not re-queried on every report. Concurrent cold lookups for the same IP
// are deduplicated into a single upstream call.
type Cache struct {
	mu       sync.Mutex
	records  map[string]types.GeoRecord
	inflight map[string]chan struct{}
	resolver Resolver
}

// NewCache wraps a resolver (usually a Chain) with process-wide memoization.
func NewCache(resolver Resolver) *Cache {
	return &Cache{
		records:  make(map[string]types.GeoRecord),
		inflight: make(map[string]chan struct{}),
		resolver: resolver,
	}
}

// Resolve returns the location for an IP, querying upstream at most once
// per IP. Synthetic unknown_<user> IDs never reach the network and resolve
// to Unknown immediately. Resolve never fails; the worst answer is Unknown.
func (c *Cache) Resolve(ctx context.Context, ip string) types.GeoRecord {
	if ip == "" || types.IsSyntheticID(ip) {
		return UnknownRecord(ip)
	}

	c.mu.Lock()
	for {
		if rec, ok := c.records[ip]; ok {
			c.mu.Unlock()
			metrics.GeoLookups.WithLabelValues("cached").Inc()
			return rec
		}
		ch, ok := c.inflight[ip]
		if !ok {
			break
		}
		// Another caller is already resolving this IP: wait for it.
		c.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return UnknownRecord(ip)
		}
		c.mu.Lock()
	}

	ch := make(chan struct{})
	c.inflight[ip] = ch
	c.mu.Unlock()

	rec, err := c.resolver.Resolve(ctx, ip)
	if err != nil || rec.Country == "" {
		rec = UnknownRecord(ip)
	}
	if rec.Unknown() {
		metrics.GeoLookups.WithLabelValues("unknown").Inc()
	} else {
		metrics.GeoLookups.WithLabelValues("resolved").Inc()
	}

	c.mu.Lock()
	c.records[ip] = rec
	delete(c.inflight, ip)
	c.mu.Unlock()
	close(ch)

	return rec
}

// EnrichAll resolves a batch of IPs with bounded concurrency and returns
// the records keyed by IP.
func (c *Cache) EnrichAll(ctx context.Context, ips []string, workers int) map[string]types.GeoRecord {
	if workers <= 0 {
		workers = 4
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]types.GeoRecord, len(ips))
		sem     = make(chan struct{}, workers)
	)

	for _, ip := range ips {
		wg.Add(1)
		sem <- struct{}{}
		go func(ip string) {
			defer wg.Done()
			defer func() { <-sem }()
			rec := c.Resolve(ctx, ip)
			mu.Lock()
			results[ip] = rec
			mu.Unlock()
		}(ip)
	}
	wg.Wait()

	return results
}

// Snapshot copies the cached records, for persistence.
func (c *Cache) Snapshot() map[string]types.GeoRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]types.GeoRecord, len(c.records))
	for ip, rec := range c.records {
		out[ip] = rec
	}
	return out
}

// Warm seeds the cache with previously persisted records. Existing entries
// win; Warm never overwrites.
func (c *Cache) Warm(records map[string]types.GeoRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ip, rec := range records {
		if _, ok := c.records[ip]; !ok {
			c.records[ip] = rec
		}
	}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}
