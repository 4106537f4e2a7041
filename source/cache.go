package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/faultline/trace"
)

// Cache memoizes static maps per function identity for the process lifetime.
// Misses are memoized too, so a function without source is looked up once.
type Cache struct {
	provider Provider
	mapper   *Mapper
	mux      sync.Mutex
	entries  map[trace.FunctionID]*entry
	maps     map[mapKey]*Map
}

type entry struct {
	m   *Map
	err error
}

// mapKey fingerprint covers identity too, id keeps colliding hashes apart
type mapKey struct {
	id          trace.FunctionID
	fingerprint uint64
}

// NewCache creates a cache, provider can be nil for replay only usage
func NewCache(provider Provider, mapper *Mapper) *Cache {
	if mapper == nil {
		mapper = NewMapper()
	}
	return &Cache{provider: provider, mapper: mapper, entries: map[trace.FunctionID]*entry{}, maps: map[mapKey]*Map{}}
}

// Map returns static map for function id, locating its source on first use
func (c *Cache) Map(ctx context.Context, id trace.FunctionID) (*Map, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if cached, ok := c.entries[id]; ok {
		return cached.m, cached.err
	}
	if c.provider == nil {
		err := fmt.Errorf("%w: %v", ErrMissingSource, id)
		c.entries[id] = &entry{err: err}
		return nil, err
	}
	fn, err := c.provider.Locate(ctx, id)
	if err != nil {
		c.entries[id] = &entry{err: err}
		return nil, err
	}
	return c.put(fn)
}

// Put maps an already known function source, i.e. one restored from a record
func (c *Cache) Put(fn *Function) (*Map, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.put(fn)
}

// Lookup returns a cached map without locating source
func (c *Cache) Lookup(id trace.FunctionID) (*Map, bool) {
	c.mux.Lock()
	defer c.mux.Unlock()
	cached, ok := c.entries[id]
	if !ok || cached.m == nil {
		return nil, false
	}
	return cached.m, true
}

func (c *Cache) put(fn *Function) (*Map, error) {
	fingerprint, err := Fingerprint(fn)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint %v: %w", fn.ID, err)
	}
	key := mapKey{id: fn.ID, fingerprint: fingerprint}
	if m, ok := c.maps[key]; ok {
		c.entries[fn.ID] = &entry{m: m}
		return m, nil
	}
	m, err := c.mapper.Map(fn)
	c.entries[fn.ID] = &entry{m: m, err: err}
	if err != nil {
		return nil, err
	}
	c.maps[key] = m
	return m, nil
}
