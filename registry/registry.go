// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package registry is the single shared resource §5 of the spec allows:
// a typed, in-memory object arena addressed by objectid.ID, read through a
// short-lived cache the way storage.dbCache layers patrickmn/go-cache in
// front of bitmarkd's on-disk pools — except there is no disk underneath,
// since persistence is an external collaborator's concern here, not the
// core's.
package registry

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/margind/counter"
	"github.com/bitmark-inc/margind/objectid"
)

const (
	cacheTTL        = 1 * time.Minute
	cacheSweepEvery = 2 * time.Minute
)

// Registry - the object arena. One Registry per ledger instance.
type Registry struct {
	mutex     sync.Mutex
	objects   map[objectid.ID]interface{}
	counters  map[objectid.Type]*counter.Counter
	readCache *gocache.Cache
}

// New - an empty registry
func New() *Registry {
	return &Registry{
		objects:   make(map[objectid.ID]interface{}),
		counters:  make(map[objectid.Type]*counter.Counter),
		readCache: gocache.New(cacheTTL, cacheSweepEvery),
	}
}

// NextID - allocate the next instance id for a type; ids are never reused
func (r *Registry) NextID(t objectid.Type) objectid.ID {
	r.mutex.Lock()
	c, ok := r.counters[t]
	if !ok {
		c = new(counter.Counter)
		r.counters[t] = c
	}
	r.mutex.Unlock()

	n := c.Increment() - 1
	return objectid.ID{Space: objectid.ProtocolSpace, Type: t, Instance: n}
}

// Get - fetch an object by id, consulting the read cache first
func (r *Registry) Get(id objectid.ID) (interface{}, bool) {
	key := id.String()
	if cached, found := r.readCache.Get(key); found {
		if nil == cached {
			return nil, false
		}
		return cached, true
	}

	r.mutex.Lock()
	v, ok := r.objects[id]
	r.mutex.Unlock()

	if ok {
		r.readCache.SetDefault(key, v)
	} else {
		r.readCache.SetDefault(key, nil)
	}
	return v, ok
}

// invalidate - drop a key from the read cache; called on every write so
// the cache can never serve a stale object past the write that changed it
func (r *Registry) invalidate(id objectid.ID) {
	r.readCache.Delete(id.String())
}

// ClearCache - flush the read cache; called at block boundaries so a
// rolled-back transaction can never leave a stale positive hit behind
func (r *Registry) ClearCache() {
	r.readCache.Flush()
}

// Count - number of live objects of a given type (used by tests)
func (r *Registry) Count(t objectid.Type) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	n := 0
	for id := range r.objects {
		if id.Type == t {
			n++
		}
	}
	return n
}

// Each - iterate all live objects of a type in unspecified order; callers
// needing a deterministic order (e.g. the order book) use a registry.Index
// instead.
func (r *Registry) Each(t objectid.Type, fn func(objectid.ID, interface{})) {
	r.mutex.Lock()
	snapshot := make(map[objectid.ID]interface{}, len(r.objects))
	for id, v := range r.objects {
		if id.Type == t {
			snapshot[id] = v
		}
	}
	r.mutex.Unlock()

	for id, v := range snapshot {
		fn(id, v)
	}
}
