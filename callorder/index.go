// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package callorder

import (
	"github.com/bitmark-inc/margind/objectid"
	"github.com/bitmark-inc/margind/registry"
)

// Book - all live call orders for one debt asset, ordered by
// collateralization ratio ascending (the worst-collateralized order first)
// so the call-order engine and the force-settlement engine can both find
// "the least collateralized order" in O(1) the way a multi-index container
// would (design notes §9).
type Book struct {
	orders map[objectid.ID]*Order // keyed by order id
	index  *registry.Index
}

// NewBook - an empty call-order book for one debt asset
func NewBook() *Book {
	return &Book{
		orders: make(map[objectid.ID]*Order),
		index:  registry.NewIndex(lessByCR),
	}
}

func lessByCR(a, b registry.Key) bool {
	oa, ob := a.Sort.(*Order), b.Sort.(*Order)
	cmp := oa.CollateralizationPrice().Cmp(ob.CollateralizationPrice())
	if cmp != 0 {
		return cmp < 0
	}
	return oa.ID.Instance < ob.ID.Instance
}

// Upsert - insert a new order or re-sort an existing one after a mutation
func (bk *Book) Upsert(o *Order) {
	if _, existed := bk.orders[o.ID]; existed {
		bk.index.Remove(o.ID)
	}
	bk.orders[o.ID] = o
	bk.index.Insert(registry.Key{Sort: o, ID: o.ID})
}

// Remove - drop a fully-covered or seized order
func (bk *Book) Remove(id objectid.ID) {
	bk.index.Remove(id)
	delete(bk.orders, id)
}

// Get - look up a live order by id
func (bk *Book) Get(id objectid.ID) (*Order, bool) {
	o, ok := bk.orders[id]
	return o, ok
}

// Worst - the least-collateralized live order, if any
func (bk *Book) Worst() (*Order, bool) {
	k, ok := bk.index.At(0)
	if !ok {
		return nil, false
	}
	return k.Sort.(*Order), true
}

// Len - number of live orders
func (bk *Book) Len() int {
	return bk.index.Len()
}

// Walk - visit orders worst-first; stop early if fn returns false
func (bk *Book) Walk(fn func(*Order) bool) {
	bk.index.Walk(func(k registry.Key) bool {
		return fn(k.Sort.(*Order))
	})
}
