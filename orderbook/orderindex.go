// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package orderbook

import (
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
	"github.com/bitmark-inc/margind/registry"
)

// pairKey - one (sell_asset, receive_asset) market
type pairKey struct {
	sell, receive objectid.ID
}

// Book - all live limit orders, indexed per spec.md §4.4: "(sell_asset,
// receive_asset, sell_price descending, order_id)". One registry.Index per
// directed pair, generalizing the teacher's avl.Tree the way SPEC_FULL.md
// §3 describes: an ordered projection rebuilt on every mutation rather
// than a tree read off disk.
type Book struct {
	orders  map[objectid.ID]*Order
	indices map[pairKey]*registry.Index
}

// NewBook - an empty order book
func NewBook() *Book {
	return &Book{
		orders:  make(map[objectid.ID]*Order),
		indices: make(map[pairKey]*registry.Index),
	}
}

// less - spec.md §4.4: "(... sell_price descending, order_id)". Orders in
// one index all share (sell_asset, receive_asset), so SellPrice values are
// directly comparable without inverting.
func less(a, b registry.Key) bool {
	oa, ob := a.Sort.(*Order), b.Sort.(*Order)
	cmp := oa.SellPrice.Cmp(ob.SellPrice)
	if cmp != 0 {
		return cmp > 0
	}
	return oa.Sequence < ob.Sequence
}

func (bk *Book) indexFor(k pairKey) *registry.Index {
	idx, ok := bk.indices[k]
	if !ok {
		idx = registry.NewIndex(less)
		bk.indices[k] = idx
	}
	return idx
}

// Insert - add a new order to the book
func (bk *Book) Insert(o *Order) {
	bk.orders[o.ID] = o
	k := pairKey{sell: o.SellAsset(), receive: o.ReceiveAsset()}
	bk.indexFor(k).Insert(registry.Key{Sort: o, ID: o.ID})
}

// Cancel - remove an order by id; returns it for escrow refund by the caller
func (bk *Book) Cancel(id objectid.ID) (*Order, bool) {
	o, ok := bk.orders[id]
	if !ok {
		return nil, false
	}
	k := pairKey{sell: o.SellAsset(), receive: o.ReceiveAsset()}
	bk.indexFor(k).Remove(id)
	delete(bk.orders, id)
	return o, true
}

// Get - look up a live order by id
func (bk *Book) Get(id objectid.ID) (*Order, bool) {
	o, ok := bk.orders[id]
	return o, ok
}

// Best - the best (cheapest-ask, then oldest) order offering sell for
// receive, if any
func (bk *Book) Best(sell, receive objectid.ID) (*Order, bool) {
	idx := bk.indexFor(pairKey{sell: sell, receive: receive})
	k, ok := idx.At(0)
	if !ok {
		return nil, false
	}
	return k.Sort.(*Order), true
}

// Walk - visit orders offering sell for receive in best-first order; stop
// early if fn returns false
func (bk *Book) Walk(sell, receive objectid.ID, fn func(*Order) bool) {
	idx := bk.indexFor(pairKey{sell: sell, receive: receive})
	idx.Walk(func(k registry.Key) bool {
		return fn(k.Sort.(*Order))
	})
}

// Each - visit every live order across every market, in unspecified order.
// Used by maintenance's expiry sweep (spec.md §5 "post-processing: expiry
// sweeps"), which does not care about price ordering.
func (bk *Book) Each(fn func(*Order)) {
	for _, o := range bk.orders {
		fn(o)
	}
}

// Reduce - shrink an order's remaining ForSale after a partial fill,
// removing it from the book entirely once exhausted
func (bk *Book) Reduce(id objectid.ID, filled fixedpoint.Amount) {
	o, ok := bk.orders[id]
	if !ok {
		return
	}
	o.ForSale -= filled
	if o.ForSale <= 0 {
		bk.Cancel(id)
	}
}
