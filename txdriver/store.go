// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdriver

import (
	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/callorder"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/hardfork"
	"github.com/bitmark-inc/margind/objectid"
	"github.com/bitmark-inc/margind/orderbook"
	"github.com/bitmark-inc/margind/registry"
	"github.com/bitmark-inc/margind/settlement"
	"github.com/bitmark-inc/margind/vesting"
)

// Store - every piece of mutable state an operation can touch, besides the
// object registry itself. Order and call-order books (registry.Index-backed)
// and settlement queues are ordered projections that live alongside the
// registry rather than inside it, the same split orderbook.Book and
// callorder.Book already draw.
type Store struct {
	Registry  *registry.Registry
	Hardforks hardfork.Timestamps
	CoreAsset objectid.ID

	symbols map[asset.Symbol]objectid.ID

	balances map[string]map[objectid.ID]fixedpoint.Amount
	vestingBalances map[objectid.ID]*vesting.Balance

	orders          *orderbook.Book
	callBooks       map[objectid.ID]*callorder.Book
	callOrderIndex  map[string]objectid.ID // owner.String()+"/"+debtAsset.String() -> order id
	forceSettle     map[objectid.ID]*settlement.Queue
	bidBooks        map[objectid.ID]*settlement.BidBook
}

// NewStore - an empty ledger-adjacent store backed by r
func NewStore(r *registry.Registry, coreAsset objectid.ID, hardforks hardfork.Timestamps) *Store {
	return &Store{
		Registry:        r,
		Hardforks:       hardforks,
		CoreAsset:       coreAsset,
		symbols:         make(map[asset.Symbol]objectid.ID),
		balances:        make(map[string]map[objectid.ID]fixedpoint.Amount),
		vestingBalances: make(map[objectid.ID]*vesting.Balance),
		orders:          orderbook.NewBook(),
		callBooks:       make(map[objectid.ID]*callorder.Book),
		callOrderIndex:  make(map[string]objectid.ID),
		forceSettle:     make(map[objectid.ID]*settlement.Queue),
		bidBooks:        make(map[objectid.ID]*settlement.BidBook),
	}
}

// Asset - look up a live asset record
func (s *Store) Asset(id objectid.ID) (*asset.Asset, bool) {
	v, ok := s.Registry.Get(id)
	if !ok {
		return nil, false
	}
	a, ok := v.(*asset.Asset)
	return a, ok
}

// putAsset - write a through the session so the change is undo-logged
func putAsset(session *registry.Session, a *asset.Asset) {
	session.Put(a.ID, a)
}

// SeedBalance - set an account's balance directly, bypassing every gate and
// escrow rule. Used only for genesis allocation (the initial core-asset
// distribution a real chain's genesis block pre-mines outside of normal
// transaction evaluation) and by tests that need a funded starting state.
func (s *Store) SeedBalance(owner account.Account, assetID objectid.ID, amount fixedpoint.Amount) {
	key := owner.String()
	per, ok := s.balances[key]
	if !ok {
		per = make(map[objectid.ID]fixedpoint.Amount)
		s.balances[key] = per
	}
	per[assetID] = amount
}

// Balance - an account's holding of one asset
func (s *Store) Balance(owner account.Account, assetID objectid.ID) fixedpoint.Amount {
	per, ok := s.balances[owner.String()]
	if !ok {
		return 0
	}
	return per[assetID]
}

// credit - add amount to owner's balance of assetID
func (s *Store) credit(owner account.Account, assetID objectid.ID, amount fixedpoint.Amount) error {
	key := owner.String()
	per, ok := s.balances[key]
	if !ok {
		per = make(map[objectid.ID]fixedpoint.Amount)
		s.balances[key] = per
	}
	next, err := per[assetID].Add(amount)
	if nil != err {
		return err
	}
	per[assetID] = next
	return nil
}

// debit - subtract amount from owner's balance of assetID, failing if it
// would go negative
func (s *Store) debit(owner account.Account, assetID objectid.ID, amount fixedpoint.Amount) error {
	key := owner.String()
	per := s.balances[key]
	current := per[assetID]
	next, err := current.Sub(amount)
	if nil != err {
		return fault.ErrInsufficientBalance
	}
	per[assetID] = next
	return nil
}

// Orders - the single shared limit order book
func (s *Store) Orders() *orderbook.Book {
	return s.orders
}

// CallBook - the call-order book for one debt asset, created on first use
func (s *Store) CallBook(debtAsset objectid.ID) *callorder.Book {
	bk, ok := s.callBooks[debtAsset]
	if !ok {
		bk = callorder.NewBook()
		s.callBooks[debtAsset] = bk
	}
	return bk
}

// ForceSettleQueue - the force-settle queue for one bitasset
func (s *Store) ForceSettleQueue(bitasset objectid.ID) *settlement.Queue {
	q, ok := s.forceSettle[bitasset]
	if !ok {
		q = settlement.NewQueue()
		s.forceSettle[bitasset] = q
	}
	return q
}

// BidBook - the collateral-bid book for one globally-settled bitasset
func (s *Store) BidBook(bitasset, backingAsset objectid.ID) *settlement.BidBook {
	bk, ok := s.bidBooks[bitasset]
	if !ok {
		bk = settlement.NewBidBook(backingAsset, bitasset)
		s.bidBooks[bitasset] = bk
	}
	return bk
}

// VestingBalance - look up an owner's vesting balance by id
func (s *Store) VestingBalance(id objectid.ID) (*vesting.Balance, bool) {
	b, ok := s.vestingBalances[id]
	return b, ok
}

func callOrderKey(owner account.Account, debtAsset objectid.ID) string {
	return owner.String() + "/" + debtAsset.String()
}
