// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger is the top-level wiring spec.md §9 and SPEC_FULL.md §5
// describe: one Ledger owns the object registry, the transaction driver's
// Store, and the block-level orchestration around them (one committed
// transaction at a time, a maintenance sweep at the end of each block),
// the way the teacher's asset/consensus packages wrap a registry-like
// cache and a background processor behind one globalData struct with its
// own subsystem logger.
package ledger

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/hardfork"
	"github.com/bitmark-inc/margind/objectid"
	"github.com/bitmark-inc/margind/registry"
	"github.com/bitmark-inc/margind/txdriver"
)

// Ledger - the whole in-memory state-transition core: registry + store,
// guarded by one lock so ApplyBlock and any read-only query never
// interleave with a half-applied transaction.
type Ledger struct {
	mu sync.RWMutex

	Log      *logger.L
	registry *registry.Registry
	Store    *txdriver.Store
}

// New - an empty ledger. Call Genesis before applying any block; until
// then Store.CoreAsset is the zero value and every operation that prices
// off the core asset will fail its lookup.
func New(hardforks hardfork.Timestamps) *Ledger {
	r := registry.New()
	return &Ledger{
		Log:      logger.New("ledger"),
		registry: r,
		Store:    txdriver.NewStore(r, objectid.ID{}, hardforks),
	}
}

// Genesis - mint the core asset and seed issuer's balance with the whole
// initial supply, bypassing every gate the way a real chain's genesis
// block pre-mines its initial distribution outside of normal transaction
// evaluation (txdriver.Store.SeedBalance's doc comment).
func (l *Ledger) Genesis(issuer account.Account, symbol asset.Symbol, precision uint8, maxSupply fixedpoint.Amount) (objectid.ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	session := l.registry.Begin()
	result, err := txdriver.Apply(l.Store, session, txdriver.AssetCreate{
		Issuer:    issuer,
		Symbol:    symbol,
		Precision: precision,
		Options:   asset.Options{MaxSupply: maxSupply},
	}, 0)
	if nil != err {
		session.Discard()
		l.Log.Errorf("genesis failed: %s", err)
		return objectid.ID{}, err
	}
	session.Commit()

	l.Store.CoreAsset = result.CreatedID
	l.Store.SeedBalance(issuer, result.CreatedID, maxSupply)
	l.Log.Infof("genesis: core asset %s, %d minted to %s", result.CreatedID, maxSupply, issuer.String())
	return result.CreatedID, nil
}

// TxResult - the outcome of one transaction inside a block: either the
// driver's Result, or the error that caused it to be discarded.
type TxResult struct {
	Op     interface{}
	Result txdriver.Result
	Err    error
}

// ApplyBlock - spec.md §5: "one transaction is applied to completion
// (commit or discard) before the next begins, and one block wraps a
// commit of all its transactions plus post-processing". Each operation
// gets its own session so a bad transaction never touches a good
// one's state; a failing transaction does not abort the block, matching
// how a real chain simply omits a transaction that fails validation
// rather than rejecting every transaction packaged alongside it. The
// registry's read cache is flushed at the end of every block.
func (l *Ledger) ApplyBlock(ops []interface{}, blockTime int64) []TxResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]TxResult, len(ops))
	for i, op := range ops {
		session := l.registry.Begin()
		result, err := txdriver.Apply(l.Store, session, op, blockTime)
		if nil != err {
			session.Discard()
			l.Log.Warnf("tx %d rejected: %s", i, err)
			out[i] = TxResult{Op: op, Err: err}
			continue
		}
		session.Commit()
		out[i] = TxResult{Op: op, Result: result}
	}

	virtualOps := txdriver.RunMaintenance(l.Store, blockTime)
	if len(virtualOps) > 0 {
		l.Log.Infof("maintenance at t=%d: %d virtual ops", blockTime, len(virtualOps))
	}

	l.registry.ClearCache()
	return out
}

// Seed - credit an account's balance directly, bypassing every gate.
// Thin wrapper over txdriver.Store.SeedBalance for genesis-adjacent
// allocation (e.g. airdrops) and test setup.
func (l *Ledger) Seed(owner account.Account, assetID objectid.ID, amount fixedpoint.Amount) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Store.SeedBalance(owner, assetID, amount)
}

// Balance - an account's holding of one asset (read-only query)
func (l *Ledger) Balance(owner account.Account, assetID objectid.ID) fixedpoint.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.Store.Balance(owner, assetID)
}

// Asset - look up a live asset record (read-only query)
func (l *Ledger) Asset(id objectid.ID) (*asset.Asset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.Store.Asset(id)
}
