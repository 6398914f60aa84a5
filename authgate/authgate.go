// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package authgate implements the per-asset whitelist/blacklist evaluation
// spec.md §4.1 describes: every operation that moves, creates or settles an
// amount of some asset for some account must first pass this gate. The gate
// is evaluated fresh at the time of the operation — whitelists are mutable,
// so nothing here is cached past a single call.
package authgate

import (
	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/hardfork"
)

// Check - is acct permitted to hold a.
//
// - If the asset has a non-empty whitelist, acct must be whitelisted by at
//   least one authority and blacklisted by none.
// - Otherwise, if the blacklist is non-empty, acct must not be blacklisted
//   by any authority in it.
// - Otherwise acct is permitted.
func Check(a *asset.Asset, acct account.Account) error {
	o := a.Options
	if len(o.WhitelistAuthorities) > 0 {
		if inList(o.BlacklistAuthorities, acct) {
			return fault.ErrAccountBlacklisted
		}
		if !inList(o.WhitelistAuthorities, acct) {
			return fault.ErrAccountNotWhitelisted
		}
		return nil
	}
	if len(o.BlacklistAuthorities) > 0 && inList(o.BlacklistAuthorities, acct) {
		return fault.ErrAccountBlacklisted
	}
	return nil
}

func inList(list []account.Account, acct account.Account) bool {
	for _, a := range list {
		if a.Equal(&acct) {
			return true
		}
	}
	return false
}

// CheckBitasset - bitasset operations gate on both the bitasset and its
// backing asset (spec.md §4.1). Before the BackingAssetAuth hardfork, the
// backing asset was not checked at all for some operations — this bug must
// be reproduced exactly, so callers pass requireBackingCheck explicitly
// rather than this package guessing it from the operation kind.
func CheckBitasset(bitasset, backing *asset.Asset, acct account.Account, blockTime int64, hardforks hardfork.Timestamps, requireBackingCheck bool) error {
	if err := Check(bitasset, acct); nil != err {
		return err
	}
	if requireBackingCheck && hardforks.IsBackingAssetAuthActive(blockTime) {
		if err := Check(backing, acct); nil != err {
			return err
		}
	}
	return nil
}
