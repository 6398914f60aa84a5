// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package vesting implements spec.md §4.7, the coin-days-destroyed (CDD)
// vesting policy: a balance accrues coin_seconds_earned over vesting_seconds
// of age and a withdrawal is admissible only against matured coin-seconds.
package vesting

import (
	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
)

// Balance - spec.md §3 "Vesting balance": {owner, balance, policy}, policy
// narrowed to the CDD variant (the only one spec.md §4.7 names).
type Balance struct {
	ID      objectid.ID
	Owner   account.Account
	Asset   objectid.ID
	Balance fixedpoint.Amount

	VestingSeconds    int64
	CoinSecondsEarned int64
	LastUpdate        int64
}

// age - spec.md §4.7's aging formula, applied in place at time t. Idempotent:
// calling it twice at the same t is a no-op, the way the feed package's
// Recompute is idempotent for an unchanged set of inputs.
func (b *Balance) age(t int64) {
	delta := t - b.LastUpdate
	if delta <= 0 {
		b.LastUpdate = t
		return
	}
	if delta > b.VestingSeconds {
		delta = b.VestingSeconds
	}
	ceiling := int64(b.Balance) * b.VestingSeconds
	earned := b.CoinSecondsEarned + delta*int64(b.Balance)
	if earned > ceiling {
		earned = ceiling
	}
	b.CoinSecondsEarned = earned
	b.LastUpdate = t
}

// Deposit - add to balance without touching coin_seconds_earned (spec.md
// §4.7: "the aging cap naturally grows"). Ages first so the deposit doesn't
// retroactively inflate coin-seconds already earned against the old,
// smaller balance.
func Deposit(b *Balance, amount fixedpoint.Amount, t int64) error {
	if amount <= 0 {
		return fault.ErrInvalidAmount
	}
	b.age(t)
	next, err := b.Balance.Add(amount)
	if nil != err {
		return err
	}
	b.Balance = next
	return nil
}

// Withdraw - spec.md §4.7: admissible iff w*vesting_seconds <=
// coin_seconds_earned after aging to t.
func Withdraw(b *Balance, w fixedpoint.Amount, t int64) error {
	if w <= 0 {
		return fault.ErrInvalidAmount
	}
	if w > b.Balance {
		return fault.ErrInsufficientBalance
	}
	b.age(t)

	required := int64(w) * b.VestingSeconds
	if required > b.CoinSecondsEarned {
		return fault.ErrInsufficientBalance
	}

	b.CoinSecondsEarned -= required
	b.Balance -= w
	return nil
}

// Withdrawable - the largest amount currently admissible for withdrawal at
// t, after aging (used by callers that want to show a spendable amount
// without mutating state; it does not itself age the stored balance).
func Withdrawable(b Balance, t int64) fixedpoint.Amount {
	b.age(t)
	if 0 == b.VestingSeconds {
		return b.Balance
	}
	w := fixedpoint.Amount(b.CoinSecondsEarned / b.VestingSeconds)
	if w > b.Balance {
		w = b.Balance
	}
	return w
}
