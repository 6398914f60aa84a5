// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vesting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
	"github.com/bitmark-inc/margind/vesting"
)

func owner(b byte) account.Account {
	key := make([]byte, 32)
	key[0] = b
	return account.Account{Test: true, PublicKey: key}
}

func newBalance(amount fixedpoint.Amount, vestingSeconds, createdAt int64) *vesting.Balance {
	return &vesting.Balance{
		ID:             objectid.ID{Type: objectid.VestingBalanceType, Instance: 1},
		Owner:          owner(1),
		Balance:        amount,
		VestingSeconds: vestingSeconds,
		LastUpdate:     createdAt,
	}
}

// spec.md §7 item 5: deposit 10_000 with vesting_seconds=1000. After 500s,
// up to 5_000 may be withdrawn; exactly 5000 succeeds, 5001 rejected. After
// another 500s, the remaining 5000 matures and is withdrawable.
func TestWithdrawMaturesLinearlyOverVestingPeriod(t *testing.T) {
	b := newBalance(10000, 1000, 0)

	assert.Equal(t, fixedpoint.Amount(5000), vesting.Withdrawable(*b, 500))

	err := vesting.Withdraw(b, 5001, 500)
	assert.Equal(t, fault.ErrInsufficientBalance, err)

	require.NoError(t, vesting.Withdraw(b, 5000, 500))
	assert.Equal(t, fixedpoint.Amount(5000), b.Balance)

	assert.Equal(t, fixedpoint.Amount(5000), vesting.Withdrawable(*b, 1000))
	require.NoError(t, vesting.Withdraw(b, 5000, 1000))
	assert.Equal(t, fixedpoint.Amount(0), b.Balance)
}

func TestWithdrawRejectsMoreThanBalance(t *testing.T) {
	b := newBalance(1000, 1000, 0)
	err := vesting.Withdraw(b, 2000, 1000)
	assert.Equal(t, fault.ErrInsufficientBalance, err)
}

func TestAgingNeverExceedsVestingSeconds(t *testing.T) {
	b := newBalance(1000, 1000, 0)
	// far beyond full maturity; coin-seconds must cap at balance*vesting_seconds
	assert.Equal(t, fixedpoint.Amount(1000), vesting.Withdrawable(*b, 1_000_000))
}

func TestDepositDoesNotRetroactivelyCreditCoinSeconds(t *testing.T) {
	b := newBalance(1000, 1000, 0)
	// half-matured: 500 coin-seconds-per-unit-balance earned
	require.NoError(t, vesting.Deposit(b, 1000, 500))
	assert.Equal(t, fixedpoint.Amount(2000), b.Balance)
	// the new 1000 units contribute zero matured coin-seconds yet
	assert.Equal(t, fixedpoint.Amount(500), vesting.Withdrawable(*b, 500))
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	b := newBalance(1000, 1000, 0)
	assert.Equal(t, fault.ErrInvalidAmount, vesting.Deposit(b, 0, 0))
}

func TestWithdrawableZeroVestingSecondsIsFullBalance(t *testing.T) {
	b := newBalance(500, 0, 0)
	assert.Equal(t, fixedpoint.Amount(500), vesting.Withdrawable(*b, 10))
}
