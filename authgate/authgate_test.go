// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package authgate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/authgate"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/hardfork"
)

func acct(b byte) account.Account {
	key := make([]byte, 32)
	key[0] = b
	return account.Account{Test: true, PublicKey: key}
}

func TestCheckPermitsWhenNoLists(t *testing.T) {
	a := &asset.Asset{}
	assert.NoError(t, authgate.Check(a, acct(1)))
}

func TestCheckBlacklistOnly(t *testing.T) {
	blocked := acct(1)
	a := &asset.Asset{Options: asset.Options{BlacklistAuthorities: []account.Account{blocked}}}
	assert.Equal(t, fault.ErrAccountBlacklisted, authgate.Check(a, blocked))
	assert.NoError(t, authgate.Check(a, acct(2)))
}

func TestCheckWhitelistRequiresMembership(t *testing.T) {
	allowed := acct(1)
	a := &asset.Asset{Options: asset.Options{WhitelistAuthorities: []account.Account{allowed}}}
	assert.NoError(t, authgate.Check(a, allowed))
	assert.Equal(t, fault.ErrAccountNotWhitelisted, authgate.Check(a, acct(2)))
}

func TestCheckWhitelistBlacklistTakesPriority(t *testing.T) {
	both := acct(1)
	a := &asset.Asset{Options: asset.Options{
		WhitelistAuthorities: []account.Account{both},
		BlacklistAuthorities: []account.Account{both},
	}}
	assert.Equal(t, fault.ErrAccountBlacklisted, authgate.Check(a, both))
}

func TestCheckBitassetPreHardforkSkipsBackingCheck(t *testing.T) {
	blocked := acct(1)
	bitasset := &asset.Asset{}
	backing := &asset.Asset{Options: asset.Options{BlacklistAuthorities: []account.Account{blocked}}}

	err := authgate.CheckBitasset(bitasset, backing, blocked, 100, hardfork.Timestamps{BackingAssetAuth: 500}, true)
	assert.NoError(t, err, "pre-hardfork: backing asset check is skipped, reproducing the historical bug")

	err = authgate.CheckBitasset(bitasset, backing, blocked, 500, hardfork.Timestamps{BackingAssetAuth: 500}, true)
	assert.Equal(t, fault.ErrAccountBlacklisted, err)
}
