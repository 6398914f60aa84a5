// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package asset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
)

var (
	core = objectid.ID{Type: objectid.AssetType, Instance: 0}
	usd  = objectid.ID{Type: objectid.AssetType, Instance: 1}
)

func samplePrice() fixedpoint.Price {
	return fixedpoint.Price{
		Base:  fixedpoint.AssetAmount{Amount: 100, AssetID: usd},
		Quote: fixedpoint.AssetAmount{Amount: 100, AssetID: core},
	}
}

func validFeed() asset.Feed {
	return asset.Feed{
		SettlementPrice:  samplePrice(),
		CoreExchangeRate: samplePrice(),
		MCR:              1750,
		MSSR:             1100,
	}
}

func TestValidRatioBoundaries(t *testing.T) {
	assert.True(t, asset.ValidRatio(1001))
	assert.True(t, asset.ValidRatio(32000))
	assert.False(t, asset.ValidRatio(1000))
	assert.False(t, asset.ValidRatio(32001))
}

func TestPublishFeedRejectsOutOfRangeMCR(t *testing.T) {
	b := &asset.BitassetData{}
	f := validFeed()
	f.MCR = 1000
	err := b.PublishFeed(account.Account{Test: true, PublicKey: make([]byte, 32)}, 1, f, false)
	assert.Equal(t, fault.ErrInvalidMCR, err)
}

func TestPublishFeedRejectsICRBeforeHardfork(t *testing.T) {
	b := &asset.BitassetData{}
	f := validFeed()
	f.ICR = 1500
	err := b.PublishFeed(account.Account{Test: true, PublicKey: make([]byte, 32)}, 1, f, false)
	assert.Equal(t, fault.ErrICRNotYetActive, err)

	err = b.PublishFeed(account.Account{Test: true, PublicKey: make([]byte, 32)}, 1, f, true)
	assert.NoError(t, err)
}

func TestPublishFeedRecordsEntry(t *testing.T) {
	b := &asset.BitassetData{}
	pub := account.Account{Test: true, PublicKey: make([]byte, 32)}
	require.NoError(t, b.PublishFeed(pub, 42, validFeed(), false))
	entry, ok := b.Feeds[pub.String()]
	assert.True(t, ok)
	assert.Equal(t, int64(42), entry.Timestamp)
}
