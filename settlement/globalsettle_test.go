// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/callorder"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
	"github.com/bitmark-inc/margind/settlement"
)

func TestTriggerGlobalSettlementSeizesEveryCallOrder(t *testing.T) {
	b := bitassetWithFeed(1750, 1000, 0)
	a := usdAsset(b)

	calls := callorder.NewBook()
	calls.Upsert(&callorder.Order{ID: objectid.ID{Type: objectid.CallOrderType, Instance: 1}, DebtAsset: usd, CollateralAsset: core, Collateral: 200, Debt: 100})
	calls.Upsert(&callorder.Order{ID: objectid.ID{Type: objectid.CallOrderType, Instance: 2}, DebtAsset: usd, CollateralAsset: core, Collateral: 300, Debt: 150})

	settlementPrice := fixedpoint.Price{Base: fixedpoint.AssetAmount{Amount: 100, AssetID: core}, Quote: fixedpoint.AssetAmount{Amount: 100, AssetID: usd}}
	err := settlement.TriggerGlobalSettlement(a, calls, settlementPrice)
	require.NoError(t, err)

	assert.Equal(t, 0, calls.Len())
	assert.True(t, b.Settlement.Active)
	assert.Equal(t, fixedpoint.Amount(500), b.Settlement.SettlementFund) // 200+300 collateral seized
}

func TestTriggerGlobalSettlementRejectsDoubleSettle(t *testing.T) {
	b := bitassetWithFeed(1750, 1000, 0)
	a := usdAsset(b)
	calls := callorder.NewBook()

	settlementPrice := fixedpoint.Price{Base: fixedpoint.AssetAmount{Amount: 100, AssetID: core}, Quote: fixedpoint.AssetAmount{Amount: 100, AssetID: usd}}
	require.NoError(t, settlement.TriggerGlobalSettlement(a, calls, settlementPrice))

	err := settlement.TriggerGlobalSettlement(a, calls, settlementPrice)
	assert.Equal(t, fault.ErrAlreadyGloballySettled, err)
}

func TestForceSettleGlobalRequiresIssuerPermission(t *testing.T) {
	b := bitassetWithFeed(1750, 1000, 0)
	a := usdAsset(b)
	calls := callorder.NewBook()

	settlementPrice := fixedpoint.Price{Base: fixedpoint.AssetAmount{Amount: 100, AssetID: core}, Quote: fixedpoint.AssetAmount{Amount: 100, AssetID: usd}}
	err := settlement.ForceSettleGlobal(a, calls, settlementPrice)
	assert.Equal(t, fault.ErrIssuerMismatch, err)

	a.Options.IssuerPermissions = a.Options.IssuerPermissions.Set(asset.GlobalSettle)
	assert.NoError(t, settlement.ForceSettleGlobal(a, calls, settlementPrice))
}

func TestRedeemFromFundDrainsAtSettlementPrice(t *testing.T) {
	b := bitassetWithFeed(1750, 1000, 0)
	b.Settlement = asset.GlobalSettlement{
		Active:          true,
		SettlementPrice: fixedpoint.Price{Base: fixedpoint.AssetAmount{Amount: 100, AssetID: core}, Quote: fixedpoint.AssetAmount{Amount: 100, AssetID: usd}},
		SettlementFund:  500,
	}

	collateral, err := settlement.RedeemFromFund(b, 200)
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.Amount(200), collateral)
	assert.Equal(t, fixedpoint.Amount(300), b.Settlement.SettlementFund)

	_, err = settlement.RedeemFromFund(b, 400)
	assert.Equal(t, fault.ErrSettlementFundExhausted, err)
}
