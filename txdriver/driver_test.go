// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdriver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/hardfork"
	"github.com/bitmark-inc/margind/objectid"
	"github.com/bitmark-inc/margind/registry"
	"github.com/bitmark-inc/margind/txdriver"
)

func owner(b byte) account.Account {
	key := make([]byte, 32)
	key[0] = b
	return account.Account{Test: true, PublicKey: key}
}

// harness - a fresh store with a core asset and a USD bitasset fed by a
// single live publisher, funded per-test via SeedBalance.
type harness struct {
	store   *txdriver.Store
	reg     *registry.Registry
	core    objectid.ID
	usd     objectid.ID
	issuer  account.Account
	feeder  account.Account
}

func newHarness(t *testing.T) *harness {
	reg := registry.New()
	core := objectid.ID{Space: objectid.ProtocolSpace, Type: objectid.AssetType, Instance: 0}
	// Issue615 active before the first block time these tests use, with a
	// day-long feed lifetime, so the feeder's publications count as live
	store := txdriver.NewStore(reg, core, hardfork.Timestamps{Issue615: -1})
	issuer := owner(1)
	feeder := owner(2)

	session := reg.Begin()
	_, err := txdriver.Apply(store, session, txdriver.AssetCreate{
		Issuer:    issuer,
		Symbol:    "CORE",
		Precision: 5,
		Options:   asset.Options{MaxSupply: 1000000000},
	}, 0)
	require.NoError(t, err)

	usdResult, err := txdriver.Apply(store, session, txdriver.AssetCreate{
		Issuer:    issuer,
		Symbol:    "USD",
		Precision: 4,
		Options:   asset.Options{MaxSupply: 1000000000, IssuerPermissions: asset.GlobalSettle},
		Bitasset: &asset.BitassetData{
			BackingAsset:             core,
			FeedLifetimeSec:          86400,
			ForceSettleDelaySec:      3600,
			MaxForceSettlementVolume: 1000,
			MinimumFeeds:             1,
			FeedProducers:            []account.Account{feeder},
		},
	}, 0)
	require.NoError(t, err)
	session.Commit()

	return &harness{store: store, reg: reg, core: core, usd: usdResult.CreatedID, issuer: issuer, feeder: feeder}
}

func (h *harness) apply(t *testing.T, op interface{}, now int64) (txdriver.Result, error) {
	session := h.reg.Begin()
	result, err := txdriver.Apply(h.store, session, op, now)
	if nil == err {
		session.Commit()
	} else {
		session.Discard()
	}
	return result, err
}

func TestTransferMovesBalanceBetweenAccounts(t *testing.T) {
	h := newHarness(t)
	alice, bob := owner(10), owner(11)
	h.store.SeedBalance(alice, h.core, 1000)

	_, err := h.apply(t, txdriver.Transfer{From: alice, To: bob, Asset: h.core, Amount: 300}, 0)
	require.NoError(t, err)

	assert.Equal(t, fixedpoint.Amount(700), h.store.Balance(alice, h.core))
	assert.Equal(t, fixedpoint.Amount(300), h.store.Balance(bob, h.core))
}

func TestTransferRejectsInsufficientBalance(t *testing.T) {
	h := newHarness(t)
	alice, bob := owner(10), owner(11)
	h.store.SeedBalance(alice, h.core, 100)

	_, err := h.apply(t, txdriver.Transfer{From: alice, To: bob, Asset: h.core, Amount: 300}, 0)
	assert.True(t, fault.IsErrInsufficientFunds(err))
	assert.Equal(t, fixedpoint.Amount(100), h.store.Balance(alice, h.core))
}

func TestLimitOrderCreateRestsWhenNothingCrosses(t *testing.T) {
	h := newHarness(t)
	alice := owner(10)
	h.store.SeedBalance(alice, h.core, 1000)

	result, err := h.apply(t, txdriver.LimitOrderCreate{
		Seller:  alice,
		ForSale: 100,
		SellPrice: fixedpoint.Price{
			Base:  fixedpoint.AssetAmount{Amount: 1, AssetID: h.core},
			Quote: fixedpoint.AssetAmount{Amount: 1, AssetID: h.usd},
		},
	}, 0)
	require.NoError(t, err)

	order, ok := h.store.Orders().Get(result.CreatedID)
	require.True(t, ok)
	assert.Equal(t, fixedpoint.Amount(100), order.ForSale)
	assert.Equal(t, fixedpoint.Amount(900), h.store.Balance(alice, h.core))
}

func TestLimitOrderCreateFillsAgainstRestingOrder(t *testing.T) {
	h := newHarness(t)
	alice, bob := owner(10), owner(11)
	h.store.SeedBalance(alice, h.usd, 1000)
	h.store.SeedBalance(bob, h.core, 1000)

	_, err := h.apply(t, txdriver.LimitOrderCreate{
		Seller:  alice,
		ForSale: 100,
		SellPrice: fixedpoint.Price{
			Base:  fixedpoint.AssetAmount{Amount: 1, AssetID: h.usd},
			Quote: fixedpoint.AssetAmount{Amount: 1, AssetID: h.core},
		},
	}, 0)
	require.NoError(t, err)

	_, err = h.apply(t, txdriver.LimitOrderCreate{
		Seller:  bob,
		ForSale: 100,
		SellPrice: fixedpoint.Price{
			Base:  fixedpoint.AssetAmount{Amount: 1, AssetID: h.core},
			Quote: fixedpoint.AssetAmount{Amount: 1, AssetID: h.usd},
		},
	}, 0)
	require.NoError(t, err)

	assert.Equal(t, fixedpoint.Amount(100), h.store.Balance(bob, h.usd))
	assert.Equal(t, fixedpoint.Amount(900), h.store.Balance(bob, h.core))
	assert.Equal(t, fixedpoint.Amount(900), h.store.Balance(alice, h.usd))
	assert.Equal(t, fixedpoint.Amount(100), h.store.Balance(alice, h.core))
}

func TestLimitOrderCancelRefundsEscrow(t *testing.T) {
	h := newHarness(t)
	alice := owner(10)
	h.store.SeedBalance(alice, h.core, 1000)

	result, err := h.apply(t, txdriver.LimitOrderCreate{
		Seller:  alice,
		ForSale: 100,
		SellPrice: fixedpoint.Price{
			Base:  fixedpoint.AssetAmount{Amount: 1, AssetID: h.core},
			Quote: fixedpoint.AssetAmount{Amount: 1, AssetID: h.usd},
		},
	}, 0)
	require.NoError(t, err)

	_, err = h.apply(t, txdriver.LimitOrderCancel{ID: result.CreatedID, Seller: alice}, 0)
	require.NoError(t, err)

	assert.Equal(t, fixedpoint.Amount(1000), h.store.Balance(alice, h.core))
	_, ok := h.store.Orders().Get(result.CreatedID)
	assert.False(t, ok)
}

func TestLimitOrderCancelRejectsWrongSeller(t *testing.T) {
	h := newHarness(t)
	alice, mallory := owner(10), owner(12)
	h.store.SeedBalance(alice, h.core, 1000)

	result, err := h.apply(t, txdriver.LimitOrderCreate{
		Seller:  alice,
		ForSale: 100,
		SellPrice: fixedpoint.Price{
			Base:  fixedpoint.AssetAmount{Amount: 1, AssetID: h.core},
			Quote: fixedpoint.AssetAmount{Amount: 1, AssetID: h.usd},
		},
	}, 0)
	require.NoError(t, err)

	_, err = h.apply(t, txdriver.LimitOrderCancel{ID: result.CreatedID, Seller: mallory}, 0)
	assert.Equal(t, fault.ErrIssuerMismatch, err)
}

func TestCallOrderUpdateOpensAPosition(t *testing.T) {
	h := newHarness(t)
	borrower := owner(20)
	h.store.SeedBalance(borrower, h.core, 1000)

	_, err := h.apply(t, txdriver.AssetPublishFeed{
		Asset:     h.usd,
		Publisher: h.feeder,
		Feed: asset.Feed{
			SettlementPrice:  fixedpoint.Price{Base: fixedpoint.AssetAmount{Amount: 10000, AssetID: h.core}, Quote: fixedpoint.AssetAmount{Amount: 10000, AssetID: h.usd}},
			CoreExchangeRate: fixedpoint.Price{Base: fixedpoint.AssetAmount{Amount: 10000, AssetID: h.core}, Quote: fixedpoint.AssetAmount{Amount: 10000, AssetID: h.usd}},
			MCR:              1750,
			MSSR:             1100,
		},
	}, 0)
	require.NoError(t, err)

	_, err = h.apply(t, txdriver.CallOrderUpdate{
		Owner:           borrower,
		DebtAsset:       h.usd,
		CollateralAsset: h.core,
		DeltaCollateral: 200,
		DeltaDebt:       100,
	}, 0)
	require.NoError(t, err)

	assert.Equal(t, fixedpoint.Amount(800), h.store.Balance(borrower, h.core))
	assert.Equal(t, fixedpoint.Amount(100), h.store.Balance(borrower, h.usd))
}

func TestCallOrderUpdateRejectsBelowMaintenanceRatio(t *testing.T) {
	h := newHarness(t)
	borrower := owner(20)
	h.store.SeedBalance(borrower, h.core, 1000)

	_, err := h.apply(t, txdriver.AssetPublishFeed{
		Asset:     h.usd,
		Publisher: h.feeder,
		Feed: asset.Feed{
			SettlementPrice:  fixedpoint.Price{Base: fixedpoint.AssetAmount{Amount: 10000, AssetID: h.core}, Quote: fixedpoint.AssetAmount{Amount: 10000, AssetID: h.usd}},
			CoreExchangeRate: fixedpoint.Price{Base: fixedpoint.AssetAmount{Amount: 10000, AssetID: h.core}, Quote: fixedpoint.AssetAmount{Amount: 10000, AssetID: h.usd}},
			MCR:              1750,
			MSSR:             1100,
		},
	}, 0)
	require.NoError(t, err)

	_, err = h.apply(t, txdriver.CallOrderUpdate{
		Owner:           borrower,
		DebtAsset:       h.usd,
		CollateralAsset: h.core,
		DeltaCollateral: 100,
		DeltaDebt:       100,
	}, 0)
	assert.Equal(t, fault.ErrBelowMaintenanceRatio, err)
}

func TestAssetSettleEscrowsBalanceIntoForceSettleQueue(t *testing.T) {
	h := newHarness(t)
	holder := owner(30)
	h.store.SeedBalance(holder, h.usd, 500)

	result, err := h.apply(t, txdriver.AssetSettle{Owner: holder, Asset: h.usd, Balance: 200}, 0)
	require.NoError(t, err)

	assert.Equal(t, fixedpoint.Amount(300), h.store.Balance(holder, h.usd))
	assert.Len(t, h.store.ForceSettleQueue(h.usd).Matured(3600), 1)
	assert.False(t, result.CreatedID.IsNil())
}

func TestAssetGlobalSettleSeizesOutstandingCallOrders(t *testing.T) {
	h := newHarness(t)
	borrower := owner(20)
	h.store.SeedBalance(borrower, h.core, 1000)

	_, err := h.apply(t, txdriver.CallOrderUpdate{
		Owner: borrower, DebtAsset: h.usd, CollateralAsset: h.core, DeltaCollateral: 300, DeltaDebt: 100,
	}, 0)
	require.NoError(t, err)

	price := fixedpoint.Price{Base: fixedpoint.AssetAmount{Amount: 1, AssetID: h.core}, Quote: fixedpoint.AssetAmount{Amount: 1, AssetID: h.usd}}
	_, err = h.apply(t, txdriver.AssetGlobalSettle{Asset: h.usd, Issuer: h.issuer, SettlementPrice: price}, 0)
	require.NoError(t, err)

	a, _ := h.store.Asset(h.usd)
	assert.True(t, a.Bitasset.Settlement.Active)
	assert.Equal(t, fixedpoint.Amount(300), a.Bitasset.Settlement.SettlementFund)
	assert.Equal(t, 0, h.store.CallBook(h.usd).Len())
}

func TestAssetGlobalSettleRequiresGlobalSettlePermission(t *testing.T) {
	h := newHarness(t)
	price := fixedpoint.Price{Base: fixedpoint.AssetAmount{Amount: 1, AssetID: h.core}, Quote: fixedpoint.AssetAmount{Amount: 1, AssetID: h.usd}}
	a, _ := h.store.Asset(h.usd)
	a.Options.IssuerPermissions = 0

	_, err := h.apply(t, txdriver.AssetGlobalSettle{Asset: h.usd, Issuer: h.issuer, SettlementPrice: price}, 0)
	assert.Equal(t, fault.ErrIssuerMismatch, err)
}

func TestBidCollateralOnlyAcceptedAfterGlobalSettlement(t *testing.T) {
	h := newHarness(t)
	bidder := owner(40)
	h.store.SeedBalance(bidder, h.core, 1000)

	_, err := h.apply(t, txdriver.BidCollateral{Bidder: bidder, Asset: h.usd, CollateralOffered: 200, DebtCovered: 100}, 0)
	assert.Equal(t, fault.ErrNotGloballySettled, err)
	assert.Equal(t, fixedpoint.Amount(1000), h.store.Balance(bidder, h.core))
}

func TestBidCollateralEscrowsCollateralAfterGlobalSettlement(t *testing.T) {
	h := newHarness(t)
	borrower, bidder := owner(20), owner(40)
	h.store.SeedBalance(borrower, h.core, 1000)
	h.store.SeedBalance(bidder, h.core, 1000)

	_, err := h.apply(t, txdriver.CallOrderUpdate{
		Owner: borrower, DebtAsset: h.usd, CollateralAsset: h.core, DeltaCollateral: 300, DeltaDebt: 100,
	}, 0)
	require.NoError(t, err)

	price := fixedpoint.Price{Base: fixedpoint.AssetAmount{Amount: 1, AssetID: h.core}, Quote: fixedpoint.AssetAmount{Amount: 1, AssetID: h.usd}}
	_, err = h.apply(t, txdriver.AssetGlobalSettle{Asset: h.usd, Issuer: h.issuer, SettlementPrice: price}, 0)
	require.NoError(t, err)

	result, err := h.apply(t, txdriver.BidCollateral{Bidder: bidder, Asset: h.usd, CollateralOffered: 200, DebtCovered: 100}, 0)
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.Amount(800), h.store.Balance(bidder, h.core))
	assert.False(t, result.CreatedID.IsNil())
}

func TestVestingBalanceCreateAndWithdraw(t *testing.T) {
	h := newHarness(t)
	creator := owner(50)
	h.store.SeedBalance(creator, h.core, 1000)

	result, err := h.apply(t, txdriver.VestingBalanceCreate{
		Creator: creator, Owner: creator, Asset: h.core, Amount: 1000, VestingSeconds: 100,
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.Amount(0), h.store.Balance(creator, h.core))

	_, err = h.apply(t, txdriver.VestingBalanceWithdraw{ID: result.CreatedID, Owner: creator, Amount: 1000}, 0)
	assert.True(t, fault.IsErrInsufficientFunds(err))

	_, err = h.apply(t, txdriver.VestingBalanceWithdraw{ID: result.CreatedID, Owner: creator, Amount: 500}, 50)
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.Amount(500), h.store.Balance(creator, h.core))
}

func TestAccountWhitelistTogglesAuthorityLists(t *testing.T) {
	h := newHarness(t)
	target := owner(60)

	_, err := h.apply(t, txdriver.AccountWhitelist{Asset: h.usd, Issuer: h.issuer, Target: target, Listing: txdriver.WhiteListed}, 0)
	require.NoError(t, err)

	a, _ := h.store.Asset(h.usd)
	require.Len(t, a.Options.WhitelistAuthorities, 1)
	assert.True(t, a.Options.WhitelistAuthorities[0].Equal(&target))

	_, err = h.apply(t, txdriver.AccountWhitelist{Asset: h.usd, Issuer: h.issuer, Target: target, Listing: txdriver.NoListing}, 0)
	require.NoError(t, err)
	a, _ = h.store.Asset(h.usd)
	assert.Empty(t, a.Options.WhitelistAuthorities)
}

func TestAccountWhitelistRejectsNonIssuer(t *testing.T) {
	h := newHarness(t)
	target := owner(60)

	_, err := h.apply(t, txdriver.AccountWhitelist{Asset: h.usd, Issuer: owner(99), Target: target, Listing: txdriver.WhiteListed}, 0)
	assert.Equal(t, fault.ErrIssuerMismatch, err)
}
