// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txdriver implements spec.md §4.6: the transaction driver's
// operation dispatch and virtual-operation ordering. It is the only
// package that touches every lower layer (asset, authgate, feed, orderbook,
// callorder, settlement, vesting) at once, the way the teacher's
// transactionrecord.Transaction/Pack ties every record type to one
// dispatchable interface.
package txdriver

import (
	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
)

// Kind - the essential operation set spec.md §4.6 names
type Kind uint8

const (
	NullKind Kind = iota
	TransferKind
	LimitOrderCreateKind
	LimitOrderCancelKind
	CallOrderUpdateKind
	BidCollateralKind
	AssetCreateKind
	AssetUpdateKind
	AssetUpdateBitassetKind
	AssetUpdateIssuerKind
	AssetPublishFeedKind
	AssetUpdateFeedProducersKind
	AssetSettleKind
	AssetGlobalSettleKind
	AssetIssueKind
	AssetReserveKind
	AssetFundFeePoolKind
	VestingBalanceCreateKind
	VestingBalanceWithdrawKind
	AccountWhitelistKind
)

// Listing - graphene-style account_listing bitmask for account_whitelist
type Listing uint8

const (
	NoListing   Listing = 0
	WhiteListed Listing = 1
	BlackListed Listing = 2
)

// Transfer - move amount of asset from one account's balance to another's
type Transfer struct {
	From, To account.Account
	Asset    objectid.ID
	Amount   fixedpoint.Amount
}

// LimitOrderCreate - spec.md §3 "Limit order"
type LimitOrderCreate struct {
	Seller     account.Account
	ForSale    fixedpoint.Amount
	SellPrice  fixedpoint.Price
	Expiration int64
	FillOrKill bool
}

// LimitOrderCancel - withdraw a resting order, refunding its remaining ForSale
type LimitOrderCancel struct {
	ID     objectid.ID
	Seller account.Account
}

// CallOrderUpdate - spec.md §4.3 "Operation: call_order_update"
type CallOrderUpdate struct {
	Owner                      account.Account
	DebtAsset, CollateralAsset objectid.ID
	DeltaCollateral, DeltaDebt fixedpoint.Amount
	TargetCollateralRatio      uint16
}

// BidCollateral - spec.md §4.5 "bid_collateral"
type BidCollateral struct {
	Bidder            account.Account
	Asset             objectid.ID // the globally-settled bitasset
	CollateralOffered fixedpoint.Amount
	DebtCovered       fixedpoint.Amount
}

// AssetCreate - spec.md §3 "Asset", §6 "asset_create"
type AssetCreate struct {
	Issuer    account.Account
	Symbol    asset.Symbol
	Precision uint8
	Options   asset.Options
	Bitasset  *asset.BitassetData // nil for a UIA
}

// AssetUpdate - replace an asset's mutable Options wholesale
type AssetUpdate struct {
	Asset      objectid.ID
	Issuer     account.Account
	NewOptions asset.Options
}

// AssetUpdateBitasset - update the bitasset-only configuration fields
type AssetUpdateBitasset struct {
	Asset                    objectid.ID
	Issuer                   account.Account
	FeedLifetimeSec          int64
	ForceSettleDelaySec      int64
	MaxForceSettlementVolume uint16
	MarginCallFeeRatio       uint16
}

// AssetUpdateIssuer - transfer issuer identity
type AssetUpdateIssuer struct {
	Asset     objectid.ID
	Issuer    account.Account
	NewIssuer account.Account
}

// AssetPublishFeed - spec.md §4.2, §6
type AssetPublishFeed struct {
	Asset     objectid.ID
	Publisher account.Account
	Feed      asset.Feed
}

// AssetUpdateFeedProducers - replace the feed-producer set
type AssetUpdateFeedProducers struct {
	Asset            objectid.ID
	Issuer           account.Account
	NewFeedProducers []account.Account
}

// AssetSettle - spec.md §4.5 "Force settle"
type AssetSettle struct {
	Owner   account.Account
	Asset   objectid.ID
	Balance fixedpoint.Amount
}

// AssetGlobalSettle - issuer-invoked global settlement (spec.md §6)
type AssetGlobalSettle struct {
	Asset           objectid.ID
	Issuer          account.Account
	SettlementPrice fixedpoint.Price
}

// AssetIssue - mint new supply to an account (UIA only)
type AssetIssue struct {
	Asset          objectid.ID
	Issuer         account.Account
	IssueToAccount account.Account
	Amount         fixedpoint.Amount
}

// AssetReserve - burn (reserve) supply out of the caller's own balance
type AssetReserve struct {
	Asset  objectid.ID
	Owner  account.Account
	Amount fixedpoint.Amount
}

// AssetFundFeePool - top up an asset's core-asset fee pool
type AssetFundFeePool struct {
	Asset  objectid.ID
	Funder account.Account
	Amount fixedpoint.Amount
}

// VestingBalanceCreate - spec.md §4.7
type VestingBalanceCreate struct {
	Creator        account.Account
	Owner          account.Account
	Asset          objectid.ID
	Amount         fixedpoint.Amount
	VestingSeconds int64
}

// VestingBalanceWithdraw - spec.md §4.7
type VestingBalanceWithdraw struct {
	ID     objectid.ID
	Owner  account.Account
	Amount fixedpoint.Amount
}

// AccountWhitelist - add/remove Target from an asset's whitelist/blacklist
type AccountWhitelist struct {
	Asset   objectid.ID
	Issuer  account.Account
	Target  account.Account
	Listing Listing
}
