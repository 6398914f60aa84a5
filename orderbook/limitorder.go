// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package orderbook implements the limit-order book and matching engine of
// spec.md §4.4: insertion ordered by (sell_asset, receive_asset, sell_price
// descending, order_id), cancellation, and walking matches from best
// outward. Call-order matching (margin-call fills) is driven from here too,
// since §4.4 item 2/3 couples the two, but the call-order state machine
// itself lives in callorder.
package orderbook

import (
	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
)

// Order - spec.md §3 "Limit order": {seller, for_sale, sell_price,
// expiration, deferred_fee?}. SellPrice.Base is the asset being sold (its
// amount is ForSale); SellPrice.Quote is the asset to receive.
type Order struct {
	ID            objectid.ID
	Seller        account.Account
	ForSale       fixedpoint.Amount
	SellPrice     fixedpoint.Price
	Expiration    int64 // unix seconds, 0 == never
	DeferredFee   fixedpoint.Amount
	FillOrKill    bool

	// Sequence breaks ties between orders at an identical price: lower
	// sequence is older (spec.md §4.4 "Tie-breaks": insertion order, then
	// order id ascending within the same block — Sequence already encodes
	// id ascending since ids are allocated monotonically).
	Sequence uint64
}

// SellAsset - the asset this order offers
func (o *Order) SellAsset() objectid.ID {
	return o.SellPrice.Base.AssetID
}

// ReceiveAsset - the asset this order wants
func (o *Order) ReceiveAsset() objectid.ID {
	return o.SellPrice.Quote.AssetID
}

// IsExpired - true if now is at or past Expiration (0 == never expires)
func (o *Order) IsExpired(now int64) bool {
	return o.Expiration != 0 && now >= o.Expiration
}

// AmountToReceive - the counterparty amount this order demands for its
// entire remaining ForSale, at its own price (the ask)
func (o *Order) AmountToReceive() fixedpoint.Amount {
	return o.SellPrice.Invert().Mul(o.ForSale)
}
