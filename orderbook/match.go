// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package orderbook

import (
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
)

// Fill - one executed trade leg, reported so the caller can update
// balances, accrue fees and emit a virtual operation (spec.md §4.6).
type Fill struct {
	Paid        fixedpoint.Amount // in the order's sell asset
	Received    fixedpoint.Amount // in the order's receive asset
	MarketFee   fixedpoint.Amount // deducted from Received, accrues to that asset
	FullyFilled bool
}

// Crosses - spec.md §4.4 item 1: "a.sell_price ≥ ~b.sell_price" where ~b is
// b's price inverted into a's (sell-asset, receive-asset) terms. a and b
// must be a matched pair (a sells what b wants and vice versa).
func Crosses(a, b *Order) bool {
	if !b.SellPrice.IsInvertible() {
		return false
	}
	return a.SellPrice.Cmp(b.SellPrice.Invert()) >= 0
}

// fillAt - execute one trade between two crossing orders at the maker's
// price (spec.md §4.4 item 1: "fill at the maker's price (older order)").
// marketFeePerMille is the receiving asset's market fee (item 5); a
// dust residue below 1 unit is written off (marketFee floors it to zero)
// rather than tracked as a fee.
func fillAt(a, b *Order, marketFeePerMille uint16) (fillA, fillB Fill) {
	// the maker (older order, lower Sequence) sets the price for both legs
	// (spec.md §4.4 item 1); price is expressed in a's (sell, receive) terms.
	price := a.SellPrice
	if b.Sequence < a.Sequence {
		price = b.SellPrice.Invert()
	}

	// price is (a's sell asset X) : (a's receive asset Y). b sells Y, so the
	// amount of X needed to buy all of b's ForSale (denominated in Y) is
	// price.Mul(b.ForSale); whichever side is smaller determines the trade
	// (item 4: "the smaller side's amount determines the trade").
	xNeededForAllOfB := price.Mul(b.ForSale)

	var paidA, paidB fixedpoint.Amount
	if xNeededForAllOfB <= a.ForSale {
		paidA = xNeededForAllOfB
		paidB = b.ForSale
	} else {
		paidA = a.ForSale
		paidB = price.Invert().Mul(a.ForSale)
	}

	feeA := marketFee(paidB, marketFeePerMille) // fee charged on what A receives (B's asset)
	feeB := marketFee(paidA, marketFeePerMille) // fee charged on what B receives (A's asset)

	fillA = Fill{Paid: paidA, Received: paidB - feeA, MarketFee: feeA, FullyFilled: paidA >= a.ForSale}
	fillB = Fill{Paid: paidB, Received: paidA - feeB, MarketFee: feeB, FullyFilled: paidB >= b.ForSale}
	return fillA, fillB
}

// marketFee - per-mille fee on the received side (item 5). Integer
// division already floors a sub-1-unit fee to zero, which is the "dust
// residue below 1 unit is written off" rule item 5 describes.
func marketFee(amount fixedpoint.Amount, perMille uint16) fixedpoint.Amount {
	if 0 == perMille {
		return 0
	}
	return fixedpoint.Amount(int64(amount) * int64(perMille) / 1000)
}

// MatchResult - the outcome of attempting to match a newly-submitted order
// against the resting book.
type MatchResult struct {
	TakerFills  []Fill
	MakerFills  map[objectid.ID]Fill
	FullyFilled bool
}

// Match - walk the book of orders offering ReceiveAsset()->SellAsset() from
// best outward, filling taker against each crossing resting order in turn,
// until taker is exhausted, the book runs dry, or the next resting order no
// longer crosses. A fill-or-kill taker that is not fully filled makes Match
// return fault.ErrFillOrKillNotFilled (the book is not mutated by Match
// itself — callers apply the returned fills through a registry.Session so
// a rejected fill-or-kill rolls back cleanly).
func Match(book *Book, taker *Order, marketFeePerMille uint16) (MatchResult, error) {
	result := MatchResult{MakerFills: make(map[objectid.ID]Fill)}
	remaining := *taker

	var crossed []*Order
	book.Walk(taker.ReceiveAsset(), taker.SellAsset(), func(maker *Order) bool {
		if !Crosses(&remaining, maker) {
			return false
		}
		crossed = append(crossed, maker)
		return remaining.ForSale > 0
	})

	for _, maker := range crossed {
		if remaining.ForSale <= 0 {
			break
		}
		fillTaker, fillMaker := fillAt(&remaining, maker, marketFeePerMille)
		result.TakerFills = append(result.TakerFills, fillTaker)
		result.MakerFills[maker.ID] = fillMaker
		remaining.ForSale -= fillTaker.Paid
	}

	result.FullyFilled = remaining.ForSale <= 0
	if taker.FillOrKill && !result.FullyFilled {
		return MatchResult{}, fault.ErrFillOrKillNotFilled
	}
	return result, nil
}
