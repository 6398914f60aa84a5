// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdriver

import (
	"math"

	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/callorder"
	"github.com/bitmark-inc/margind/feed"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
	"github.com/bitmark-inc/margind/orderbook"
	"github.com/bitmark-inc/margind/settlement"
)

// RunMaintenance - spec.md §5 "one block wraps a commit of all its
// transactions plus post-processing (expiry sweeps, maintenance, feed
// re-aggregation)" and §4.5 "on each maintenance interval". Visits every
// bitasset once: recomputes its feed, runs the margin-call and black-swan
// sweep, releases matured force-settlements, attempts collateral-bid
// revival, and resets the per-interval force-settlement volume cap.
// Expired limit orders are swept once, asset-independent.
func RunMaintenance(store *Store, now int64) []VirtualOp {
	var ops []VirtualOp
	ops = append(ops, sweepExpiredOrders(store, now)...)

	store.Registry.Each(objectid.AssetType, func(id objectid.ID, v interface{}) {
		a, ok := v.(*asset.Asset)
		if !ok || !a.IsMarketIssued() {
			return
		}
		b := a.Bitasset
		feed.Recompute(b, now, store.Hardforks)

		if !b.Settlement.Active {
			ops = append(ops, marginCallSweep(store, a, now)...)
			ops = append(ops, checkBlackSwan(store, a, now)...)
			ops = append(ops, releaseForceSettlements(store, a, now)...)
		} else {
			ops = append(ops, tryReviveBitasset(store, a)...)
		}

		settlement.ResetInterval(b)
	})

	OrderVirtualOps(ops)
	return ops
}

// sweepExpiredOrders - cancel every limit order past its Expiration,
// refunding the seller's escrow.
func sweepExpiredOrders(store *Store, now int64) []VirtualOp {
	var expired []objectid.ID
	store.Orders().Each(func(o *orderbook.Order) {
		if o.IsExpired(now) {
			expired = append(expired, o.ID)
		}
	})
	for _, id := range expired {
		if o, ok := store.Orders().Cancel(id); ok {
			store.credit(o.Seller, o.SellAsset(), o.ForSale)
		}
	}
	return nil
}

// marginCallOrderSequence - a margin call always acts as the newest order
// at the book, so fillAt settles at the resting (older) counterparty's own
// price rather than the margin-call's capped price (spec.md §4.4 item 1:
// "fill at the maker's price").
const marginCallOrderSequence = uint64(math.MaxUint64)

// marginCallSweep - spec.md §4.3/§4.4: walk the call-order book worst-first,
// matching every order still in margin-call territory against the limit
// order book at margin_call_order_price, worst-first, until nothing left
// qualifies. A fraction of the collateral paid out (margin_call_fee_ratio)
// diverts to accumulated_collateral_fees instead of the counterparty.
func marginCallSweep(store *Store, a *asset.Asset, now int64) []VirtualOp {
	b := a.Bitasset
	if !b.HasValidFeed() || a.IsPredictionMarket() {
		return nil
	}
	book := store.CallBook(a.ID)

	var candidates []objectid.ID
	book.Walk(func(o *callorder.Order) bool {
		if !o.IsMarginCalled(b) {
			return false
		}
		candidates = append(candidates, o.ID)
		return true
	})
	if 0 == len(candidates) {
		return nil
	}

	feeActive := store.Hardforks.IsMarginCallFeeActive(now)
	var ops []VirtualOp
	for _, id := range candidates {
		o, ok := book.Get(id)
		if !ok || !o.IsMarginCalled(b) {
			continue
		}

		matchPrice := callorder.MarginCallOrderPrice(o, b, store.Hardforks, now)
		debtToCover := callorder.MaxDebtToCover(o, b, matchPrice)
		forSale := matchPrice.Mul(debtToCover)
		if forSale > o.Collateral {
			forSale = o.Collateral
		}
		if forSale <= 0 {
			continue
		}

		taker := &orderbook.Order{
			ID:        id,
			Seller:    o.Owner,
			ForSale:   forSale,
			SellPrice: matchPrice,
			Sequence:  marginCallOrderSequence,
		}
		result, err := orderbook.Match(store.Orders(), taker, marketFeePerMille(store, a.ID))
		if nil != err || 0 == len(result.TakerFills) {
			continue
		}

		for _, fill := range result.TakerFills {
			o.Collateral -= fill.Paid
			o.Debt -= fill.Received
			accrueMarketFee(store, a.ID, fill.MarketFee)
			ops = append(ops, VirtualOp{Kind: VirtualMarginCall, AffectedAccount: o.Owner, OrderID: id, Detail: fill})
		}
		for makerID, fill := range result.MakerFills {
			if maker, ok := store.Orders().Get(makerID); ok {
				var marginFee fixedpoint.Amount
				if feeActive && b.MarginCallFeeRatio > 0 {
					marginFee = fixedpoint.Amount(int64(fill.Received) * int64(b.MarginCallFeeRatio) / 1000)
				}
				store.credit(maker.Seller, o.CollateralAsset, fill.Received-marginFee)
				a.Dynamic.AccumulatedCollateralFees += marginFee
				ops = append(ops, VirtualOp{Kind: VirtualFill, AffectedAccount: maker.Seller, OrderID: makerID, Detail: fill})
			}
			store.Orders().Reduce(makerID, fill.Paid)
		}

		if o.Debt <= 0 {
			// fully covered: whatever collateral the match didn't spend
			// belongs back to the borrower, same as a manual cover that
			// zeroes both sides together (callorder.Update's zero-debt
			// branch requires collateral == 0 for exactly this reason).
			if o.Collateral > 0 {
				store.credit(o.Owner, o.CollateralAsset, o.Collateral)
				o.Collateral = 0
			}
			book.Remove(o.ID)
		} else {
			book.Upsert(o)
		}
	}
	return ops
}

// checkBlackSwan - spec.md §4.3 "Black-swan trigger", extracted so both
// call_order_update (driver.go) and the maintenance sweep (feed updates can
// trigger a swan with no call_order_update in the same block) share one
// evaluation.
func checkBlackSwan(store *Store, a *asset.Asset, now int64) []VirtualOp {
	b := a.Bitasset
	if a.IsPredictionMarket() && store.Hardforks.IsPredictionMarketSwanExemptActive(now) {
		return nil
	}
	book := store.CallBook(a.ID)
	worst, ok := book.Worst()
	if !ok {
		return nil
	}
	bestCounter, hasCounter := store.Orders().Best(worst.CollateralAsset, worst.DebtAsset)
	var counterPrice fixedpoint.Price
	if hasCounter {
		counterPrice = bestCounter.SellPrice
	}
	if !callorder.CheckBlackSwan(worst, b, hasCounter, counterPrice) {
		return nil
	}
	settlementPrice := callorder.SeizurePrice(b)
	if err := settlement.TriggerGlobalSettlement(a, book, settlementPrice); nil != err {
		return nil
	}
	return []VirtualOp{{Kind: VirtualGlobalSettle, AffectedAccount: worst.Owner, OrderID: a.ID}}
}

// releaseForceSettlements - spec.md §4.5: release matured force-settle
// requests against the least-collateralized call orders, crediting the
// requester's collateral-asset balance (the debt-asset side is burned, not
// credited — it was escrowed out of the requester's balance at Submit and
// is removed from supply here).
func releaseForceSettlements(store *Store, a *asset.Asset, now int64) []VirtualOp {
	q := store.ForceSettleQueue(a.ID)
	released := settlement.ReleaseMatured(q, a, store.CallBook(a.ID), now)
	if 0 == len(released) {
		return nil
	}
	var ops []VirtualOp
	for _, r := range released {
		store.credit(r.Request.Owner, a.Bitasset.BackingAsset, r.Collateral)
		_ = a.Dynamic.Reserve(r.Settled) // r.Settled is always backed by live supply
		ops = append(ops, VirtualOp{Kind: VirtualForceSettle, AffectedAccount: r.Request.Owner, OrderID: r.Request.ID, Detail: r})
	}
	return ops
}

// tryReviveBitasset - spec.md §4.5 "Collateral bids (revival)": convert
// winning bids into call orders and pay out the settlement fund pro-rata.
func tryReviveBitasset(store *Store, a *asset.Asset) []VirtualOp {
	bk := store.BidBook(a.ID, a.Bitasset.BackingAsset)
	result := settlement.TryRevive(bk, a)
	if !result.Revived {
		return nil
	}
	book := store.CallBook(a.ID)
	var ops []VirtualOp
	for _, order := range result.NewOrders {
		book.Upsert(order)
		store.callOrderIndex[callOrderKey(order.Owner, a.ID)] = order.ID
		if payout := result.Payouts[order.ID]; payout > 0 {
			store.credit(order.Owner, a.Bitasset.BackingAsset, payout)
		}
		ops = append(ops, VirtualOp{Kind: VirtualCollateralRevive, AffectedAccount: order.Owner, OrderID: order.ID})
	}
	return ops
}
