// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settlement

import (
	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/callorder"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
	"github.com/bitmark-inc/margind/registry"
)

// Bid - spec.md §3 "Collateral bid": only legal while the asset is
// globally settled.
type Bid struct {
	ID               objectid.ID
	Bidder           account.Account
	CollateralOffered fixedpoint.Amount
	DebtCovered       fixedpoint.Amount
}

// InvSwanPrice - collateral_offered / debt_covered, as a Price so it can be
// compared exactly against settlement_price·MCR/1000 (spec.md §3, §4.5)
func (bid *Bid) InvSwanPrice(collateralAsset, debtAsset objectid.ID) fixedpoint.Price {
	return fixedpoint.Price{
		Base:  fixedpoint.AssetAmount{Amount: bid.CollateralOffered, AssetID: collateralAsset},
		Quote: fixedpoint.AssetAmount{Amount: bid.DebtCovered, AssetID: debtAsset},
	}
}

// BidBook - collateral bids for one (globally-settled) bitasset, indexed
// by collateral_offered/debt_covered descending (spec.md §4.5: "Bids are
// indexed by collateral_offered/debt_covered descending")
type BidBook struct {
	bids            map[objectid.ID]*Bid
	index           *registry.Index
	collateralAsset objectid.ID
	debtAsset       objectid.ID
}

// NewBidBook - an empty bid book for a bitasset backed by collateralAsset
func NewBidBook(collateralAsset, debtAsset objectid.ID) *BidBook {
	bk := &BidBook{
		bids:            make(map[objectid.ID]*Bid),
		collateralAsset: collateralAsset,
		debtAsset:       debtAsset,
	}
	bk.index = registry.NewIndex(bk.less)
	return bk
}

func (bk *BidBook) less(a, b registry.Key) bool {
	ba, bb := a.Sort.(*Bid), b.Sort.(*Bid)
	cmp := ba.InvSwanPrice(bk.collateralAsset, bk.debtAsset).Cmp(bb.InvSwanPrice(bk.collateralAsset, bk.debtAsset))
	if cmp != 0 {
		return cmp > 0 // best (highest) price first
	}
	return ba.ID.Instance < bb.ID.Instance
}

// SubmitBid - spec.md §4.5 "bid_collateral": only legal while the asset is
// globally settled
func SubmitBid(bk *BidBook, b *asset.BitassetData, bid *Bid) error {
	if !b.Settlement.Active {
		return fault.ErrNotGloballySettled
	}
	if bid.CollateralOffered <= 0 || bid.DebtCovered <= 0 {
		return fault.ErrInvalidAmount
	}
	bk.bids[bid.ID] = bid
	bk.index.Insert(registry.Key{Sort: bid, ID: bid.ID})
	return nil
}

// Cancel - withdraw a bid, returning the offered collateral for refund
func (bk *BidBook) Cancel(id objectid.ID) (*Bid, bool) {
	bid, ok := bk.bids[id]
	if !ok {
		return nil, false
	}
	bk.index.Remove(id)
	delete(bk.bids, id)
	return bid, true
}

// ReviveResult - how a revival distributed the settlement fund
type ReviveResult struct {
	Revived     bool
	NewOrders   []*callorder.Order
	FundPaidOut fixedpoint.Amount
	// Payouts - per-bidder share of the settlement fund, keyed by the bid
	// id (== the new call order's id). The caller credits each bidder's
	// backing-asset balance with its entry; the bid's original collateral
	// stays put as the new call order's backing.
	Payouts map[objectid.ID]fixedpoint.Amount
}

// TryRevive - spec.md §4.5 "Collateral bids (revival)": on each maintenance
// interval, if the aggregated best bids cover the outstanding debt at a
// price not worse than settlement_price·MCR/1000, the asset is revived:
// bids become call orders, the settlement fund is distributed to bidders
// pro-rata (by debt_covered), and the asset returns to normal operation.
func TryRevive(bk *BidBook, a *asset.Asset) ReviveResult {
	b := a.Bitasset
	if !b.Settlement.Active {
		return ReviveResult{}
	}

	floor := b.Settlement.SettlementPrice.MulRatio(b.CurrentFeed.MCR)

	var accepted []*Bid
	var coveredDebt fixedpoint.Amount
	outstanding := debtFromFund(b)

	bk.index.Walk(func(k registry.Key) bool {
		bid := k.Sort.(*Bid)
		if bid.InvSwanPrice(bk.collateralAsset, bk.debtAsset).LessThan(floor) {
			return false // remaining bids are worse; stop (index is sorted best-first)
		}
		accepted = append(accepted, bid)
		coveredDebt += bid.DebtCovered
		return coveredDebt < outstanding
	})

	if coveredDebt < outstanding {
		return ReviveResult{}
	}

	result := ReviveResult{Revived: true, Payouts: make(map[objectid.ID]fixedpoint.Amount)}
	fund := b.Settlement.SettlementFund
	for _, bid := range accepted {
		order := &callorder.Order{
			ID:              bid.ID,
			Owner:           bid.Bidder,
			DebtAsset:       bk.debtAsset,
			CollateralAsset: bk.collateralAsset,
			Collateral:      bid.CollateralOffered,
			Debt:            bid.DebtCovered,
		}
		result.NewOrders = append(result.NewOrders, order)
		payout := proRataPayout(bid.DebtCovered, outstanding, fund)
		result.Payouts[bid.ID] = payout
		result.FundPaidOut += payout
		bk.Cancel(bid.ID)
	}

	b.Settlement = asset.GlobalSettlement{}
	return result
}

func debtFromFund(b *asset.BitassetData) fixedpoint.Amount {
	if !b.Settlement.SettlementPrice.IsInvertible() {
		return 0
	}
	return b.Settlement.SettlementPrice.Invert().Mul(b.Settlement.SettlementFund)
}

func proRataPayout(share, total, fund fixedpoint.Amount) fixedpoint.Amount {
	if total <= 0 {
		return 0
	}
	return fixedpoint.Amount(int64(fund) * int64(share) / int64(total))
}
