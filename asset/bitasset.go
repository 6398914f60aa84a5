// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package asset

import (
	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
)

// Feed - spec.md §3: one publisher's submission. MCR and MSSR are
// mandatory per-mille ratios; ICR is legal only post-BSIP77 (enforced by
// BitassetData.PublishFeed, whose caller passes whether that hardfork is
// active at the block time).
type Feed struct {
	SettlementPrice    fixedpoint.Price
	CoreExchangeRate   fixedpoint.Price
	MCR                uint16
	MSSR               uint16
	ICR                uint16 // 0 == absent
}

const (
	MinRatio = 1001
	MaxRatio = 32000
)

// ValidRatio - MCR, MSSR and, when present, ICR must fall in [1001, 32000]
// (spec.md §3, "Boundary behaviors" §8)
func ValidRatio(r uint16) bool {
	return r >= MinRatio && r <= MaxRatio
}

// Valid - structural validity of a single submitted feed, independent of
// hardfork gating: MCR, MSSR and any ICR within range, both prices
// invertible (whether ICR is legal at the block time is checked by the
// caller)
func (f Feed) Valid() bool {
	if !ValidRatio(f.MCR) || !ValidRatio(f.MSSR) {
		return false
	}
	if 0 != f.ICR && !ValidRatio(f.ICR) {
		return false
	}
	return f.SettlementPrice.IsInvertible() && f.CoreExchangeRate.IsInvertible()
}

// PublishedFeed - one entry in BitassetData's publisher map (spec.md §3:
// "map from publisher-account to (timestamp, feed)")
type PublishedFeed struct {
	Timestamp int64
	Feed      Feed
}

// GlobalSettlement - (settlement_price, settlement_fund) once an asset has
// been seized (spec.md §3, §4.3, §4.5)
type GlobalSettlement struct {
	Active          bool
	SettlementPrice fixedpoint.Price
	SettlementFund  fixedpoint.Amount
}

// IndividualSettlement - the continuously-accumulating settlement pool a
// prediction market or an individually-black-swanned position can redeem
// against without waiting for a force-settle delay
type IndividualSettlement struct {
	Debt fixedpoint.Amount
	Fund fixedpoint.Amount
}

// BitassetData - spec.md §3 "Bitasset data", present iff the owning Asset
// is market-issued.
type BitassetData struct {
	BackingAsset               objectid.ID
	FeedLifetimeSec            int64
	ForceSettleDelaySec        int64
	MaxForceSettlementVolume   uint16 // per-mille of current_supply, per interval
	MarginCallFeeRatio         uint16 // per-mille, BSIP74
	MinimumFeeds               int    // live-publisher floor below which there is no current feed
	HasICR                     bool   // ICR field is modeled at all (post-BSIP77 asset)
	IsPredictionMarket         bool

	Feeds         map[string]PublishedFeed // keyed by account.Account.String()
	FeedProducers []account.Account        // publishers permitted to submit a feed

	// Derived (re-computed by the feed package on every event listed in
	// spec.md §4.2; never written to directly by evaluators).
	MedianFeed                         Feed
	CurrentFeed                        Feed
	CurrentFeedPublicationTime         int64
	CurrentMaintenanceCollateralization fixedpoint.Price
	CurrentInitialCollateralization      fixedpoint.Price
	HasCurrentFeed                       bool

	Settlement           GlobalSettlement
	Individual           IndividualSettlement
	ForceSettledVolume   fixedpoint.Amount // reset each maintenance interval
}

// PublishFeed - validate and record one publisher's submission. Structural
// validity and ICR-hardfork gating only; the caller is responsible for the
// publisher-authorization check (spec.md §6: "publisher must be in the
// asset's feed-producer set (or be the issuer)") since that requires
// registry state this package does not hold.
func (b *BitassetData) PublishFeed(publisher account.Account, timestamp int64, feed Feed, icrActive bool) error {
	if 0 != feed.ICR && !icrActive {
		return fault.ErrICRNotYetActive
	}
	if !feed.Valid() {
		switch {
		case !ValidRatio(feed.MCR):
			return fault.ErrInvalidMCR
		case !ValidRatio(feed.MSSR):
			return fault.ErrInvalidMSSR
		case 0 != feed.ICR && !ValidRatio(feed.ICR):
			return fault.ErrInvalidICR
		default:
			return fault.ErrInvalidAmount
		}
	}
	if nil == b.Feeds {
		b.Feeds = make(map[string]PublishedFeed)
	}
	b.Feeds[publisher.String()] = PublishedFeed{Timestamp: timestamp, Feed: feed}
	return nil
}

// IsFeedProducer - publisher is permitted to submit a feed for this
// bitasset (spec.md §6: "publisher must be in the asset's feed-producer set
// (or be the issuer)"; the issuer-or-membership check itself is the
// caller's responsibility since issuer identity lives on Asset, not here).
func (b *BitassetData) IsFeedProducer(publisher account.Account) bool {
	for _, p := range b.FeedProducers {
		if p.Equal(&publisher) {
			return true
		}
	}
	return false
}

// HasValidFeed - a current feed has been derived and collateralization
// checks may be performed (spec.md §4.2 item 2: below minimum feeds, "the
// asset has no current feed")
func (b *BitassetData) HasValidFeed() bool {
	return b.HasCurrentFeed
}

// CollateralizationRatio - CR = collateral*settlement_price/debt, returned
// as the price collateral/debt (collateral in Base, debt in Quote) for the
// caller to compare against a trigger price (GLOSSARY "CR"). Kept as a
// price rather than a materialized ratio to stay in exact-integer
// cross-multiplication territory (spec.md §3).
func CollateralizationRatio(collateral, debt fixedpoint.Amount, backingAsset, debtAsset objectid.ID) fixedpoint.Price {
	return fixedpoint.Price{
		Base:  fixedpoint.AssetAmount{Amount: collateral, AssetID: backingAsset},
		Quote: fixedpoint.AssetAmount{Amount: debt, AssetID: debtAsset},
	}
}
