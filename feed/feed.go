// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package feed implements the median aggregation and derived trigger
// prices spec.md §4.2 describes: on every feed update, expiry sweep, or
// feed-producer-set change, drop stale publications, take the per-field
// median of what remains, and re-derive the maintenance/initial
// collateralization prices.
package feed

import (
	"sort"

	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/hardfork"
)

// isExpired - a publication at publishedAt is stale at now once it is at
// least lifetime seconds old. Before the Issue615 fix this comparison's sense was
// flipped (design notes, Open Questions): it treated publications *within*
// the lifetime window as expired and vice-versa. That bug must be
// reproduced exactly pre-hardfork so historical blocks replay.
func isExpired(now, publishedAt, lifetime int64, issue615Active bool) bool {
	age := now - publishedAt
	if issue615Active {
		return age >= lifetime
	}
	return age <= lifetime
}

// Recompute - re-derive median_feed, current_feed, current_feed_publication_time,
// current_maintenance_collateralization and current_initial_collateralization
// from b.Feeds, following spec.md §4.2 steps 1-5. now is the current block
// time; hardforks gates the Issue615 expiry-comparison fix, and b.HasICR
// decides whether ICR participates in the median at all.
func Recompute(b *asset.BitassetData, now int64, hardforks hardfork.Timestamps) {
	issue615 := hardforks.IsIssue615Active(now)

	live := make([]asset.PublishedFeed, 0, len(b.Feeds))
	for _, pf := range b.Feeds {
		if !isExpired(now, pf.Timestamp, b.FeedLifetimeSec, issue615) {
			live = append(live, pf)
		}
	}

	if len(live) < b.MinimumFeeds {
		b.HasCurrentFeed = false
		b.MedianFeed = asset.Feed{}
		b.CurrentFeed = asset.Feed{}
		b.CurrentFeedPublicationTime = 0
		b.CurrentMaintenanceCollateralization = fixedpoint.Price{}
		b.CurrentInitialCollateralization = fixedpoint.Price{}
		return
	}

	median := medianFeed(live, b.HasICR)
	oldest := oldestTimestamp(live)

	b.MedianFeed = median
	b.CurrentFeed = median
	b.CurrentFeedPublicationTime = oldest
	b.HasCurrentFeed = true
	b.CurrentMaintenanceCollateralization = median.SettlementPrice.MulRatio(median.MCR)
	if b.HasICR && median.ICR != 0 {
		b.CurrentInitialCollateralization = median.SettlementPrice.MulRatio(median.ICR)
	} else {
		b.CurrentInitialCollateralization = fixedpoint.Price{}
	}
}

func oldestTimestamp(live []asset.PublishedFeed) int64 {
	oldest := live[0].Timestamp
	for _, pf := range live[1:] {
		if pf.Timestamp < oldest {
			oldest = pf.Timestamp
		}
	}
	return oldest
}

// medianFeed - per-field median (spec.md §4.2 item 3): sort each component
// independently, take the sorted-middle (lower-middle for even counts).
// This is an explicit requirement, not an accident: a feed's settlement
// price, core exchange rate, MCR, MSSR and ICR do not all come from the
// same publisher in the result.
func medianFeed(live []asset.PublishedFeed, hasICR bool) asset.Feed {
	prices := make([]fixedpoint.Price, len(live))
	cers := make([]fixedpoint.Price, len(live))
	mcrs := make([]uint16, len(live))
	mssrs := make([]uint16, len(live))
	icrs := make([]uint16, 0, len(live))

	for i, pf := range live {
		prices[i] = pf.Feed.SettlementPrice
		cers[i] = pf.Feed.CoreExchangeRate
		mcrs[i] = pf.Feed.MCR
		mssrs[i] = pf.Feed.MSSR
		if hasICR && pf.Feed.ICR != 0 {
			icrs = append(icrs, pf.Feed.ICR)
		}
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })
	sort.Slice(cers, func(i, j int) bool { return cers[i].LessThan(cers[j]) })
	sort.Slice(mcrs, func(i, j int) bool { return mcrs[i] < mcrs[j] })
	sort.Slice(mssrs, func(i, j int) bool { return mssrs[i] < mssrs[j] })
	sort.Slice(icrs, func(i, j int) bool { return icrs[i] < icrs[j] })

	result := asset.Feed{
		SettlementPrice:  prices[lowerMiddle(len(prices))],
		CoreExchangeRate: cers[lowerMiddle(len(cers))],
		MCR:              mcrs[lowerMiddle(len(mcrs))],
		MSSR:             mssrs[lowerMiddle(len(mssrs))],
	}
	if len(icrs) > 0 {
		result.ICR = icrs[lowerMiddle(len(icrs))]
	}
	return result
}

// lowerMiddle - the index of the sorted-middle element, taking the
// lower-middle for even-length slices (spec.md §4.2 item 3, §9)
func lowerMiddle(n int) int {
	if n%2 == 1 {
		return n / 2
	}
	return n/2 - 1
}
