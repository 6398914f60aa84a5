// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package hardfork centralizes the activation timestamps that gate
// conditional behaviour across the core, the way constants.go centralizes
// protocol-wide numbers in the teacher repo. Every branch that depends on
// "has this rule changed yet" queries a Timestamps value instead of a bare
// package-level constant, so historical blocks can replay under whichever
// schedule the collaborator supplies.
package hardfork

// Timestamps - the activation time (unix seconds) of every hardfork the
// core branches on. A threshold of 0 is never reached by any real block
// time and so disables that branch entirely; collaborators replaying
// historical chain state supply the real schedule.
type Timestamps struct {
	// Issue615 - fixes the feed_is_expired off-by-one (design notes,
	// Open Questions). Before this time the comparison sense is flipped
	// and must stay flipped.
	Issue615 int64

	// BackingAssetAuth - from this time, force_settle and bid_collateral
	// gate on the backing asset's authorization set too, not only the
	// bitasset's (spec.md §4.1, Open Questions).
	BackingAssetAuth int64

	// ICR - BSIP77: initial_collateral_ratio becomes a legal feed field
	// and a stricter mutation-time gate (spec.md §4.3).
	ICR int64

	// MarginCallFee - BSIP74: margin_call_fee_ratio becomes effective.
	MarginCallFee int64

	// PredictionMarketSwanExempt - prediction markets stop triggering
	// black swan; an offending feed is rejected/ignored instead
	// (spec.md §4.3).
	PredictionMarketSwanExempt int64

	// MarginCallPriceGuard - the matching engine stops executing a
	// margin call at a price worse than the maker's limit or the
	// max-short-squeeze guard (spec.md §4.4 item 3, scenario 2).
	MarginCallPriceGuard int64
}

// reached - true if t is at or after the threshold. A zero threshold never
// activates (see Timestamps doc).
func (h Timestamps) reached(threshold, t int64) bool {
	return threshold != 0 && t >= threshold
}

// IsIssue615Active - Issue615 fix is in effect at block time t
func (h Timestamps) IsIssue615Active(t int64) bool { return h.reached(h.Issue615, t) }

// IsBackingAssetAuthActive - backing-asset authorization check applies at t
func (h Timestamps) IsBackingAssetAuthActive(t int64) bool {
	return h.reached(h.BackingAssetAuth, t)
}

// IsICRActive - ICR/BSIP77 is in effect at block time t
func (h Timestamps) IsICRActive(t int64) bool { return h.reached(h.ICR, t) }

// IsMarginCallFeeActive - BSIP74 margin_call_fee_ratio is in effect at t
func (h Timestamps) IsMarginCallFeeActive(t int64) bool { return h.reached(h.MarginCallFee, t) }

// IsPredictionMarketSwanExemptActive - prediction markets are black-swan
// exempt at block time t
func (h Timestamps) IsPredictionMarketSwanExemptActive(t int64) bool {
	return h.reached(h.PredictionMarketSwanExempt, t)
}

// IsMarginCallPriceGuardActive - the matching engine refuses worse-than-maker
// margin-call fills at block time t
func (h Timestamps) IsMarginCallPriceGuardActive(t int64) bool {
	return h.reached(h.MarginCallPriceGuard, t)
}
