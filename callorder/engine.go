// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package callorder

import (
	"math/big"

	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/hardfork"
	"github.com/bitmark-inc/margind/objectid"
)

// Update - spec.md §4.3 "Operation: call_order_update" steps 2-3, 6 (the
// authorization gate of step 1 and the matching attempt of step 5 are the
// caller's responsibility, since they need the registry/order book this
// package does not own). Applies delta_collateral/delta_debt to an existing
// order (or creates one) and checks the structural constraints that do not
// require a live feed.
func Update(existing *Order, owner account.Account, debtAsset, collateralAsset objectid.ID, deltaCollateral, deltaDebt fixedpoint.Amount, targetRatio uint16) (*Order, error) {
	if targetRatio != 0 && targetRatio > 65535 {
		return nil, fault.ErrInvalidTargetRatio
	}

	// Work on a copy until every check below passes: existing is a live
	// pointer already sitting in a callorder.Book, and a rejected update
	// must leave it untouched rather than half-applied.
	var o *Order
	if nil == existing {
		o = &Order{Owner: owner, DebtAsset: debtAsset, CollateralAsset: collateralAsset}
	} else {
		clone := *existing
		o = &clone
	}

	collateral, err := addSigned(o.Collateral, deltaCollateral)
	if nil != err {
		return nil, err
	}
	debt, err := addSigned(o.Debt, deltaDebt)
	if nil != err {
		return nil, err
	}

	if 0 == debt {
		if collateral != 0 {
			return nil, fault.ErrPartialCoverWithZeroDebt
		}
		o.Collateral, o.Debt, o.TargetCollateralRatio = 0, 0, 0
		return o, nil
	}

	if 0 == collateral {
		return nil, fault.ErrInsufficientCollateral
	}

	o.Collateral = collateral
	o.Debt = debt
	o.TargetCollateralRatio = targetRatio
	return o, nil
}

func addSigned(base, delta fixedpoint.Amount) (fixedpoint.Amount, error) {
	result := base + delta
	if result < 0 {
		return 0, fault.ErrNegativeDelta
	}
	return result, nil
}

// CheckBlackSwan - spec.md §4.3 "Black-swan trigger": the worst live call
// order cannot fill at max_short_squeeze_price against the best available
// counter-order. hasBestCounter/bestCounterPrice describe the best limit
// order offering the debt asset for the collateral asset, if any (the
// caller supplies this from the order book, which this package does not
// own so as to avoid an import cycle with orderbook's own use of
// callorder-adjacent pricing).
func CheckBlackSwan(worst *Order, b *asset.BitassetData, hasBestCounter bool, bestCounterPrice fixedpoint.Price) bool {
	if !b.HasValidFeed() {
		return false
	}
	maxSqueeze := MaxShortSqueezePrice(b)
	if worst.CollateralizationPrice().GreaterThan(maxSqueeze) {
		return false
	}
	if !hasBestCounter {
		return true
	}
	// the counter order must be willing to give at least max_short_squeeze_price
	// worth of collateral per unit debt; anything worse cannot absorb the swan
	return bestCounterPrice.LessThan(maxSqueeze)
}

// SeizurePrice - the price at which a black-swanned order's collateral is
// converted into the settlement fund: the feed's settlement_price itself,
// so the fund exactly covers the debt it backs at settlement_price
// (spec.md §4.3: "a seizure price that guarantees the fund covers the
// outstanding debt at settlement_price").
func SeizurePrice(b *asset.BitassetData) fixedpoint.Price {
	return b.CurrentFeed.SettlementPrice
}

// Seize - convert one call order's collateral into settlement_fund at the
// feed's settlement_price, returning the collateral amount seized. Used by
// the settlement package when a black swan (or an issuer-invoked
// force_global_settle) converts every call order of an asset.
func Seize(o *Order, b *asset.BitassetData) fixedpoint.Amount {
	seized := o.Collateral
	o.Collateral, o.Debt = 0, 0
	b.Settlement.SettlementFund += seized
	return seized
}

// MarginCallOrderPrice - spec.md §4.4 item 2:
// "margin_call_order_price = settlement_price · MSSR / 1000 (possibly
// tightened by the margin-call fee ratio)". Tightening moves the effective
// price against the margin-called side by the fee ratio, so the fee is
// funded out of the squeeze margin rather than from the counterparty.
//
// Before MarginCallPriceGuard activates, the matching engine carries no
// squeeze floor at all: a margin call could execute against any crossing
// counter-order down to the order's own CollateralizationPrice, squeezing
// the borrower past the MSSR protection the guard later enforces
// (spec.md §8 scenario 2, hardfork/hardfork.go's MarginCallPriceGuard doc).
func MarginCallOrderPrice(o *Order, b *asset.BitassetData, hardforks hardfork.Timestamps, blockTime int64) fixedpoint.Price {
	if !hardforks.IsMarginCallPriceGuardActive(blockTime) {
		return o.CollateralizationPrice()
	}
	price := MaxShortSqueezePrice(b)
	if !hardforks.IsMarginCallFeeActive(blockTime) || 0 == b.MarginCallFeeRatio {
		return price
	}
	return price.MulRatio(1000 - b.MarginCallFeeRatio)
}

// MaxDebtToCover - spec.md §4.3 item 6 / SPEC_FULL.md "target_collateral_ratio
// partial margin-call capping": when a call order carries a target ratio, a
// margin call feeds it only enough debt-covering collateral to reach that
// ratio rather than liquidating it outright.
//
// Solving
// (collateral - debt_to_cover*matchPrice) / (debt - debt_to_cover) == target
// for debt_to_cover and cross-multiplying each price's Base and Quote gives
// an integer-exact
//
//	debt_to_cover = matchPrice.Quote*(target.Base*debt - target.Quote*collateral) /
//	                (target.Base*matchPrice.Quote - matchPrice.Base*target.Quote)
//
// rounded down. matchPrice need not share target's Quote (before
// MarginCallPriceGuard it is the order's own CollateralizationPrice). When
// the order already meets the target, or matchPrice is not below the target
// (so covering debt cannot raise the ratio), the whole debt is returned.
func MaxDebtToCover(o *Order, b *asset.BitassetData, matchPrice fixedpoint.Price) fixedpoint.Amount {
	if 0 == o.TargetCollateralRatio {
		return o.Debt
	}
	target := b.CurrentFeed.SettlementPrice.MulRatio(o.TargetCollateralRatio)

	num := new(big.Int).Mul(big.NewInt(int64(target.Base.Amount)), big.NewInt(int64(o.Debt)))
	num.Sub(num, new(big.Int).Mul(big.NewInt(int64(target.Quote.Amount)), big.NewInt(int64(o.Collateral))))
	num.Mul(num, big.NewInt(int64(matchPrice.Quote.Amount)))

	den := new(big.Int).Mul(big.NewInt(int64(target.Base.Amount)), big.NewInt(int64(matchPrice.Quote.Amount)))
	den.Sub(den, new(big.Int).Mul(big.NewInt(int64(matchPrice.Base.Amount)), big.NewInt(int64(target.Quote.Amount))))

	if den.Sign() <= 0 || num.Sign() <= 0 {
		return o.Debt
	}
	cover := fixedpoint.Amount(new(big.Int).Div(num, den).Int64())
	if cover > o.Debt || cover < 0 {
		return o.Debt
	}
	return cover
}
