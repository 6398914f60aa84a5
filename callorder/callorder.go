// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package callorder implements the collateralized-debt state machine of
// spec.md §4.3: borrow/cover validation, margin-call detection and
// execution against the order book, and the black-swan trigger into global
// settlement.
package callorder

import (
	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/hardfork"
	"github.com/bitmark-inc/margind/objectid"
)

// Order - spec.md §3 "Call order": one per (owner, debt-asset).
type Order struct {
	ID                    objectid.ID
	Owner                 account.Account
	DebtAsset             objectid.ID
	CollateralAsset       objectid.ID
	Collateral            fixedpoint.Amount
	Debt                  fixedpoint.Amount
	TargetCollateralRatio uint16 // 0 == disabled
}

// CollateralizationPrice - collateral/debt expressed as a Price so it can
// be compared against current_maintenance_collateralization etc. with
// exact cross-multiplication (GLOSSARY "CR").
func (o *Order) CollateralizationPrice() fixedpoint.Price {
	return fixedpoint.Price{
		Base:  fixedpoint.AssetAmount{Amount: o.Collateral, AssetID: o.CollateralAsset},
		Quote: fixedpoint.AssetAmount{Amount: o.Debt, AssetID: o.DebtAsset},
	}
}

// IsMarginCalled - collateral/debt is at or below the maintenance ratio
// (spec.md §8 "a call at exactly CR = MCR is in margin-call territory ...
// strict >" means the *live* invariant requires strict >, so margin-call
// territory is the complement: CR <= current_maintenance_collateralization).
func (o *Order) IsMarginCalled(b *asset.BitassetData) bool {
	if !b.HasValidFeed() {
		return false
	}
	return !o.CollateralizationPrice().GreaterThan(b.CurrentMaintenanceCollateralization)
}

// MaxShortSqueezePrice - settlement_price * MSSR / 1000 (GLOSSARY "MSSR",
// spec.md §4.3 "Black-swan trigger")
func MaxShortSqueezePrice(b *asset.BitassetData) fixedpoint.Price {
	return b.CurrentFeed.SettlementPrice.MulRatio(b.CurrentFeed.MSSR)
}

// ValidateLiveInvariants - spec.md §4.3 "Invariants for a live call order",
// checked after any mutation.
func ValidateLiveInvariants(o *Order, a *asset.Asset, hardforks hardfork.Timestamps, blockTime int64, debtIncreasedOrCollateralDecreased bool) error {
	b := a.Bitasset
	if a.IsPredictionMarket() {
		if o.Collateral != o.Debt {
			return fault.ErrPredictionMarketMismatch
		}
		return nil
	}

	if b.HasValidFeed() && !o.CollateralizationPrice().GreaterThan(b.CurrentMaintenanceCollateralization) {
		return fault.ErrBelowMaintenanceRatio
	}

	if hardforks.IsICRActive(blockTime) && debtIncreasedOrCollateralDecreased && b.HasICR && b.HasValidFeed() {
		if o.CollateralizationPrice().LessThan(b.CurrentInitialCollateralization) {
			return fault.ErrBelowInitialRatio
		}
	}

	if o.Debt > a.Options.MaxSupply {
		return fault.ErrMaxSupplyExceeded
	}

	return nil
}
