// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package asset

import (
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
)

// DynamicData - spec.md §3 "Dynamic data": current supply, confidential
// supply, accumulated fees (in-asset), accumulated collateral-denominated
// fees, core-asset fee pool. Split from Asset/Options because it changes on
// nearly every operation while identity and options rarely do — the same
// split the teacher draws between static record fields and its counters.
type DynamicData struct {
	CurrentSupply             fixedpoint.Amount
	ConfidentialSupply        fixedpoint.Amount
	AccumulatedFees           fixedpoint.Amount // in this asset
	AccumulatedCollateralFees fixedpoint.Amount // in the backing asset, bitassets only
	FeePool                   fixedpoint.Amount // core asset
}

// Issue - current_supply must never exceed max_supply (spec.md §4.3,
// "debt ≤ max_supply; current_supply ... never exceeds max_supply")
func (d *DynamicData) Issue(amount fixedpoint.Amount, maxSupply fixedpoint.Amount) error {
	next, err := d.CurrentSupply.Add(amount)
	if nil != err {
		return err
	}
	if next > maxSupply {
		return fault.ErrMaxSupplyExceeded
	}
	d.CurrentSupply = next
	return nil
}

// Reserve - burn amount out of current_supply (asset_reserve, spec.md §6)
func (d *DynamicData) Reserve(amount fixedpoint.Amount) error {
	next, err := d.CurrentSupply.Sub(amount)
	if nil != err {
		return err
	}
	d.CurrentSupply = next
	return nil
}
