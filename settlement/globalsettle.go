// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settlement

import (
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/callorder"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
)

// TriggerGlobalSettlement - spec.md §4.5 "Global settlement": seize every
// live call order of a into settlement_fund at settlementPrice. Called
// either because callorder.CheckBlackSwan fired, or because the issuer
// invoked force_global_settle directly (spec.md §6). The asset cannot be
// globally settled twice.
func TriggerGlobalSettlement(a *asset.Asset, calls *callorder.Book, settlementPrice fixedpoint.Price) error {
	b := a.Bitasset
	if nil == b {
		return fault.ErrNotBitasset
	}
	if b.Settlement.Active {
		return fault.ErrAlreadyGloballySettled
	}

	var seized []*callorder.Order
	calls.Walk(func(o *callorder.Order) bool {
		callorder.Seize(o, b)
		seized = append(seized, o)
		return true
	})
	for _, o := range seized {
		calls.Remove(o.ID)
	}

	b.Settlement = asset.GlobalSettlement{
		Active:          true,
		SettlementPrice: settlementPrice,
		SettlementFund:  b.Settlement.SettlementFund,
	}
	return nil
}

// ForceSettleGlobal - spec.md §6 "asset_global_settle": issuer-invoked
// variant of TriggerGlobalSettlement, gated on the GlobalSettle permission
// rather than the black-swan detector.
func ForceSettleGlobal(a *asset.Asset, calls *callorder.Book, settlementPrice fixedpoint.Price) error {
	if !a.CanGlobalSettle() {
		return fault.ErrIssuerMismatch
	}
	return TriggerGlobalSettlement(a, calls, settlementPrice)
}

// RedeemFromFund - spec.md §4.5: "Subsequent holder force_settle operations
// redeem one-for-one from the fund at settlement_price with no delay."
func RedeemFromFund(b *asset.BitassetData, debtAmount fixedpoint.Amount) (collateral fixedpoint.Amount, err error) {
	if !b.Settlement.Active {
		return 0, fault.ErrNotGloballySettled
	}
	collateral = b.Settlement.SettlementPrice.Mul(debtAmount)
	if collateral > b.Settlement.SettlementFund {
		return 0, fault.ErrSettlementFundExhausted
	}
	b.Settlement.SettlementFund -= collateral
	return collateral, nil
}
