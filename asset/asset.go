// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package asset holds the data model spec.md §3 describes for assets:
// identity, options, dynamic supply/fee state, and bitasset metadata. It
// carries no behaviour of its own beyond the invariants that are purely
// local to one record — the evaluators that mutate these records live in
// callorder, settlement, feed and txdriver.
package asset

import (
	"strings"

	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
)

// Symbol - a unique asset ticker, upper-case ASCII with optional dotted
// sub-namespaces (e.g. "USDBIT", "GDEX.BTC").
type Symbol string

// Valid - the teacher's symbol-validation style: length and charset checks,
// no lookup (uniqueness is a registry-level concern, not a record-level one)
func (s Symbol) Valid() bool {
	if len(s) < 3 || len(s) > 16 {
		return false
	}
	for _, seg := range strings.Split(string(s), ".") {
		if len(seg) < 2 {
			return false
		}
		for _, r := range seg {
			if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
				return false
			}
		}
	}
	return true
}

// Options - spec.md §3 "Options": max supply, per-mille market fee,
// issuer-permission bitset, flags bitset, core exchange rate.
type Options struct {
	MaxSupply         fixedpoint.Amount
	MarketFeePerMille uint16
	IssuerPermissions Permission
	Flags             Permission
	CoreExchangeRate  fixedpoint.Price

	WhitelistAuthorities []account.Account
	BlacklistAuthorities []account.Account
}

// Valid - bounds that hold regardless of bitasset-ness
func (o Options) Valid() bool {
	if o.MarketFeePerMille > 1000 {
		return false
	}
	if !o.MaxSupply.Valid() || o.MaxSupply == 0 {
		return false
	}
	// flags may only set bits the issuer is permitted to toggle
	return o.Flags&^o.IssuerPermissions == 0
}

// Asset - identity (spec.md §3): unique ticker, byte precision, immutable
// issuer-at-creation, plus its mutable Options and DynamicData, and its
// BitassetData when the asset is market-issued.
type Asset struct {
	ID        objectid.ID
	Symbol    Symbol
	Precision uint8 // number of digits after the decimal point
	Issuer    account.Account

	Options Options
	Dynamic DynamicData

	// Bitasset is non-nil iff this asset is market-issued (spec.md §3
	// "Bitasset data (present iff market-issued)").
	Bitasset *BitassetData
}

// IsMarketIssued - true iff this asset carries bitasset metadata
func (a *Asset) IsMarketIssued() bool {
	return nil != a.Bitasset
}

// IsPredictionMarket - a restricted bitasset variant (spec.md §1 item 2)
func (a *Asset) IsPredictionMarket() bool {
	return nil != a.Bitasset && a.Bitasset.IsPredictionMarket
}

// CanForceSettle - DisableForceSettle is not set (per asset_object::can_force_settle)
func (a *Asset) CanForceSettle() bool {
	return !a.Options.Flags.Has(DisableForceSettle)
}

// CanGlobalSettle - issuer holds the GlobalSettle permission
func (a *Asset) CanGlobalSettle() bool {
	return a.Options.IssuerPermissions.Has(GlobalSettle)
}

// ChargesMarketFee - ChargeMarketFee flag is set
func (a *Asset) ChargesMarketFee() bool {
	return a.Options.Flags.Has(ChargeMarketFee)
}

// ValidateCreate - the asset_create structural constraints: a well-formed
// symbol, valid options, a prediction market requires the global_settle
// permission, and a bitasset may not back itself. ICR legality post-BSIP77
// is checked by the caller, which knows the block time. Combinations of
// permission and flag bits are not checked here.
func (a *Asset) ValidateCreate() error {
	if !a.Symbol.Valid() {
		return fault.ErrInvalidSymbol
	}
	if !a.Options.Valid() {
		return fault.ErrInvalidAssetOptions
	}
	if a.IsPredictionMarket() {
		if !a.CanGlobalSettle() {
			return fault.ErrPredictionMarketRequiresGlobalSettle
		}
		if a.Bitasset.BackingAsset == a.ID {
			return fault.ErrBitassetBacksItself
		}
	}
	if nil != a.Bitasset && a.Bitasset.BackingAsset == a.ID {
		return fault.ErrBitassetBacksItself
	}
	return nil
}
