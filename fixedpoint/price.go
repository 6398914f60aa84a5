// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fixedpoint

import (
	"math/big"

	"github.com/bitmark-inc/margind/objectid"
)

// AssetAmount - an amount denominated in a specific asset; the building
// block of Price's numerator and denominator
type AssetAmount struct {
	Amount  Amount
	AssetID objectid.ID
}

// Price - an exact ratio of two asset amounts. Comparisons and products
// never use the reduced-fraction form directly: equality and ordering are
// defined on the cross product (Base.Amount*other.Quote.Amount vs
// Quote.Amount*other.Base.Amount) so that two non-canonical fractions that
// denote the same ratio still compare equal.
type Price struct {
	Base  AssetAmount // numerator
	Quote AssetAmount // denominator
}

// IsInvertible - both sides must be strictly positive
func (p Price) IsInvertible() bool {
	return p.Base.Amount > 0 && p.Quote.Amount > 0
}

// Invert - swap base and quote. It never panics and checks nothing; a
// caller that needs non-zero sides checks IsInvertible first
func (p Price) Invert() Price {
	return Price{Base: p.Quote, Quote: p.Base}
}

func widen(a, b Amount) *big.Int {
	return new(big.Int).Mul(big.NewInt(int64(a)), big.NewInt(int64(b)))
}

// Cmp - cross-multiplying comparator: returns -1, 0, +1 as p <, ==, > q.
// p and q must be expressed in the same (base-asset, quote-asset) pair;
// the caller is responsible for that — Cmp only performs the arithmetic.
//
// p.Base/p.Quote  vs  q.Base/q.Quote
// <=>  p.Base*q.Quote  vs  q.Base*p.Quote
func (p Price) Cmp(q Price) int {
	left := widen(p.Base.Amount, q.Quote.Amount)
	right := widen(q.Base.Amount, p.Quote.Amount)
	return left.Cmp(right)
}

// Equal - p and q denote the same ratio, independent of reduced form
func (p Price) Equal(q Price) bool {
	return 0 == p.Cmp(q)
}

// GreaterThan - strict >
func (p Price) GreaterThan(q Price) bool {
	return p.Cmp(q) > 0
}

// LessThan - strict <
func (p Price) LessThan(q Price) bool {
	return p.Cmp(q) < 0
}

// MulRatio - multiply a price by a per-mille ratio (e.g. MCR, MSSR, ICR),
// returning a new price with the same base/quote assets. Used to derive
// current_maintenance_collateralization and current_initial_collateralization
// from a feed's settlement_price.
func (p Price) MulRatio(perMille uint16) Price {
	num := new(big.Int).Mul(big.NewInt(int64(p.Base.Amount)), big.NewInt(int64(perMille)))
	num.Div(num, big.NewInt(1000))
	return Price{
		Base:  AssetAmount{Amount: Amount(num.Int64()), AssetID: p.Base.AssetID},
		Quote: p.Quote,
	}
}

// Mul - multiply an amount of the quote asset by this price, rounding the
// result toward zero (floor for a positive product), returning an amount
// of the base asset. This is the exact integer "amount * price_num / price_den"
// §4.4 item 4 requires for partial fills.
func (p Price) Mul(quoteAmount Amount) Amount {
	num := widen(quoteAmount, p.Base.Amount)
	den := big.NewInt(int64(p.Quote.Amount))
	result := new(big.Int).Div(num, den)
	return Amount(result.Int64())
}
