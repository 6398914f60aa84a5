// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixedpoint provides the integer amount and exact-ratio price
// arithmetic every other package builds on. There is no floating point
// anywhere in this package: amounts are int64 in the smallest unit of an
// asset, and prices are compared/multiplied through 128-bit widened
// cross-products via math/big so that results never depend on rounding
// mode or platform float behaviour.
package fixedpoint

import "github.com/bitmark-inc/margind/fault"

// MaxShareSupply - the upper bound on any asset's current_supply or any
// single balance/collateral/debt amount
const MaxShareSupply = 1000000000000000 // 10^15, matches graphene chains' share cap

// Amount - smallest-unit integer amount of some asset; never negative
// on an entity that represents a holding (debt, collateral, balance)
type Amount int64

// Valid - an amount usable as a balance/debt/collateral must sit in [0, MaxShareSupply]
func (a Amount) Valid() bool {
	return a >= 0 && a <= MaxShareSupply
}

// Add - checked addition; returns an error instead of silently wrapping
func (a Amount) Add(b Amount) (Amount, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fault.ErrNegativeDelta
	}
	return sum, nil
}

// Sub - checked subtraction; fails if the result would be negative
func (a Amount) Sub(b Amount) (Amount, error) {
	if b > a {
		return 0, fault.ErrNegativeDelta
	}
	return a - b, nil
}
