// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package callorder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/margind/callorder"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
)

func order(instance uint64, collateral, debt int64) *callorder.Order {
	return &callorder.Order{
		ID:              objectid.ID{Type: objectid.CallOrderType, Instance: instance},
		DebtAsset:       usd,
		CollateralAsset: core,
		Collateral:      fixedpoint.Amount(collateral),
		Debt:            fixedpoint.Amount(debt),
	}
}

func TestBookWorstIsLowestCR(t *testing.T) {
	bk := callorder.NewBook()
	bk.Upsert(order(1, 200, 100)) // CR 2.0
	bk.Upsert(order(2, 150, 100)) // CR 1.5
	bk.Upsert(order(3, 300, 100)) // CR 3.0

	worst, ok := bk.Worst()
	require.True(t, ok)
	assert.Equal(t, uint64(2), worst.ID.Instance)
}

func TestBookRemove(t *testing.T) {
	bk := callorder.NewBook()
	bk.Upsert(order(1, 200, 100))
	bk.Remove(objectid.ID{Type: objectid.CallOrderType, Instance: 1})
	assert.Equal(t, 0, bk.Len())
}
