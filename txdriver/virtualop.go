// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdriver

import (
	"sort"

	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/objectid"
)

// VirtualOpKind - names a synthetic side-effect (spec.md §4.6). These never
// appear in a submitted transaction body.
type VirtualOpKind string

const (
	VirtualFill             VirtualOpKind = "fill"
	VirtualMarginCall       VirtualOpKind = "margin_call"
	VirtualGlobalSettle     VirtualOpKind = "global_settle"
	VirtualForceSettle      VirtualOpKind = "force_settle"
	VirtualCollateralRevive VirtualOpKind = "collateral_bid_revive"
	VirtualFeeAccrual       VirtualOpKind = "fee_accrual"
)

// VirtualOp - one entry in the operation-result stream a caller observes
// alongside the triggering real operation (spec.md §4.6). Never appears in
// a submitted transaction body: Apply has no case for it, so submitting one
// fails like any unknown operation. There is no proposal operation, and
// fault.ErrProposalHasVirtualOp is not returned anywhere.
type VirtualOp struct {
	Kind            VirtualOpKind
	AffectedAccount account.Account
	OrderID         objectid.ID
	Detail          interface{}
}

// OrderVirtualOps - spec.md §4.6: deterministic sub-order by affected-account
// id, then by order id, within the same triggering operation.
func OrderVirtualOps(ops []VirtualOp) {
	sort.SliceStable(ops, func(i, j int) bool {
		ai, aj := ops[i].AffectedAccount.String(), ops[j].AffectedAccount.String()
		if ai != aj {
			return ai < aj
		}
		if ops[i].OrderID.Type != ops[j].OrderID.Type {
			return ops[i].OrderID.Type < ops[j].OrderID.Type
		}
		return ops[i].OrderID.Instance < ops[j].OrderID.Instance
	})
}
