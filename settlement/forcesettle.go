// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package settlement implements spec.md §4.5: the force-settle delayed
// queue with its per-maintenance-interval volume cap, global settlement
// (black-swan seizure or issuer-invoked), and collateral-bid revival.
// Generalized from the teacher's reservoir package: the same "enqueue with
// a maturation time, sweep pops matured entries" shape as
// reservoir/expiry.go, but the sweep is driven synchronously from block
// post-processing (maintenance), never a free-running goroutine.
package settlement

import (
	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/callorder"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
)

// Request - spec.md §3 "Force-settle request"
type Request struct {
	ID             objectid.ID
	Owner          account.Account
	Asset          objectid.ID
	Balance        fixedpoint.Amount
	SettlementDate int64
}

// Queue - the delayed force-settle escrow for one bitasset, ordered by
// settlement_date ascending (the same "matured entries pop off the front"
// shape the teacher's reservoir uses).
type Queue struct {
	pending []*Request
}

// NewQueue - an empty force-settle queue
func NewQueue() *Queue {
	return &Queue{}
}

// Submit - spec.md §4.5 "Force settle": escrow balance for delaySec, or
// reject if the asset cannot currently accept force settlement.
func Submit(q *Queue, a *asset.Asset, owner account.Account, id objectid.ID, balance fixedpoint.Amount, now int64) (*Request, error) {
	if !a.IsMarketIssued() {
		return nil, fault.ErrNotBitasset
	}
	if a.Bitasset.Settlement.Active {
		return nil, fault.ErrAlreadyGloballySettled
	}
	if !a.CanForceSettle() {
		return nil, fault.ErrForceSettleDisabled
	}
	req := &Request{
		ID:             id,
		Owner:          owner,
		Asset:          a.ID,
		Balance:        balance,
		SettlementDate: now + a.Bitasset.ForceSettleDelaySec,
	}
	q.pending = append(q.pending, req)
	return req, nil
}

// Matured - every request whose settlement_date has passed, oldest first,
// still respecting insertion order for equal dates (FIFO, matching the
// teacher's reservoir release order)
func (q *Queue) Matured(now int64) []*Request {
	var out []*Request
	for _, r := range q.pending {
		if now >= r.SettlementDate {
			out = append(out, r)
		}
	}
	return out
}

// remove - drop a request from the pending queue once it releases
func (q *Queue) remove(id objectid.ID) {
	for i, r := range q.pending {
		if r.ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// Released - one force-settlement's executed result
type Released struct {
	Request   *Request
	Settled   fixedpoint.Amount // debt-asset amount burned
	Collateral fixedpoint.Amount // collateral-asset amount paid to the owner
}

// ReleaseMatured - spec.md §4.5: release requests whose delay has elapsed,
// up to max_force_settlement_volume of current_supply per maintenance
// interval (the per-interval cap resets via ResetInterval, called once per
// maintenance event by txdriver.RunMaintenance). Executes against the
// least-collateralized call orders at the feed's settlement_price.
func ReleaseMatured(q *Queue, a *asset.Asset, calls *callorder.Book, now int64) []Released {
	b := a.Bitasset
	var released []Released

	for _, r := range q.Matured(now) {
		if b.Settlement.Active {
			// once globally settled, redemption is immediate and delay-free
			// via RedeemFromFund instead; a request already in this queue
			// from before global settlement still drains here at the
			// settlement price with no further volume cap (spec.md §4.5).
			settled, collateral := redeemAtPrice(r.Balance, b.Settlement.SettlementPrice)
			b.Settlement.SettlementFund -= collateral
			released = append(released, Released{Request: r, Settled: settled, Collateral: collateral})
			q.remove(r.ID)
			continue
		}

		capacity := intervalCapacity(a)
		if capacity <= 0 {
			continue
		}
		amount := r.Balance
		if amount > capacity {
			amount = capacity
		}

		settled, collateral := settleAgainstCalls(calls, b, amount)
		b.ForceSettledVolume += settled
		released = append(released, Released{Request: r, Settled: settled, Collateral: collateral})

		if settled >= r.Balance {
			q.remove(r.ID)
		} else {
			r.Balance -= settled
			r.SettlementDate = now // remainder retries next interval, not re-delayed
		}
	}
	return released
}

// ResetInterval - called once per maintenance interval (spec.md §4.5,
// §9 "maintenance_interval")
func ResetInterval(b *asset.BitassetData) {
	b.ForceSettledVolume = 0
}

func intervalCapacity(a *asset.Asset) fixedpoint.Amount {
	b := a.Bitasset
	volumeCap := fixedpoint.Amount(int64(a.Dynamic.CurrentSupply) * int64(b.MaxForceSettlementVolume) / 1000)
	remaining := volumeCap - b.ForceSettledVolume
	if remaining < 0 {
		return 0
	}
	return remaining
}

func redeemAtPrice(debtAmount fixedpoint.Amount, settlementPrice fixedpoint.Price) (settled, collateral fixedpoint.Amount) {
	return debtAmount, settlementPrice.Mul(debtAmount)
}

// settleAgainstCalls - burn amount of debt against the least-collateralized
// live call orders at the feed's current settlement_price, paying out
// collateral in proportion (spec.md §4.5: "settlement executes against the
// least-collateralized call orders at the current feed's settlement price")
func settleAgainstCalls(calls *callorder.Book, b *asset.BitassetData, amount fixedpoint.Amount) (settled, collateral fixedpoint.Amount) {
	remaining := amount
	for remaining > 0 {
		worst, ok := calls.Worst()
		if !ok {
			break
		}
		take := worst.Debt
		if take > remaining {
			take = remaining
		}
		paidCollateral := b.CurrentFeed.SettlementPrice.Mul(take)
		if paidCollateral > worst.Collateral {
			paidCollateral = worst.Collateral
		}
		worst.Debt -= take
		worst.Collateral -= paidCollateral
		settled += take
		collateral += paidCollateral
		remaining -= take
		if worst.Debt <= 0 {
			calls.Remove(worst.ID)
		} else {
			calls.Upsert(worst)
		}
	}
	return settled, collateral
}
