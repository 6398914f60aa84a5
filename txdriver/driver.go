// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdriver

import (
	"github.com/bitmark-inc/margind/account"
	"github.com/bitmark-inc/margind/asset"
	"github.com/bitmark-inc/margind/authgate"
	"github.com/bitmark-inc/margind/callorder"
	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/feed"
	"github.com/bitmark-inc/margind/fixedpoint"
	"github.com/bitmark-inc/margind/objectid"
	"github.com/bitmark-inc/margind/orderbook"
	"github.com/bitmark-inc/margind/registry"
	"github.com/bitmark-inc/margind/settlement"
	"github.com/bitmark-inc/margind/vesting"
)

// Result - the outcome of applying one operation: any synthetic virtual
// operations (spec.md §4.6) plus, for creating operations, the id assigned.
type Result struct {
	VirtualOps []VirtualOp
	CreatedID  objectid.ID
}

// Apply - evaluate one operation against store within session, at block
// time now. Every evaluator below follows the same shape the teacher's
// Transaction.Pack implementations do: validate structurally, validate
// against live state, mutate, return. Nothing here suspends (spec.md §5):
// every evaluator is total and bounded.
func Apply(store *Store, session *registry.Session, op interface{}, now int64) (Result, error) {
	switch o := op.(type) {
	case Transfer:
		return applyTransfer(store, o)
	case LimitOrderCreate:
		return applyLimitOrderCreate(store, session, o)
	case LimitOrderCancel:
		return applyLimitOrderCancel(store, o)
	case CallOrderUpdate:
		return applyCallOrderUpdate(store, o, now)
	case BidCollateral:
		return applyBidCollateral(store, session, o, now)
	case AssetCreate:
		return applyAssetCreate(store, session, o)
	case AssetUpdate:
		return applyAssetUpdate(store, o)
	case AssetUpdateBitasset:
		return applyAssetUpdateBitasset(store, o)
	case AssetUpdateIssuer:
		return applyAssetUpdateIssuer(store, o)
	case AssetPublishFeed:
		return applyAssetPublishFeed(store, o, now)
	case AssetUpdateFeedProducers:
		return applyAssetUpdateFeedProducers(store, o, now)
	case AssetSettle:
		return applyAssetSettle(store, session, o, now)
	case AssetGlobalSettle:
		return applyAssetGlobalSettle(store, o)
	case AssetIssue:
		return applyAssetIssue(store, o)
	case AssetReserve:
		return applyAssetReserve(store, o)
	case AssetFundFeePool:
		return applyAssetFundFeePool(store, o)
	case VestingBalanceCreate:
		return applyVestingBalanceCreate(store, session, o, now)
	case VestingBalanceWithdraw:
		return applyVestingBalanceWithdraw(store, o, now)
	case AccountWhitelist:
		return applyAccountWhitelist(store, o)
	default:
		return Result{}, fault.ErrObjectNotFound
	}
}

func applyTransfer(store *Store, o Transfer) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok {
		return Result{}, fault.ErrObjectNotFound
	}
	if err := authgate.Check(a, o.From); nil != err {
		return Result{}, err
	}
	if err := authgate.Check(a, o.To); nil != err {
		return Result{}, err
	}
	if err := store.debit(o.From, o.Asset, o.Amount); nil != err {
		return Result{}, err
	}
	if err := store.credit(o.To, o.Asset, o.Amount); nil != err {
		return Result{}, err
	}
	return Result{}, nil
}

func applyLimitOrderCreate(store *Store, session *registry.Session, o LimitOrderCreate) (Result, error) {
	sellAsset := o.SellPrice.Base.AssetID
	receiveAsset := o.SellPrice.Quote.AssetID
	if sellAsset == receiveAsset {
		return Result{}, fault.ErrIdenticalAssets
	}
	if o.ForSale <= 0 {
		return Result{}, fault.ErrInvalidAmount
	}
	if err := store.debit(o.Seller, sellAsset, o.ForSale); nil != err {
		return Result{}, err
	}

	id := session.NextID(objectid.LimitOrderType)
	order := &orderbook.Order{
		ID:         id,
		Seller:     o.Seller,
		ForSale:    o.ForSale,
		SellPrice:  o.SellPrice,
		Expiration: o.Expiration,
		FillOrKill: o.FillOrKill,
		Sequence:   id.Instance,
	}

	result, err := orderbook.Match(store.Orders(), order, marketFeePerMille(store, receiveAsset))
	if nil != err {
		store.credit(o.Seller, sellAsset, o.ForSale) // refund the escrow on fill-or-kill rejection
		return Result{}, err
	}

	var virtualOps []VirtualOp
	var paid fixedpoint.Amount
	for _, fill := range result.TakerFills {
		paid += fill.Paid
		store.credit(o.Seller, receiveAsset, fill.Received)
		accrueMarketFee(store, receiveAsset, fill.MarketFee)
		virtualOps = append(virtualOps, VirtualOp{Kind: VirtualFill, AffectedAccount: o.Seller, OrderID: id, Detail: fill})
	}
	for makerID, fill := range result.MakerFills {
		if maker, ok := store.Orders().Get(makerID); ok {
			store.credit(maker.Seller, sellAsset, fill.Received)
			accrueMarketFee(store, sellAsset, fill.MarketFee)
			virtualOps = append(virtualOps, VirtualOp{Kind: VirtualFill, AffectedAccount: maker.Seller, OrderID: makerID, Detail: fill})
		}
		store.Orders().Reduce(makerID, fill.Paid)
	}

	order.ForSale -= paid
	if order.ForSale > 0 {
		store.Orders().Insert(order)
	}

	OrderVirtualOps(virtualOps)
	return Result{VirtualOps: virtualOps, CreatedID: id}, nil
}

func applyLimitOrderCancel(store *Store, o LimitOrderCancel) (Result, error) {
	order, ok := store.Orders().Get(o.ID)
	if !ok {
		return Result{}, fault.ErrObjectNotFound
	}
	if !order.Seller.Equal(&o.Seller) {
		return Result{}, fault.ErrIssuerMismatch
	}
	store.Orders().Cancel(o.ID)
	store.credit(order.Seller, order.SellAsset(), order.ForSale)
	return Result{}, nil
}

func applyCallOrderUpdate(store *Store, o CallOrderUpdate, now int64) (Result, error) {
	a, ok := store.Asset(o.DebtAsset)
	if !ok || !a.IsMarketIssued() {
		return Result{}, fault.ErrNotBitasset
	}
	backing, _ := store.Asset(a.Bitasset.BackingAsset)
	// call_order_update gates on the backing asset at every block time; only
	// force_settle and bid_collateral skip it before BackingAssetAuth
	if err := authgate.Check(a, o.Owner); nil != err {
		return Result{}, err
	}
	if nil != backing {
		if err := authgate.Check(backing, o.Owner); nil != err {
			return Result{}, err
		}
	}

	key := callOrderKey(o.Owner, o.DebtAsset)
	book := store.CallBook(o.DebtAsset)
	var existing *callorder.Order
	if id, ok := store.callOrderIndex[key]; ok {
		existing, _ = book.Get(id)
	}

	next, err := callorder.Update(existing, o.Owner, o.DebtAsset, o.CollateralAsset, o.DeltaCollateral, o.DeltaDebt, o.TargetCollateralRatio)
	if nil != err {
		return Result{}, err
	}
	if nil == existing {
		next.ID = store.Registry.NextID(objectid.CallOrderType)
	}

	debtIncreasedOrCollateralDecreased := o.DeltaDebt > 0 || o.DeltaCollateral < 0
	if err := callorder.ValidateLiveInvariants(next, a, store.Hardforks, now, debtIncreasedOrCollateralDecreased); nil != err {
		return Result{}, err
	}

	if o.DeltaCollateral > 0 {
		if err := store.debit(o.Owner, o.CollateralAsset, o.DeltaCollateral); nil != err {
			return Result{}, err
		}
	} else if o.DeltaCollateral < 0 {
		store.credit(o.Owner, o.CollateralAsset, -o.DeltaCollateral)
	}
	if o.DeltaDebt > 0 {
		if err := a.Dynamic.Issue(o.DeltaDebt, a.Options.MaxSupply); nil != err {
			return Result{}, err
		}
		store.credit(o.Owner, o.DebtAsset, o.DeltaDebt)
	} else if o.DeltaDebt < 0 {
		if err := store.debit(o.Owner, o.DebtAsset, -o.DeltaDebt); nil != err {
			return Result{}, err
		}
		a.Dynamic.Reserve(-o.DeltaDebt)
	}

	if 0 == next.Debt {
		book.Remove(next.ID)
		delete(store.callOrderIndex, key)
	} else {
		book.Upsert(next)
		store.callOrderIndex[key] = next.ID
	}

	virtualOps := checkBlackSwan(store, a, now)

	OrderVirtualOps(virtualOps)
	return Result{VirtualOps: virtualOps, CreatedID: next.ID}, nil
}

func applyBidCollateral(store *Store, session *registry.Session, o BidCollateral, now int64) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok || !a.IsMarketIssued() {
		return Result{}, fault.ErrNotBitasset
	}
	backing, _ := store.Asset(a.Bitasset.BackingAsset)
	if err := authgate.CheckBitasset(a, backing, o.Bidder, now, store.Hardforks, true); nil != err {
		return Result{}, err
	}
	if err := store.debit(o.Bidder, a.Bitasset.BackingAsset, o.CollateralOffered); nil != err {
		return Result{}, err
	}

	id := session.NextID(objectid.CollateralBidType)
	bid := &settlement.Bid{ID: id, Bidder: o.Bidder, CollateralOffered: o.CollateralOffered, DebtCovered: o.DebtCovered}
	bk := store.BidBook(o.Asset, a.Bitasset.BackingAsset)
	if err := settlement.SubmitBid(bk, a.Bitasset, bid); nil != err {
		store.credit(o.Bidder, a.Bitasset.BackingAsset, o.CollateralOffered)
		return Result{}, err
	}
	return Result{CreatedID: id}, nil
}

func applyAssetCreate(store *Store, session *registry.Session, o AssetCreate) (Result, error) {
	if _, exists := store.symbols[o.Symbol]; exists {
		return Result{}, fault.ErrAssetAlreadyExists
	}
	id := session.NextID(objectid.AssetType)
	a := &asset.Asset{ID: id, Symbol: o.Symbol, Precision: o.Precision, Issuer: o.Issuer, Options: o.Options, Bitasset: o.Bitasset}
	if nil != a.Bitasset && a.Bitasset.BackingAsset.IsNil() {
		a.Bitasset.BackingAsset = store.CoreAsset
	}
	if err := a.ValidateCreate(); nil != err {
		return Result{}, err
	}
	store.symbols[o.Symbol] = id
	putAsset(session, a)
	return Result{CreatedID: id}, nil
}

func applyAssetUpdate(store *Store, o AssetUpdate) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok {
		return Result{}, fault.ErrObjectNotFound
	}
	if !a.Issuer.Equal(&o.Issuer) {
		return Result{}, fault.ErrIssuerMismatch
	}
	if !o.NewOptions.Valid() || o.NewOptions.IssuerPermissions != a.Options.IssuerPermissions {
		return Result{}, fault.ErrInvalidAssetOptions
	}
	a.Options = o.NewOptions
	return Result{}, nil
}

func applyAssetUpdateBitasset(store *Store, o AssetUpdateBitasset) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok || !a.IsMarketIssued() {
		return Result{}, fault.ErrNotBitasset
	}
	if !a.Issuer.Equal(&o.Issuer) {
		return Result{}, fault.ErrIssuerMismatch
	}
	a.Bitasset.FeedLifetimeSec = o.FeedLifetimeSec
	a.Bitasset.ForceSettleDelaySec = o.ForceSettleDelaySec
	a.Bitasset.MaxForceSettlementVolume = o.MaxForceSettlementVolume
	a.Bitasset.MarginCallFeeRatio = o.MarginCallFeeRatio
	return Result{}, nil
}

func applyAssetUpdateIssuer(store *Store, o AssetUpdateIssuer) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok {
		return Result{}, fault.ErrObjectNotFound
	}
	if !a.Issuer.Equal(&o.Issuer) {
		return Result{}, fault.ErrIssuerMismatch
	}
	a.Issuer = o.NewIssuer
	return Result{}, nil
}

func applyAssetPublishFeed(store *Store, o AssetPublishFeed, now int64) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok || !a.IsMarketIssued() {
		return Result{}, fault.ErrNotBitasset
	}
	b := a.Bitasset
	if !a.Issuer.Equal(&o.Publisher) && !b.IsFeedProducer(o.Publisher) {
		return Result{}, fault.ErrPublisherNotPermitted
	}
	icrActive := store.Hardforks.IsICRActive(now)
	if err := b.PublishFeed(o.Publisher, now, o.Feed, icrActive); nil != err {
		return Result{}, err
	}
	feed.Recompute(b, now, store.Hardforks)
	return Result{}, nil
}

func applyAssetUpdateFeedProducers(store *Store, o AssetUpdateFeedProducers, now int64) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok || !a.IsMarketIssued() {
		return Result{}, fault.ErrNotBitasset
	}
	if !a.Issuer.Equal(&o.Issuer) {
		return Result{}, fault.ErrIssuerMismatch
	}
	b := a.Bitasset
	b.FeedProducers = o.NewFeedProducers
	for publisherKey := range b.Feeds {
		if !producerKeyStillValid(b, publisherKey) {
			delete(b.Feeds, publisherKey)
		}
	}
	feed.Recompute(b, now, store.Hardforks)
	return Result{}, nil
}

func producerKeyStillValid(b *asset.BitassetData, publisherKey string) bool {
	for _, p := range b.FeedProducers {
		if p.String() == publisherKey {
			return true
		}
	}
	return false
}

func applyAssetSettle(store *Store, session *registry.Session, o AssetSettle, now int64) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok || !a.IsMarketIssued() {
		return Result{}, fault.ErrNotBitasset
	}
	backing, _ := store.Asset(a.Bitasset.BackingAsset)
	if err := authgate.CheckBitasset(a, backing, o.Owner, now, store.Hardforks, true); nil != err {
		return Result{}, err
	}
	if err := store.debit(o.Owner, o.Asset, o.Balance); nil != err {
		return Result{}, err
	}

	// spec.md §4.5: "Subsequent holder force_settle operations redeem
	// one-for-one from the fund at settlement_price with no delay" once
	// the asset is already globally settled.
	if a.Bitasset.Settlement.Active {
		collateral, err := settlement.RedeemFromFund(a.Bitasset, o.Balance)
		if nil != err {
			store.credit(o.Owner, o.Asset, o.Balance)
			return Result{}, err
		}
		store.credit(o.Owner, a.Bitasset.BackingAsset, collateral)
		return Result{}, nil
	}

	q := store.ForceSettleQueue(o.Asset)
	req, err := settlement.Submit(q, a, o.Owner, session.NextID(objectid.ForceSettlementType), o.Balance, now)
	if nil != err {
		store.credit(o.Owner, o.Asset, o.Balance)
		return Result{}, err
	}
	return Result{CreatedID: req.ID}, nil
}

func applyAssetGlobalSettle(store *Store, o AssetGlobalSettle) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok || !a.IsMarketIssued() {
		return Result{}, fault.ErrNotBitasset
	}
	if !a.Issuer.Equal(&o.Issuer) {
		return Result{}, fault.ErrIssuerMismatch
	}
	book := store.CallBook(o.Asset)
	if err := settlement.ForceSettleGlobal(a, book, o.SettlementPrice); nil != err {
		return Result{}, err
	}
	return Result{VirtualOps: []VirtualOp{{Kind: VirtualGlobalSettle, AffectedAccount: o.Issuer, OrderID: o.Asset}}}, nil
}

func applyAssetIssue(store *Store, o AssetIssue) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok {
		return Result{}, fault.ErrObjectNotFound
	}
	if a.IsMarketIssued() {
		return Result{}, fault.ErrIssueNonMarketIssued
	}
	if !a.Issuer.Equal(&o.Issuer) {
		return Result{}, fault.ErrIssuerMismatch
	}
	if err := authgate.Check(a, o.IssueToAccount); nil != err {
		return Result{}, err
	}
	if err := a.Dynamic.Issue(o.Amount, a.Options.MaxSupply); nil != err {
		return Result{}, err
	}
	store.credit(o.IssueToAccount, o.Asset, o.Amount)
	return Result{}, nil
}

func applyAssetReserve(store *Store, o AssetReserve) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok {
		return Result{}, fault.ErrObjectNotFound
	}
	if a.IsMarketIssued() {
		return Result{}, fault.ErrReserveNonMarketIssued
	}
	if err := store.debit(o.Owner, o.Asset, o.Amount); nil != err {
		return Result{}, err
	}
	if err := a.Dynamic.Reserve(o.Amount); nil != err {
		store.credit(o.Owner, o.Asset, o.Amount)
		return Result{}, err
	}
	return Result{}, nil
}

func applyAssetFundFeePool(store *Store, o AssetFundFeePool) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok {
		return Result{}, fault.ErrObjectNotFound
	}
	if err := store.debit(o.Funder, store.CoreAsset, o.Amount); nil != err {
		return Result{}, err
	}
	a.Dynamic.FeePool += o.Amount
	return Result{}, nil
}

func applyVestingBalanceCreate(store *Store, session *registry.Session, o VestingBalanceCreate, now int64) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok {
		return Result{}, fault.ErrObjectNotFound
	}
	if err := authgate.Check(a, o.Owner); nil != err {
		return Result{}, err
	}
	if err := store.debit(o.Creator, o.Asset, o.Amount); nil != err {
		return Result{}, err
	}
	id := session.NextID(objectid.VestingBalanceType)
	b := &vesting.Balance{ID: id, Owner: o.Owner, Asset: o.Asset, Balance: o.Amount, VestingSeconds: o.VestingSeconds, LastUpdate: now}
	store.vestingBalances[id] = b
	return Result{CreatedID: id}, nil
}

func applyVestingBalanceWithdraw(store *Store, o VestingBalanceWithdraw, now int64) (Result, error) {
	b, ok := store.VestingBalance(o.ID)
	if !ok {
		return Result{}, fault.ErrObjectNotFound
	}
	if !b.Owner.Equal(&o.Owner) {
		return Result{}, fault.ErrIssuerMismatch
	}
	if err := vesting.Withdraw(b, o.Amount, now); nil != err {
		return Result{}, err
	}
	store.credit(o.Owner, b.Asset, o.Amount)
	return Result{}, nil
}

func applyAccountWhitelist(store *Store, o AccountWhitelist) (Result, error) {
	a, ok := store.Asset(o.Asset)
	if !ok {
		return Result{}, fault.ErrObjectNotFound
	}
	if !a.Issuer.Equal(&o.Issuer) {
		return Result{}, fault.ErrIssuerMismatch
	}
	a.Options.WhitelistAuthorities = removeAccount(a.Options.WhitelistAuthorities, o.Target)
	a.Options.BlacklistAuthorities = removeAccount(a.Options.BlacklistAuthorities, o.Target)
	if o.Listing&WhiteListed != 0 {
		a.Options.WhitelistAuthorities = append(a.Options.WhitelistAuthorities, o.Target)
	}
	if o.Listing&BlackListed != 0 {
		a.Options.BlacklistAuthorities = append(a.Options.BlacklistAuthorities, o.Target)
	}
	return Result{}, nil
}

func removeAccount(list []account.Account, target account.Account) []account.Account {
	out := list[:0:0]
	for _, a := range list {
		if !a.Equal(&target) {
			out = append(out, a)
		}
	}
	return out
}

func marketFeePerMille(store *Store, assetID objectid.ID) uint16 {
	a, ok := store.Asset(assetID)
	if !ok || !a.ChargesMarketFee() {
		return 0
	}
	return a.Options.MarketFeePerMille
}

func accrueMarketFee(store *Store, assetID objectid.ID, fee fixedpoint.Amount) {
	if fee <= 0 {
		return
	}
	a, ok := store.Asset(assetID)
	if !ok {
		return
	}
	a.Dynamic.AccumulatedFees += fee
}
