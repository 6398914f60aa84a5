// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package asset

// Permission - one bit of the issuer-permission / flags bitsets carried by
// AssetOptions (spec.md §3 "Options"). issuer_permissions names which bits
// the issuer may ever toggle; flags holds the currently-enabled subset.
type Permission uint16

const (
	ChargeMarketFee    Permission = 1 << iota // market fee is deducted on trades of this asset
	WhiteList                                 // recorded only; authgate applies the whitelist/blacklist authorities whether or not it is set
	OverrideAuthority                         // issuer may force transfers; no operation here acts on it
	TransferRestricted                        // only issuer may initiate transfers; transfer does not check it
	DisableForceSettle                        // force_settle rejected while set
	GlobalSettle                              // issuer may force_global_settle (required for prediction markets)
	DisableConfidential
	WitnessFedAsset
	CommitteeFedAsset
	LockMaxSupply    // max_supply may never be raised again; asset_update does not check it
	DisableNewSupply // no new supply while set; asset_issue does not check it
	DisableMCRUpdate
	DisableICRUpdate
	DisableMSSRUpdate
)

// Has - b is present in the bitset
func (p Permission) Has(b Permission) bool {
	return p&b != 0
}

// Set - bitset with b added
func (p Permission) Set(b Permission) Permission {
	return p | b
}

// Clear - bitset with b removed
func (p Permission) Clear(b Permission) Permission {
	return p &^ b
}
