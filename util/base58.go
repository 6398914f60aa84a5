// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import "github.com/mr-tron/base58/base58"

// ToBase58 - convert a byte slice to its base58 text form
//
// used for the text representation of account identities
func ToBase58(data []byte) string {
	return base58.Encode(data)
}

// FromBase58 - convert base58 text back to a byte slice
//
// returns an empty slice on malformed input (matches the convention
// account.AccountFromBase58 relies on)
func FromBase58(s string) []byte {
	data, err := base58.Decode(s)
	if nil != err {
		return []byte{}
	}
	return data
}
