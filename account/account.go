// Copyright (c) 2014-2017 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package account represents the opaque owner identity threaded through
// call orders, limit orders, feeds and vesting balances. Account creation
// and authority editing are handled by an external collaborator; this
// package only decodes/encodes the identity, it never generates one.
package account

import (
	"bytes"

	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/margind/fault"
	"github.com/bitmark-inc/margind/util"
)

// enumeration of supported key algorithms
const (
	ED25519 = iota
	// end of list (one greater than last item)
	algorithmLimit = iota
)

// miscellaneous constants
const (
	checksumLength = 4

	// bits in key code starting from LSB
	publicKeyCode = 0x01
	testKeyCode   = 0x02

	algorithmShift = 4 // shift 4 bits to get algorithm
)

// Account - the opaque identity referenced by every ledger entity that has
// an owner (call orders, limit orders, feed publishers, vesting balances).
type Account struct {
	Test      bool
	PublicKey []byte
}

// AccountFromBase58 - decode a base58 identity string into an Account
func AccountFromBase58(accountBase58Encoded string) (*Account, error) {
	accountDecoded := util.FromBase58(accountBase58Encoded)
	if 0 == len(accountDecoded) {
		return nil, fault.ErrCannotDecodeAccount
	}

	keyVariant, keyVariantLength := util.FromVarint64(accountDecoded)
	if 0 == keyVariantLength || keyVariant&publicKeyCode != publicKeyCode {
		return nil, fault.ErrNotPublicKey
	}

	keyAlgorithm := keyVariant >> algorithmShift
	if keyAlgorithm >= algorithmLimit {
		return nil, fault.ErrInvalidKeyType
	}

	isTest := 0 != keyVariant&testKeyCode

	keyLength := len(accountDecoded) - keyVariantLength - checksumLength
	if keyLength <= 0 {
		return nil, fault.ErrInvalidKeyLength
	}

	checksumStart := len(accountDecoded) - checksumLength
	checksum := sha3.Sum256(accountDecoded[:checksumStart])
	if !bytes.Equal(checksum[:checksumLength], accountDecoded[checksumStart:]) {
		return nil, fault.ErrChecksumMismatch
	}

	if keyAlgorithm != ED25519 || keyLength != ed25519.PublicKeySize {
		return nil, fault.ErrInvalidKeyLength
	}

	return &Account{
		Test:      isTest,
		PublicKey: accountDecoded[keyVariantLength:checksumStart],
	}, nil
}

// Bytes - the encoded key-variant-byte + raw public key
func (account *Account) Bytes() []byte {
	keyVariant := byte(ED25519<<algorithmShift) | publicKeyCode
	if account.Test {
		keyVariant |= testKeyCode
	}
	return append([]byte{keyVariant}, account.PublicKey...)
}

// String - base58 text form, used as the canonical owner id in virtual-op logs
func (account *Account) String() string {
	buffer := account.Bytes()
	checksum := sha3.Sum256(buffer)
	buffer = append(buffer, checksum[:checksumLength]...)
	return util.ToBase58(buffer)
}

// MarshalText - base58 JSON form
func (account Account) MarshalText() ([]byte, error) {
	return []byte(account.String()), nil
}

// UnmarshalText - decode a base58 JSON form back into an Account
func (account *Account) UnmarshalText(s []byte) error {
	a, err := AccountFromBase58(string(s))
	if nil != err {
		return err
	}
	*account = *a
	return nil
}

// Equal - identity comparison, used as the owner key for call/limit orders
func (account *Account) Equal(other *Account) bool {
	if nil == account || nil == other {
		return account == other
	}
	return bytes.Equal(account.PublicKey, other.PublicKey)
}
