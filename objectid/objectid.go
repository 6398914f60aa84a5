// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package objectid defines the tagged (space, type, instance) identifiers
// that address every entity in the object registry. Nothing in this core
// ever holds an in-memory pointer across package boundaries; every
// cross-entity reference is one of these opaque, comparable values,
// dereferenced back through the registry.
package objectid

import "fmt"

// Space - the top-level namespace a type lives in. Only one space is used
// by this core (protocol objects); the second enumerant exists because the
// (space, type, instance) shape is part of the design and a single-space
// registry would hide that it is a projection of a wider scheme.
type Space uint8

const (
	ProtocolSpace Space = 1
	ImplementationSpace Space = 2
)

// Type - the entity kind within a space
type Type uint8

const (
	AssetType Type = iota
	CallOrderType
	LimitOrderType
	ForceSettlementType
	CollateralBidType
	VestingBalanceType
	AccountType
)

// ID - a typed, opaque reference to a registry entity
type ID struct {
	Space    Space
	Type     Type
	Instance uint64
}

// Nil - the zero ID, never allocated by the registry
var Nil = ID{}

// IsNil - true for the zero value
func (id ID) IsNil() bool {
	return id == Nil
}

// String - "space.type.instance", mirroring graphene-style object ids
func (id ID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Space, id.Type, id.Instance)
}
