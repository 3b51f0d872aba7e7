// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package common

import "fmt"

// AddressLength is the size in bytes of an Implicit or Established address.
const AddressLength = 20

// Tag discriminates the three disjoint address variants of the data model.
type Tag uint8

const (
	TagImplicit Tag = iota
	TagEstablished
	TagInternal
)

// InternalKind is the closed set of internal-address key-space owners. A
// transaction may only name one of these; the set cannot grow without a
// protocol upgrade, so it is modelled as a closed enum rather than an open
// registry (spec design note: "avoid open registries").
type InternalKind uint8

const (
	KindPoS InternalKind = iota
	KindPosSlashPool
	KindGovernance
	KindIbc
	KindParameters
	KindMultitoken
	KindPgf
	KindEthBridge
	KindEthBridgePool
	KindNut
	KindMasp
	KindIbcToken
	KindErc20
	KindTempStorage
)

func (k InternalKind) String() string {
	switch k {
	case KindPoS:
		return "PoS"
	case KindPosSlashPool:
		return "PosSlashPool"
	case KindGovernance:
		return "Governance"
	case KindIbc:
		return "Ibc"
	case KindParameters:
		return "Parameters"
	case KindMultitoken:
		return "Multitoken"
	case KindPgf:
		return "Pgf"
	case KindEthBridge:
		return "EthBridge"
	case KindEthBridgePool:
		return "EthBridgePool"
	case KindNut:
		return "Nut"
	case KindMasp:
		return "Masp"
	case KindIbcToken:
		return "IbcToken"
	case KindErc20:
		return "Erc20"
	case KindTempStorage:
		return "TempStorage"
	default:
		return fmt.Sprintf("InternalKind(%d)", uint8(k))
	}
}

// sentinel reports whether the kind is a policy sentinel rather than an
// executable validity predicate: these never run user-provided or native VP
// logic, they only ever accept or reject outright.
func (k InternalKind) sentinel() bool {
	return k == KindPosSlashPool || k == KindTempStorage
}

// coVerified reports whether the kind must be accompanied by the Multitoken
// address in the verifier set to be considered valid on its own.
func (k InternalKind) coVerified() bool {
	return k == KindIbcToken || k == KindErc20
}

// Address is a tagged identifier: Implicit, Established, or
// Internal(kind[, sub]). IbcToken and Erc20 carry the address of the
// wrapped/paired token as Sub. The type is a plain comparable value (no
// pointers) so it can be used directly as a map key and as the element type
// of a mapset.Set[Address].
type Address struct {
	tag      Tag
	bytes    [AddressLength]byte
	internal InternalKind
	hasSub   bool
	sub      [AddressLength]byte
}

// Implicit constructs an implicit (key-derived) address.
func Implicit(bytes [AddressLength]byte) Address {
	return Address{tag: TagImplicit, bytes: bytes}
}

// Established constructs an established (on-chain-initialized) address.
func Established(bytes [AddressLength]byte) Address {
	return Address{tag: TagEstablished, bytes: bytes}
}

// Internal constructs an internal address of the given kind.
func Internal(kind InternalKind) Address {
	return Address{tag: TagInternal, internal: kind}
}

// InternalWithSub constructs an IbcToken/Erc20 address paired with the
// wrapped token's address.
func InternalWithSub(kind InternalKind, sub [AddressLength]byte) Address {
	return Address{tag: TagInternal, internal: kind, hasSub: true, sub: sub}
}

func (a Address) Tag() Tag { return a.tag }

func (a Address) IsInternal() bool { return a.tag == TagInternal }

// InternalKind panics if called on a non-internal address; callers must
// check IsInternal() first.
func (a Address) InternalKind() InternalKind {
	if a.tag != TagInternal {
		panic("common: InternalKind called on non-internal address")
	}
	return a.internal
}

// Sub returns the paired token address bytes for IbcToken/Erc20 kinds and
// true, or the zero value and false for every other address.
func (a Address) Sub() ([AddressLength]byte, bool) { return a.sub, a.hasSub }

// IsSentinel reports whether this internal address always rejects
// verification outright (PosSlashPool, TempStorage).
func (a Address) IsSentinel() bool {
	return a.tag == TagInternal && a.internal.sentinel()
}

// RequiresCoVerifier reports whether this internal address must be
// accompanied by the Multitoken address in the verifier set.
func (a Address) RequiresCoVerifier() bool {
	return a.tag == TagInternal && a.internal.coVerified()
}

func (a Address) Bytes() [AddressLength]byte { return a.bytes }

func (a Address) String() string {
	switch a.tag {
	case TagImplicit:
		return fmt.Sprintf("Implicit(%x)", a.bytes)
	case TagEstablished:
		return fmt.Sprintf("Established(%x)", a.bytes)
	case TagInternal:
		if a.hasSub {
			return fmt.Sprintf("Internal(%s/%x)", a.internal, a.sub)
		}
		return fmt.Sprintf("Internal(%s)", a.internal)
	default:
		return "Address(invalid)"
	}
}

// Equal reports whether two addresses denote the same identifier. Since
// Address is a plain comparable struct, a == b works too; Equal is kept for
// readability at call sites that already compare other rich types this way.
func (a Address) Equal(b Address) bool { return a == b }
