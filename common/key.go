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

import "strings"

// Key is a '/'-segmented storage path, e.g. "token/balance/<token>/<addr>".
// It is a plain string under the hood but kept as a distinct type so write-log
// and storage code can't accidentally mix raw strings with well-formed keys.
type Key string

// NewKey joins segments into a Key.
func NewKey(segments ...string) Key {
	return Key(strings.Join(segments, "/"))
}

func (k Key) String() string { return string(k) }

func (k Key) Bytes() []byte { return []byte(k) }

func (k Key) Push(segment string) Key {
	return Key(string(k) + "/" + segment)
}

// replayProtectionPrefix namespaces the replay-protection index.
const replayProtectionPrefix = "replay_protection"

// ReplayProtectionKey returns the storage key recording that the inner tx
// identified by hash has already been applied within the current block.
func ReplayProtectionKey(hash Hash) Key {
	return NewKey(replayProtectionPrefix, hash.String())
}

// WasmCodeNameKey returns the storage key mapping a canonical code name
// (e.g. "tx_transfer.wasm") to its code bytes, so well-known code paths
// (like the fee-unshield sub-execution's transfer invocation) can be
// located without carrying a hash reference through the tx itself.
func WasmCodeNameKey(name string) Key {
	return NewKey("wasm", "name", name)
}

// ValidityPredicateKey returns the storage key holding the code hash of the
// VP bound to an Implicit/Established address.
func ValidityPredicateKey(addr Address) Key {
	return NewKey("vp", addr.String())
}

// BalanceKey returns the storage key for a token balance.
func BalanceKey(token, owner Address) Key {
	return NewKey("token", "balance", token.String(), owner.String())
}

// FeeUnshieldingGasLimitKey is the well-known parameter key naming the
// protocol-wide ceiling on fee-unshielding sub-execution gas.
const FeeUnshieldingGasLimitKey Key = "parameters/fee_unshielding_gas_limit"
