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

// Package common holds the small value types shared by every layer of the
// dispatch and validation core: content hashes, addresses and storage keys.
package common

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// HashLength is the size in bytes of a content hash.
const HashLength = 32

// Hash is a content-addressed identifier: a header hash, raw header hash, or
// section hash. It is computed with blake2b-256 rather than pulled in from a
// dedicated crypto package, since hashing primitives are an out-of-scope
// collaborator for this core.
type Hash [HashLength]byte

// BytesToHash truncates/pads b into a Hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HashData hashes the concatenation of data with blake2b-256.
func HashData(data ...[]byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // only fails on bad key length, which we never pass
	}
	for _, d := range data {
		h.Write(d)
	}
	return BytesToHash(h.Sum(nil))
}

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h Hash) Format(s fmt.State, c rune) {
	fmt.Fprintf(s, "%s", h.String())
}
