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

// Package vm declares the sandboxed execution collaborators the protocol
// core calls out to but does not itself implement: the payload's WASM-like
// runner and the per-verifier VP runner. Both are out-of-scope: each is an
// injected collaborator the core consumes through an interface rather than
// embedding a concrete implementation itself.
package vm

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/valora-chain/ledger/common"
	"github.com/valora-chain/ledger/core/types"
	"github.com/valora-chain/ledger/core/writelog"
)

// TxRunner executes a transaction's payload code against the write-log and
// reports the set of verifier addresses the transaction named.
type TxRunner interface {
	RunTx(ctx context.Context, log *writelog.Log, txIndex uint32, tx *types.Tx, gasMeter GasChecker, cache *Cache) (verifiers mapset.Set[common.Address], err error)
}

// VpRunner executes one verifier's validity predicate, identified by the
// content hash of its bound code. The runner resolves vpCodeHash to code
// via cache itself, keeping the core ignorant of how code is compiled or
// stored.
type VpRunner interface {
	RunVp(ctx context.Context, log *writelog.Log, vpCodeHash common.Hash, tx *types.Tx, txIndex uint32, addr common.Address, keysChanged mapset.Set[common.Key], verifiers mapset.Set[common.Address], gasMeter GasChecker, cache *Cache) (accepted bool, err error)
}

// GasChecker is the minimal gas-metering surface a runner needs; satisfied
// by both gas.TxGasMeter and gas.VpGasMeter.
type GasChecker interface {
	Consume(n uint64) error
}

// Cache is a code cache keyed by the section hash wasm/VP code lives in: a
// small keyed registry built once and handed to every call site. Cheap to
// Clone so each parallel VP task in the orchestrator can mutate its own
// lookup state (e.g. lazily-compiled modules) without racing its siblings.
type Cache struct {
	byHash map[common.Hash][]byte
}

// NewCache returns an empty code cache.
func NewCache() *Cache {
	return &Cache{byHash: make(map[common.Hash][]byte)}
}

// Put registers code under its content hash.
func (c *Cache) Put(hash common.Hash, code []byte) {
	c.byHash[hash] = code
}

// Get looks up previously-registered code by hash.
func (c *Cache) Get(hash common.Hash) ([]byte, bool) {
	v, ok := c.byHash[hash]
	return v, ok
}

// Clone returns a shallow copy sharing no mutable state with c, safe to hand
// to a concurrently-running VP task.
func (c *Cache) Clone() *Cache {
	clone := NewCache()
	for k, v := range c.byHash {
		clone.byHash[k] = v
	}
	return clone
}
