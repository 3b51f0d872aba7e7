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

// Package writelog implements the three-tier (tx / precommit / block)
// buffered write-log layered over committed storage. It reads through a
// small keyed accessor in front of a flat key-value store, generalized to a
// tx/precommit/block promotion state machine instead of a single flat
// key-value database.
package writelog

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/valora-chain/ledger/common"
	"github.com/valora-chain/ledger/core/types"
)

// CommittedReader is the out-of-scope collaborator: the underlying
// key-value store holding everything previously committed to the chain.
type CommittedReader interface {
	Read(key common.Key) ([]byte, bool, error)
}

type tier struct {
	values mapset.Set[common.Key]
	owners map[common.Key][]common.Address
	store  map[common.Key][]byte
	// deleted marks a key explicitly removed in this tier, shadowing any
	// value for it in an older tier.
	deleted map[common.Key]bool
}

func newTier() *tier {
	return &tier{
		values:  mapset.NewThreadUnsafeSet[common.Key](),
		owners:  make(map[common.Key][]common.Address),
		store:   make(map[common.Key][]byte),
		deleted: make(map[common.Key]bool),
	}
}

func (t *tier) write(key common.Key, value []byte, owners []common.Address) {
	t.values.Add(key)
	t.store[key] = value
	delete(t.deleted, key)
	if len(owners) > 0 {
		t.owners[key] = owners
	}
}

func (t *tier) clear() {
	t.values = mapset.NewThreadUnsafeSet[common.Key]()
	t.owners = make(map[common.Key][]common.Address)
	t.store = make(map[common.Key][]byte)
	t.deleted = make(map[common.Key]bool)
}

// absorb folds other on top of t (other wins on key conflicts), as when
// promoting a tx buffer into precommit or block.
func (t *tier) absorb(other *tier) {
	for k, v := range other.store {
		t.store[k] = v
		t.values.Add(k)
		delete(t.deleted, k)
	}
	for k, o := range other.owners {
		t.owners[k] = o
	}
	for k := range other.deleted {
		t.deleted[k] = true
		t.values.Remove(k)
		delete(t.store, k)
	}
}

// Log is the three-tier (tx / precommit / block) buffered write-log layered
// over committed storage, promoting writes through OPEN -> MERGED-INTO-BLOCK
// or OPEN -> PROMOTED as each inner transaction commits or precommits.
type Log struct {
	committed CommittedReader
	block     *tier
	precommit *tier
	tx        *tier

	initializedAccounts []common.Address
	ibcEvents           []types.IbcEvent
}

// New returns a write-log layered over committed.
func New(committed CommittedReader) *Log {
	return &Log{
		committed: committed,
		block:     newTier(),
		precommit: newTier(),
		tx:        newTier(),
	}
}

// Write records a mutation in the currently-executing inner transaction's
// buffer. owners, if given, names the addresses implicated by this key so
// VerifiersAndChangedKeys can derive implied verifiers without having to
// parse key structure back into addresses.
func (l *Log) Write(key common.Key, value []byte, owners ...common.Address) error {
	l.tx.write(key, value, owners)
	return nil
}

// Delete records the removal of key in the tx buffer.
func (l *Log) Delete(key common.Key) error {
	l.tx.values.Remove(key)
	delete(l.tx.store, key)
	l.tx.deleted[key] = true
	return nil
}

// Read consults tx, then precommit, then block, then committed storage,
// top-down.
func (l *Log) Read(key common.Key) ([]byte, bool, error) {
	for _, t := range []*tier{l.tx, l.precommit, l.block} {
		if t.deleted[key] {
			return nil, false, nil
		}
		if v, ok := t.store[key]; ok {
			return v, true, nil
		}
	}
	if l.committed == nil {
		return nil, false, nil
	}
	return l.committed.Read(key)
}

// HasReplayProtectionEntry reports whether hash has already been recorded
// as applied, via the ordinary replay_protection/<hash> storage key.
func (l *Log) HasReplayProtectionEntry(hash common.Hash) (bool, error) {
	_, ok, err := l.Read(common.ReplayProtectionKey(hash))
	return ok, err
}

// WriteTxHash records hash in the replay-protection index, in the tx buffer.
func (l *Log) WriteTxHash(hash common.Hash) error {
	return l.Write(common.ReplayProtectionKey(hash), []byte{1})
}

// CommitTx promotes the tx buffer together with any existing precommit
// buffer into the block buffer, then clears both. This folds in whatever
// an earlier PrecommitTx call had staged, since that's the only way
// precommitted writes ever reach the block.
func (l *Log) CommitTx() error {
	l.block.absorb(l.precommit)
	l.block.absorb(l.tx)
	l.precommit.clear()
	l.tx.clear()
	return nil
}

// PrecommitTx promotes the tx buffer into the precommit buffer and clears
// the tx buffer, leaving the block buffer untouched.
func (l *Log) PrecommitTx() error {
	l.precommit.absorb(l.tx)
	l.tx.clear()
	return nil
}

// DropTx discards both the tx and the precommit buffers, a full rollback of
// everything staged for the current inner execution and any sub-execution
// it had previously precommitted.
func (l *Log) DropTx() error {
	l.tx.clear()
	l.precommit.clear()
	return nil
}

// DropTxKeepPrecommit discards only the tx buffer, leaving precommit intact.
// Used by fee-unshield rollback so the replay-protection entry staged
// before the sub-execution survives the sub-execution's own rejection.
func (l *Log) DropTxKeepPrecommit() error {
	l.tx.clear()
	return nil
}

// GetKeys returns the keys touched by the tx buffer alone — the set folded
// into a TxResult's reported changed keys.
func (l *Log) GetKeys() mapset.Set[common.Key] {
	return l.tx.values.Clone()
}

// GetKeysWithPrecommit returns the union of keys touched in tx and
// precommit, used by the Wrapper Processor to snapshot its own effects
// including the writes it precommitted before a fee-unshield sub-execution.
func (l *Log) GetKeysWithPrecommit() mapset.Set[common.Key] {
	out := l.tx.values.Clone()
	out = out.Union(l.precommit.values)
	return out
}

// VerifiersAndChangedKeys computes the verifier set (union of
// verifiersFromTx and every address implicated by a changed key's owners)
// and the set of changed keys.
func (l *Log) VerifiersAndChangedKeys(verifiersFromTx mapset.Set[common.Address]) (mapset.Set[common.Address], mapset.Set[common.Key]) {
	verifiers := verifiersFromTx.Clone()
	keysChanged := l.tx.values.Clone()
	for k := range l.tx.store {
		for _, addr := range l.tx.owners[k] {
			verifiers.Add(addr)
		}
	}
	return verifiers, keysChanged
}

// GetInitializedAccounts returns the accounts created by the current tx
// buffer's execution.
func (l *Log) GetInitializedAccounts() []common.Address {
	return l.initializedAccounts
}

// RecordInitializedAccount records addr as newly initialized by the current
// inner execution.
func (l *Log) RecordInitializedAccount(addr common.Address) {
	l.initializedAccounts = append(l.initializedAccounts, addr)
}

// TakeIbcEvents drains and returns the IBC events queued by the current
// execution.
func (l *Log) TakeIbcEvents() []types.IbcEvent {
	events := l.ibcEvents
	l.ibcEvents = nil
	return events
}

// EmitIbcEvent queues an IBC event to be drained by TakeIbcEvents.
func (l *Log) EmitIbcEvent(e types.IbcEvent) {
	l.ibcEvents = append(l.ibcEvents, e)
}

// BlockWriter is the out-of-scope durable backend a finalized block's tier
// flushes into, one layer above anything the dispatch core itself decides.
type BlockWriter interface {
	Put(key common.Key, value []byte)
	Delete(key common.Key)
}

// FlushBlock drains the block tier into w and resets it, the point at which
// a finalized block's accumulated writes leave the write-log and become
// committed storage. Nothing in the dispatch core calls this itself — it's
// the caller's responsibility, once a height is final.
func (l *Log) FlushBlock(w BlockWriter) {
	for k, v := range l.block.store {
		w.Put(k, v)
	}
	for k := range l.block.deleted {
		w.Delete(k)
	}
	l.block = newTier()
}
