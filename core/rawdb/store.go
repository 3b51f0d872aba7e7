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

// Package rawdb holds the concrete backing store the write-log reads
// through once a block is final: a generalization of the prefixed Get/Put/
// Delete keyed-accessor style (a thin layer over an injected KV backend) to
// arbitrary common.Key -> []byte pairs, rather than one fixed RLP schema.
package rawdb

import (
	"sync"

	"github.com/valora-chain/ledger/common"
)

// Store is a thread-safe, in-memory committed key-value store. It satisfies
// both writelog.CommittedReader (the read-through collaborator every Log is
// layered over) and writelog.BlockWriter (the drain target for a finalized
// block's tier). A production deployment would swap this for a disk-backed
// KV store; this in-memory map is the stand-in used by genesis setup and
// tests.
type Store struct {
	mu     sync.RWMutex
	values map[common.Key][]byte
}

// NewStore returns an empty committed store.
func NewStore() *Store {
	return &Store{values: make(map[common.Key][]byte)}
}

// Read implements writelog.CommittedReader.
func (s *Store) Read(key common.Key) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Put implements writelog.BlockWriter.
func (s *Store) Put(key common.Key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete implements writelog.BlockWriter.
func (s *Store) Delete(key common.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Len reports how many keys are currently committed, used by tests to
// assert a flush actually happened.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
