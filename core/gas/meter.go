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

// Package gas implements the gas metering shared by every stage of the
// dispatch pipeline: a hard per-tx ceiling with separate accumulators for
// wrapper, payload and VP gas, built on a scalar subtracting gas pool split
// across the tx/wrapper/vps boundaries the protocol core requires.
package gas

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfGas is returned whenever consuming gas would exceed a meter's
// ceiling. It is the sentinel the protocol layer translates into the fatal
// "Gas" error kind.
var ErrOutOfGas = errors.New("out of gas")

// WrapperGasPerByte is the gas charged per byte of the wrapper's serialized
// transaction, mirroring add_wrapper_gas(tx_bytes).
const WrapperGasPerByte uint64 = 1

// TxGasMeter is the per-transaction gas counter with a hard ceiling shared
// across the wrapper pass, the payload pass and every VP invocation.
type TxGasMeter struct {
	mu         sync.Mutex
	limit      uint64
	wrapperGas uint64
	payloadGas uint64
	vpsGas     uint64
}

// NewTxGasMeter returns a meter with the given ceiling and zero consumption.
func NewTxGasMeter(limit uint64) *TxGasMeter {
	return &TxGasMeter{limit: limit}
}

// Limit returns the meter's hard ceiling.
func (m *TxGasMeter) Limit() uint64 { return m.limit }

// Consumed returns the total gas consumed so far across all accumulators.
func (m *TxGasMeter) Consumed() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consumedLocked()
}

func (m *TxGasMeter) consumedLocked() uint64 {
	return m.wrapperGas + m.payloadGas + m.vpsGas
}

// Consume charges n gas against the payload accumulator, failing if the
// total consumption would exceed the ceiling.
func (m *TxGasMeter) Consume(n uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumedLocked()+n > m.limit {
		return fmt.Errorf("%w: requested %d, have %d of %d", ErrOutOfGas, n, m.consumedLocked(), m.limit)
	}
	m.payloadGas += n
	return nil
}

// AddWrapperGas charges gas proportional to the wrapper's serialized size.
func (m *TxGasMeter) AddWrapperGas(txBytes []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := uint64(len(txBytes)) * WrapperGasPerByte
	if m.consumedLocked()+n > m.limit {
		return fmt.Errorf("%w: wrapper gas %d, have %d of %d", ErrOutOfGas, n, m.consumedLocked(), m.limit)
	}
	m.wrapperGas += n
	return nil
}

// AddVpsGas folds the aggregate gas consumed by the VP Orchestrator into the
// tx meter, failing if doing so would exceed the ceiling.
func (m *TxGasMeter) AddVpsGas(v uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumedLocked()+v > m.limit {
		return fmt.Errorf("%w: vps gas %d, have %d of %d", ErrOutOfGas, v, m.consumedLocked(), m.limit)
	}
	m.vpsGas += v
	return nil
}

// CopyConsumedGasFrom seeds m with the total consumption already recorded by
// other, failing if that total already exceeds m's ceiling. Used to hand a
// sub-execution's private meter a running start, and then to fold its
// final reading back into the parent (same method, called in the opposite
// direction).
func (m *TxGasMeter) CopyConsumedGasFrom(other *TxGasMeter) error {
	other.mu.Lock()
	consumed := other.consumedLocked()
	other.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if consumed > m.limit {
		return fmt.Errorf("%w: %d exceeds ceiling %d", ErrOutOfGas, consumed, m.limit)
	}
	// Attribute the copied consumption to the payload accumulator: by the
	// time this is called the other meter's own breakdown no longer matters,
	// only its total does.
	already := m.consumedLocked()
	if consumed > already {
		m.payloadGas += consumed - already
	}
	return nil
}

// Merge re-checks the global ceiling against m's consumption plus other's and
// folds other's VP gas into m, used by the VP Orchestrator's reduction.
func (m *TxGasMeter) Merge(other *VpGasMeter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	consumed := other.Consumed()
	if m.consumedLocked()+consumed > m.limit {
		return fmt.Errorf("%w: vp merge %d, have %d of %d", ErrOutOfGas, consumed, m.consumedLocked(), m.limit)
	}
	m.vpsGas += consumed
	return nil
}

// VpGasMeter is a per-VP-task gas meter derived from a TxGasMeter's ceiling.
// Each parallel VP evaluation owns one; its final reading is merged back
// into the aggregate.
type VpGasMeter struct {
	mu        sync.Mutex
	ceiling   uint64
	baseline  uint64
	consumed  uint64
}

// NewVpGasMeterFromTxMeter derives a fresh per-VP meter sharing txMeter's
// ceiling and seeded with its consumption so far, so a single runaway VP
// cannot consume more than what remains of the tx's overall budget.
func NewVpGasMeterFromTxMeter(txMeter *TxGasMeter) *VpGasMeter {
	txMeter.mu.Lock()
	baseline := txMeter.consumedLocked()
	ceiling := txMeter.limit
	txMeter.mu.Unlock()
	return &VpGasMeter{ceiling: ceiling, baseline: baseline}
}

// Consume charges n gas against this VP's own accumulator, bounded by the
// shared ceiling minus whatever the rest of the tx had already consumed.
func (m *VpGasMeter) Consume(n uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baseline+m.consumed+n > m.ceiling {
		return fmt.Errorf("%w: vp requested %d, have %d of %d", ErrOutOfGas, n, m.baseline+m.consumed, m.ceiling)
	}
	m.consumed += n
	return nil
}

// Consumed returns the gas this VP task has consumed (excluding baseline).
func (m *VpGasMeter) Consumed() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consumed
}
