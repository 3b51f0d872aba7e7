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

package types

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/valora-chain/ledger/common"
)

// VpStatusFlags is a bit-set of cross-cutting VP run outcomes. Only one bit
// is defined by the core itself; callers may define more in higher bits.
type VpStatusFlags uint8

const (
	// StatusInvalidSignature is set whenever any evaluated VP rejected
	// because of an invalid section signature.
	StatusInvalidSignature VpStatusFlags = 1 << iota
)

// VpError pairs a rejecting verifier address with the message describing why.
type VpError struct {
	Address common.Address
	Message string
}

// VpsResult aggregates the outcome of running every verifier's VP.
type VpsResult struct {
	Accepted    mapset.Set[common.Address]
	Rejected    mapset.Set[common.Address]
	Errors      []VpError
	StatusFlags VpStatusFlags
	GasUsed     uint64
}

// NewVpsResult returns an empty, ready-to-merge result.
func NewVpsResult() *VpsResult {
	return &VpsResult{
		Accepted: mapset.NewThreadUnsafeSet[common.Address](),
		Rejected: mapset.NewThreadUnsafeSet[common.Address](),
	}
}

// IbcEvent is an opaque event emitted by the IBC native VP or the payload
// runner; its shape is owned by the IBC collaborator, out of scope here.
type IbcEvent struct {
	Kind       string
	Attributes map[string]string
}

// EthBridgeEvent is an opaque event describing an Ethereum-bridge side
// effect folded in by the Protocol-Tx Applier.
type EthBridgeEvent struct {
	Kind string
	Data []byte
}

// TxResult summarizes the effect of applying one transaction.
type TxResult struct {
	GasUsed             uint64
	WrapperChangedKeys  mapset.Set[common.Key]
	ChangedKeys         mapset.Set[common.Key]
	VpsResult           *VpsResult
	InitializedAccounts []common.Address
	IbcEvents           []IbcEvent
	EthBridgeEvents     []EthBridgeEvent
}

// NewTxResult returns a zero-value result with initialized sets.
func NewTxResult() *TxResult {
	return &TxResult{
		WrapperChangedKeys: mapset.NewThreadUnsafeSet[common.Key](),
		ChangedKeys:        mapset.NewThreadUnsafeSet[common.Key](),
		VpsResult:          NewVpsResult(),
	}
}

// IsAccepted reports whether no VP rejected the transaction, i.e. whether
// the caller may commit the inner write-log: a non-empty rejected-VP set
// means the inner writes must not be committed.
func (r *TxResult) IsAccepted() bool {
	return r.VpsResult == nil || r.VpsResult.Rejected.Cardinality() == 0
}
