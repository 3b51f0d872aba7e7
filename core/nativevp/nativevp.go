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

// Package nativevp holds the closed table of built-in validity predicates
// the VP Orchestrator consults before falling back to a verifier's own
// wasm code: a map from common.InternalKind to an in-process VP
// implementation, analogous to an address-keyed precompiled-contract
// registry activated by a fixed set of rules rather than by chain height.
package nativevp

import (
	"context"
	"errors"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/valora-chain/ledger/common"
	"github.com/valora-chain/ledger/core/gas"
	"github.com/valora-chain/ledger/core/types"
)

// ErrAccessForbidden is returned by the two policy sentinel addresses
// (PosSlashPool, TempStorage), which never accept a direct write.
var ErrAccessForbidden = errors.New("access forbidden")

// Ctx bundles everything a native VP implementation needs to evaluate a
// transaction's effect on its own address, mirroring the read-only
// collaborator bundle a PrecompiledContract.Run receives (input bytes plus
// a gas counter) generalized to the richer VP evaluation surface.
type Ctx struct {
	Tx              *types.Tx
	KeysChanged     mapset.Set[common.Key]
	VerifiersFromTx mapset.Set[common.Address]
	GasMeter        *gas.VpGasMeter
}

// VP is a single built-in validity predicate. Self is the address the VP is
// being run as (relevant for the handful of kinds keyed on InternalWithSub,
// e.g. IbcToken(token)).
type VP interface {
	ValidateTx(ctx context.Context, c Ctx, self common.Address) (bool, error)
}

// VPFunc adapts a plain function to the VP interface.
type VPFunc func(ctx context.Context, c Ctx, self common.Address) (bool, error)

// ValidateTx implements VP.
func (f VPFunc) ValidateTx(ctx context.Context, c Ctx, self common.Address) (bool, error) {
	return f(ctx, c, self)
}

// Table is the closed registry of built-in VP implementations, keyed by
// InternalKind. The VP Orchestrator rejects an internal address whose kind
// is absent from the table; only Implicit/Established addresses run wasm code.
type Table map[common.InternalKind]VP

// alwaysForbidden backs the two policy sentinel kinds: no amount of
// verifier or key analysis can make a write to these addresses acceptable.
func alwaysForbidden(_ context.Context, _ Ctx, _ common.Address) (bool, error) {
	return false, ErrAccessForbidden
}

// alwaysAccept is a placeholder body for native VPs whose actual business
// logic (proof-of-stake bonding rules, IBC packet lifecycle, governance
// proposal tallying, etc.) is owned by collaborators out of scope for the
// dispatch core; it lets every declared kind resolve to a concrete VP so the
// orchestrator's native-vs-sandboxed dispatch is exercised end-to-end.
func alwaysAccept(_ context.Context, _ Ctx, _ common.Address) (bool, error) {
	return true, nil
}

// DefaultTable returns the standard table: the two sentinel kinds always
// reject, every other declared native kind accepts by default. Callers that
// need real business logic for a given kind (e.g. a test asserting PoS
// rejects a malformed bond) override that single entry.
func DefaultTable() Table {
	t := Table{
		common.KindPosSlashPool: VPFunc(alwaysForbidden),
		common.KindTempStorage:  VPFunc(alwaysForbidden),
	}
	for _, k := range []common.InternalKind{
		common.KindPoS,
		common.KindGovernance,
		common.KindIbc,
		common.KindParameters,
		common.KindMultitoken,
		common.KindPgf,
		common.KindEthBridge,
		common.KindEthBridgePool,
		common.KindNut,
		common.KindMasp,
	} {
		t[k] = VPFunc(alwaysAccept)
	}
	return t
}

// Lookup returns the native VP for addr, if any. IbcToken and Erc20 are not
// independent native VPs: they resolve to nothing here, and
// RequiresCoVerifier signals the orchestrator to accept them only when the
// Multitoken address is also in the verifier set, per the co-verification
// rule.
func (t Table) Lookup(addr common.Address) (VP, bool) {
	if !addr.IsInternal() {
		return nil, false
	}
	if addr.RequiresCoVerifier() {
		return nil, false
	}
	vp, ok := t[addr.InternalKind()]
	return vp, ok
}
