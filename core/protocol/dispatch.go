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

package protocol

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/valora-chain/ledger/core/gas"
	"github.com/valora-chain/ledger/core/protocoltx"
	"github.com/valora-chain/ledger/core/types"
	"github.com/valora-chain/ledger/core/vm"
	"github.com/valora-chain/ledger/core/writelog"
)

// Dispatch is the single entry point: classify tx by header variant and
// route to the Wrapper Processor, the Payload Executor, or the Protocol-Tx
// Applier.
func Dispatch(ctx context.Context, env *Env, tx *types.Tx, txBytes []byte, txIndex uint32,
	gasMeter *gas.TxGasMeter, state *writelog.Log, vpCache *vm.Cache, txCache *vm.Cache,
	wrapperArgs *WrapperArgs) (*types.TxResult, error) {

	runID := uuid.NewString()
	env.Log.Debug("dispatch", "run_id", runID, "type", tx.Header.Type, "tx_index", txIndex, "hash", tx.HeaderHash())

	switch tx.Header.Type {
	case types.TxTypeRaw:
		// Raw payloads are restricted to governance-originated inner
		// transactions by convention only; enforcing that restriction is
		// the caller's obligation.
		return applyPayload(ctx, env, tx, txIndex, state, gasMeter, vpCache, txCache)

	case types.TxTypeProtocol:
		if tx.Header.Protocol == nil {
			return nil, fmt.Errorf("%w: protocol header missing kind", ErrProtocolTx)
		}
		return protocoltx.ApplyProtocol(*tx.Header.Protocol, tx.Data(), state)

	case types.TxTypeWrapper:
		if tx.Header.Wrapper == nil {
			return nil, fmt.Errorf("%w: wrapper header missing wrapper tx", ErrState)
		}
		wrapperChangedKeys, err := applyWrapper(ctx, env, tx, tx.Header.Wrapper, txBytes, wrapperArgs, state, gasMeter, vpCache, txCache)
		if err != nil {
			return nil, &WrapperRunnerError{Err: err}
		}
		result, err := applyPayload(ctx, env, tx, txIndex, state, gasMeter, vpCache, txCache)
		if err != nil {
			// Payload errors propagate unchanged; wrapper effects already
			// committed.
			return nil, err
		}
		result.WrapperChangedKeys = wrapperChangedKeys
		env.Log.Debug("dispatch: wrapper applied", "run_id", runID, "gas_used", result.GasUsed)
		return result, nil

	default:
		return nil, fmt.Errorf("%w: unknown tx type %v", ErrState, tx.Header.Type)
	}
}

// FinalizeInner is a convenience helper, not one of the four core
// contracts: it decides commit-vs-drop of the inner payload's tx buffer on
// the caller's behalf, matching the rule that a non-empty rejected set
// means the inner writes must not be committed. Block appliers are free to
// implement this decision themselves; it exists here so tests exercising
// dispatch end-to-end have something concrete to call.
func FinalizeInner(state *writelog.Log, result *types.TxResult) error {
	if result.IsAccepted() {
		return state.CommitTx()
	}
	return state.DropTx()
}
