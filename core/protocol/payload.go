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

	"github.com/valora-chain/ledger/core/gas"
	"github.com/valora-chain/ledger/core/types"
	"github.com/valora-chain/ledger/core/vm"
	"github.com/valora-chain/ledger/core/writelog"
)

// applyPayload runs the sandboxed payload, collects the verifier set and
// changed keys it induced, runs the VP Orchestrator over them, and
// assembles the TxResult.
func applyPayload(ctx context.Context, env *Env, tx *types.Tx, txIndex uint32, state *writelog.Log,
	txGasMeter *gas.TxGasMeter, vpCache *vm.Cache, txCache *vm.Cache) (*types.TxResult, error) {

	already, err := state.HasReplayProtectionEntry(tx.RawHeaderHash())
	if err != nil {
		return nil, fmt.Errorf("%w: checking replay index: %v", ErrState, err)
	}
	if already {
		return nil, fmt.Errorf("%w: raw header hash %s already applied in this block", ErrReplayAttempt, tx.RawHeaderHash())
	}
	// Recorded before the fallible run below so a replayed payload is
	// rejected even if this attempt itself goes on to fail, mirroring the
	// wrapper's own write-before-fail ordering.
	if err := state.WriteTxHash(tx.RawHeaderHash()); err != nil {
		return nil, fmt.Errorf("%w: writing replay entry: %v", ErrState, err)
	}

	verifiersFromTx, err := env.TxRunner.RunTx(ctx, state, txIndex, tx, txGasMeter, txCache)
	if err != nil {
		switch classify(err) {
		case RunnerErrorGas:
			return nil, fmt.Errorf("%w: %v", ErrGas, err)
		case RunnerErrorMissingSection:
			return nil, fmt.Errorf("%w: %v", ErrMissingSection, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTxRunner, err)
		}
	}

	verifiers, keysChanged := state.VerifiersAndChangedKeys(verifiersFromTx)

	vpsResult, err := executeVPs(ctx, env, verifiers, keysChanged, tx, txIndex, state, txGasMeter, vpCache)
	if err != nil {
		return nil, err
	}

	if err := txGasMeter.AddVpsGas(vpsResult.GasUsed); err != nil {
		return nil, err
	}

	result := types.NewTxResult()
	result.GasUsed = txGasMeter.Consumed()
	result.ChangedKeys = state.GetKeys()
	result.VpsResult = vpsResult
	result.InitializedAccounts = state.GetInitializedAccounts()
	result.IbcEvents = state.TakeIbcEvents()
	return result, nil
}
