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
	"errors"
	"fmt"

	"github.com/valora-chain/ledger/common"
	"github.com/valora-chain/ledger/core/gas"
	"github.com/valora-chain/ledger/core/types"
	"github.com/valora-chain/ledger/core/vm"
	"github.com/valora-chain/ledger/core/writelog"
)

// transferCodeName is the canonical name the well-known transfer code is
// registered under: the code itself is read from storage by this name
// before the sub-execution invokes it.
const transferCodeName = "tx_transfer.wasm"

// runFeeUnshielding executes the MASP-funded transparent-balance top-up as
// a private, rollback-able sub-execution of the Payload Executor. It
// reports whether the sub-execution's effects were kept (accepted) and
// an error only for fatal (non-gas) state failures or a Gas exhaustion,
// which the caller must defer surfacing until after its own commit.
func runFeeUnshielding(ctx context.Context, env *Env, wrapper *types.WrapperTx, unshieldSection *types.Section,
	state *writelog.Log, outerMeter *gas.TxGasMeter, vpCache, txCache *vm.Cache) (committed bool, err error) {

	limit := env.Params.FeeUnshieldingGasLimit
	if wrapper.GasLimit < limit {
		limit = wrapper.GasLimit
	}
	privateMeter := gas.NewTxGasMeter(limit)
	if err := privateMeter.CopyConsumedGasFrom(outerMeter); err != nil {
		return false, fmt.Errorf("%w: seeding fee-unshield meter: %v", ErrGas, err)
	}

	code, ok, err := state.Read(common.WasmCodeNameKey(transferCodeName))
	if err != nil {
		return false, fmt.Errorf("%w: reading transfer code: %v", ErrState, err)
	}
	if !ok {
		return false, fmt.Errorf("%w: transfer code %q not registered", ErrMissingSection, transferCodeName)
	}
	innerTx := types.NewRaw(code, unshieldSection.Bytes)

	// Precommit hides the wrapper's already-staged writes (the replay entry
	// written before fee checking) from the sub-execution's VPs, while
	// preserving them.
	if err := state.PrecommitTx(); err != nil {
		return false, fmt.Errorf("%w: precommitting before unshield: %v", ErrState, err)
	}

	result, runErr := applyPayload(ctx, env, innerTx, 0, state, privateMeter, vpCache, txCache)

	if mergeErr := outerMeter.CopyConsumedGasFrom(privateMeter); mergeErr != nil {
		env.Log.Warn("fee unshield: could not fold private gas meter back", "err", mergeErr)
	}

	if runErr != nil {
		if errors.Is(runErr, ErrGas) {
			if dropErr := state.DropTxKeepPrecommit(); dropErr != nil {
				env.Log.Warn("fee unshield: drop after gas error failed", "err", dropErr)
			}
			return false, runErr
		}
		// Any other runner/state error falls back to transparent fees,
		// exactly like a VP rejection.
		if dropErr := state.DropTxKeepPrecommit(); dropErr != nil {
			return false, fmt.Errorf("%w: dropping failed unshield: %v", ErrState, dropErr)
		}
		return false, nil
	}

	if !result.IsAccepted() {
		if dropErr := state.DropTxKeepPrecommit(); dropErr != nil {
			return false, fmt.Errorf("%w: dropping rejected unshield: %v", ErrState, dropErr)
		}
		return false, nil
	}

	// Accepted: leave the sub-execution's writes in the tx buffer. They are
	// folded into the block together with the wrapper's own effects when
	// the wrapper commits (writelog.Log.CommitTx absorbs both precommit and
	// tx).
	return true, nil
}
