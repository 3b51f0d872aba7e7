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

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/valora-chain/ledger/common"
	"github.com/valora-chain/ledger/core/gas"
	"github.com/valora-chain/ledger/core/token"
	"github.com/valora-chain/ledger/core/types"
	"github.com/valora-chain/ledger/core/vm"
	"github.com/valora-chain/ledger/core/writelog"
)

// WrapperArgs distinguishes block-execution from mempool/proposal
// pre-checks and carries back whether fee unshielding's effects were
// actually kept.
type WrapperArgs struct {
	// BlockProposer receives the transferred fee. Present means "apply
	// during block execution"; the zero value is never a valid proposer so
	// callers always set this explicitly.
	BlockProposer common.Address
	// IsCommittedFeeUnshield is written by applyWrapper after the wrapper's
	// commit, never read by it.
	IsCommittedFeeUnshield bool
}

// applyWrapper runs the Wrapper Processor's strict six-step ordering and
// returns the set of keys the wrapper itself changed.
func applyWrapper(ctx context.Context, env *Env, tx *types.Tx, wrapper *types.WrapperTx, txBytes []byte,
	wrapperArgs *WrapperArgs, state *writelog.Log, txGasMeter *gas.TxGasMeter, vpCache, txCache *vm.Cache) (mapset.Set[common.Key], error) {

	// Step 1: replay entry, written before any fallible step so a replayed
	// wrapper is rejected even if everything after this aborts.
	if err := state.WriteTxHash(tx.HeaderHash()); err != nil {
		return nil, fmt.Errorf("%w: writing replay entry: %v", ErrState, err)
	}

	// Step 2: fee-unshielding (if selected) and fee check/transfer. Both a
	// Gas failure from unshielding and a Fee failure from the transfer are
	// deferred: their state effects (replay entry, drained balance) must
	// still reach the block via steps 3-4 before the caller
	// ever observes the error. This ordering quirk is intentional: a
	// malicious payer can't dodge the balance drain by triggering either
	// failure mode.
	var isCommittedUnshield bool
	var deferredErr error

	if wrapper.UnshieldSectionHash != nil {
		section, ok := tx.GetSection(*wrapper.UnshieldSectionHash)
		if !ok {
			return nil, fmt.Errorf("%w: unshield section %s not found", ErrMissingSection, *wrapper.UnshieldSectionHash)
		}
		committed, err := runFeeUnshielding(ctx, env, wrapper, section, state, txGasMeter, vpCache, txCache)
		if err != nil {
			if !errors.Is(err, ErrGas) {
				return nil, err
			}
			deferredErr = err
		}
		isCommittedUnshield = committed
	}

	fee, err := wrapper.GetTxFee()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFee, err)
	}
	amount, err := token.DenomToAmount(fee, wrapper.Fee.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFee, err)
	}

	if wrapperArgs != nil {
		if err := transferFee(state, wrapper.Fee.Token, wrapper.FeePayer, wrapperArgs.BlockProposer, amount); err != nil && deferredErr == nil {
			deferredErr = err
		}
	} else {
		if err := checkFees(state, wrapper.Fee.Token, wrapper.FeePayer, amount); err != nil && deferredErr == nil {
			deferredErr = err
		}
	}

	// Step 3: snapshot keys changed by the wrapper itself, including the
	// writes precommitted before a fee-unshield sub-execution ran and that
	// sub-execution's own writes if it was accepted.
	changedKeys := state.GetKeysWithPrecommit()

	// Step 4: commit the wrapper's tx buffer regardless of the outcome
	// above — fees are earned the moment the wrapper is included.
	if err := state.CommitTx(); err != nil {
		return nil, fmt.Errorf("%w: committing wrapper: %v", ErrState, err)
	}

	// Step 5: publish the unshield outcome now that it's durable, and
	// surface a deferred Gas error from unshielding.
	if wrapperArgs != nil {
		wrapperArgs.IsCommittedFeeUnshield = isCommittedUnshield
	}
	if deferredErr != nil && errors.Is(deferredErr, ErrGas) {
		return changedKeys, deferredErr
	}

	// Step 6: wrapper gas, proportional to the serialized transaction size.
	if err := txGasMeter.AddWrapperGas(txBytes); err != nil {
		return changedKeys, err
	}

	if deferredErr != nil {
		return changedKeys, deferredErr
	}
	return changedKeys, nil
}
