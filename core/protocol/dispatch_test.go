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
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valora-chain/ledger/common"
	"github.com/valora-chain/ledger/core/gas"
	"github.com/valora-chain/ledger/core/nativevp"
	"github.com/valora-chain/ledger/core/token"
	"github.com/valora-chain/ledger/core/types"
	"github.com/valora-chain/ledger/core/vm"
	"github.com/valora-chain/ledger/core/writelog"
	"github.com/valora-chain/ledger/params"
)

type nullCommitted struct{}

func (nullCommitted) Read(common.Key) ([]byte, bool, error) { return nil, false, nil }

// fakeTxRunner reports a fixed verifier set and never touches gas itself.
type fakeTxRunner struct {
	verifiers mapset.Set[common.Address]
	err       error
}

func (f *fakeTxRunner) RunTx(context.Context, *writelog.Log, uint32, *types.Tx, vm.GasChecker, *vm.Cache) (mapset.Set[common.Address], error) {
	return f.verifiers, f.err
}

// fakeVpRunner always accepts.
type fakeVpRunner struct{}

func (fakeVpRunner) RunVp(context.Context, *writelog.Log, common.Hash, *types.Tx, uint32, common.Address,
	mapset.Set[common.Key], mapset.Set[common.Address], vm.GasChecker, *vm.Cache) (bool, error) {
	return true, nil
}

func newTestEnv(txRunner vm.TxRunner) *Env {
	return NewEnv(txRunner, fakeVpRunner{}, nil, params.DefaultProtocolCoreParams)
}

// TestExecuteVPs_GasExhaustionShortCircuits verifies that a gas-consuming
// native VP run under a zero-limit tx gas meter fails Gas.
func TestExecuteVPs_GasExhaustionShortCircuits(t *testing.T) {
	natives := nativevp.DefaultTable()
	natives[common.KindMultitoken] = nativevp.VPFunc(func(_ context.Context, c nativevp.Ctx, _ common.Address) (bool, error) {
		if err := c.GasMeter.Consume(1); err != nil {
			return false, err
		}
		return true, nil
	})
	env := NewEnv(nil, fakeVpRunner{}, natives, params.DefaultProtocolCoreParams)

	state := writelog.New(nullCommitted{})
	verifiers := mapset.NewThreadUnsafeSet[common.Address](common.Internal(common.KindMultitoken))
	keysChanged := mapset.NewThreadUnsafeSet[common.Key]()
	tx := types.NewRaw([]byte("code"), []byte("data"))
	txGasMeter := gas.NewTxGasMeter(0)

	_, err := executeVPs(context.Background(), env, verifiers, keysChanged, tx, 0, state, txGasMeter, vm.NewCache())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGas)
}

// TestExecuteVPs_SentinelAddressesRejected verifies that policy sentinel
// addresses are always rejected as verifiers, never run as VPs.
func TestExecuteVPs_SentinelAddressesRejected(t *testing.T) {
	env := newTestEnv(nil)
	state := writelog.New(nullCommitted{})
	tx := types.NewRaw([]byte("code"), []byte("data"))
	txGasMeter := gas.NewTxGasMeter(1000)

	tests := []struct {
		name string
		addr common.Address
	}{
		{"pos slash pool", common.Internal(common.KindPosSlashPool)},
		{"temp storage", common.Internal(common.KindTempStorage)},
		{"bare ibc token without multitoken", common.InternalWithSub(common.KindIbcToken, [common.AddressLength]byte{9})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifiers := mapset.NewThreadUnsafeSet[common.Address](tt.addr)
			keysChanged := mapset.NewThreadUnsafeSet[common.Key]()
			result, err := executeVPs(context.Background(), env, verifiers, keysChanged, tx, 0, state, txGasMeter, vm.NewCache())
			require.NoError(t, err)
			assert.True(t, result.Rejected.Contains(tt.addr))
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0].Message, ErrAccessForbidden.Error())
		})
	}
}

// TestExecuteVPs_CoVerifiedAcceptsWithMultitoken exercises the positive side
// of the IbcToken/Erc20 co-verification rule.
func TestExecuteVPs_CoVerifiedAcceptsWithMultitoken(t *testing.T) {
	env := newTestEnv(nil)
	state := writelog.New(nullCommitted{})
	tx := types.NewRaw([]byte("code"), []byte("data"))
	txGasMeter := gas.NewTxGasMeter(1000)

	ibcToken := common.InternalWithSub(common.KindIbcToken, [common.AddressLength]byte{9})
	verifiers := mapset.NewThreadUnsafeSet[common.Address](ibcToken, common.Internal(common.KindMultitoken))
	keysChanged := mapset.NewThreadUnsafeSet[common.Key]()

	result, err := executeVPs(context.Background(), env, verifiers, keysChanged, tx, 0, state, txGasMeter, vm.NewCache())
	require.NoError(t, err)
	assert.True(t, result.Accepted.Contains(ibcToken))
	assert.True(t, result.Accepted.Contains(common.Internal(common.KindMultitoken)))
}

// TestExecuteVPs_NonGasCompleteness verifies that a non-gas failure on one
// verifier does not stop the others from being evaluated.
func TestExecuteVPs_NonGasCompleteness(t *testing.T) {
	env := newTestEnv(nil)
	state := writelog.New(nullCommitted{})
	tx := types.NewRaw([]byte("code"), []byte("data"))
	txGasMeter := gas.NewTxGasMeter(1000)

	verifiers := mapset.NewThreadUnsafeSet[common.Address](
		common.Internal(common.KindTempStorage),
		common.Internal(common.KindMultitoken),
	)
	keysChanged := mapset.NewThreadUnsafeSet[common.Key]()

	result, err := executeVPs(context.Background(), env, verifiers, keysChanged, tx, 0, state, txGasMeter, vm.NewCache())
	require.NoError(t, err)
	assert.True(t, result.Rejected.Contains(common.Internal(common.KindTempStorage)))
	assert.True(t, result.Accepted.Contains(common.Internal(common.KindMultitoken)))
}

// TestDispatch_WrapperInsufficientFeesDrainsBalance verifies that a payer
// unable to cover the full fee still has their entire balance drained, and
// dispatch fails Fee.
func TestDispatch_WrapperInsufficientFeesDrainsBalance(t *testing.T) {
	env := newTestEnv(&fakeTxRunner{verifiers: mapset.NewThreadUnsafeSet[common.Address]()})
	state := writelog.New(nullCommitted{})

	feeToken := common.Internal(common.KindMasp)
	payer := common.Implicit([common.AddressLength]byte{1})
	proposer := common.Implicit([common.AddressLength]byte{2})
	require.NoError(t, token.CreditTokens(state, feeToken, payer, token.NewAmount(10)))

	wrapper := types.WrapperTx{
		Fee:      types.Fee{AmountPerGasUnit: 1, Token: feeToken},
		FeePayer: payer,
		GasLimit: 100,
	}
	tx := types.NewWrapper(wrapper, []byte("code"), []byte("data"))
	txGasMeter := gas.NewTxGasMeter(10000)
	wrapperArgs := &WrapperArgs{BlockProposer: proposer}

	_, err := Dispatch(context.Background(), env, tx, []byte("bytes"), 0, txGasMeter, state, vm.NewCache(), vm.NewCache(), wrapperArgs)
	require.Error(t, err)
	var wre *WrapperRunnerError
	require.ErrorAs(t, err, &wre)
	assert.ErrorIs(t, err, ErrFee)

	payerBalance, err := token.ReadBalance(state, feeToken, payer)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), payerBalance.Uint64())

	proposerBalance, err := token.ReadBalance(state, feeToken, proposer)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), proposerBalance.Uint64())

	replayed, err := state.HasReplayProtectionEntry(tx.HeaderHash())
	require.NoError(t, err)
	assert.True(t, replayed)
}

// TestDispatch_FeeUnshieldingRejectedFallsBackToTransparentFees verifies
// that a MASP unshield sub-execution rejected by its VPs must not block
// the wrapper from collecting its fee transparently, and must report
// IsCommittedFeeUnshield == false.
func TestDispatch_FeeUnshieldingRejectedFallsBackToTransparentFees(t *testing.T) {
	rejecting := mapset.NewThreadUnsafeSet[common.Address](common.Internal(common.KindTempStorage))
	env := newTestEnv(&fakeTxRunner{verifiers: rejecting})
	state := writelog.New(nullCommitted{})

	feeToken := common.Internal(common.KindMasp)
	payer := common.Implicit([common.AddressLength]byte{1})
	proposer := common.Implicit([common.AddressLength]byte{2})
	require.NoError(t, token.CreditTokens(state, feeToken, payer, token.NewAmount(1000)))
	require.NoError(t, state.Write(common.WasmCodeNameKey("tx_transfer.wasm"), []byte("transfer-code")))

	unshieldSection := types.Section{Type: types.SectionMaspTx, Bytes: []byte("masp-proof")}
	hash := unshieldSection.Hash()
	wrapper := types.WrapperTx{
		Fee:                 types.Fee{AmountPerGasUnit: 1, Token: feeToken},
		FeePayer:            payer,
		GasLimit:            1000,
		UnshieldSectionHash: &hash,
	}
	tx := &types.Tx{
		Header: types.Header{Type: types.TxTypeWrapper, Wrapper: &wrapper},
		Sections: []types.Section{
			{Type: types.SectionCode, Bytes: []byte("code")},
			{Type: types.SectionData, Bytes: []byte("data")},
			unshieldSection,
		},
	}
	wrapperArgs := &WrapperArgs{BlockProposer: proposer}
	txGasMeter := gas.NewTxGasMeter(100000)

	result, err := Dispatch(context.Background(), env, tx, []byte("bytes"), 0, txGasMeter, state, vm.NewCache(), vm.NewCache(), wrapperArgs)
	require.NoError(t, err)
	require.NoError(t, FinalizeInner(state, result))

	assert.False(t, wrapperArgs.IsCommittedFeeUnshield)

	proposerBalance, err := token.ReadBalance(state, feeToken, proposer)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), proposerBalance.Uint64())
}

// TestDispatch_ReplayRejected verifies that dispatching the same wrapper
// transaction twice rejects the second attempt as a replay.
func TestDispatch_ReplayRejected(t *testing.T) {
	env := newTestEnv(&fakeTxRunner{verifiers: mapset.NewThreadUnsafeSet[common.Address]()})
	state := writelog.New(nullCommitted{})

	feeToken := common.Internal(common.KindMasp)
	payer := common.Implicit([common.AddressLength]byte{1})
	proposer := common.Implicit([common.AddressLength]byte{2})
	require.NoError(t, token.CreditTokens(state, feeToken, payer, token.NewAmount(1000)))

	wrapper := types.WrapperTx{
		Fee:      types.Fee{AmountPerGasUnit: 1, Token: feeToken},
		FeePayer: payer,
		GasLimit: 100,
	}
	tx := types.NewWrapper(wrapper, []byte("code"), []byte("data"))
	wrapperArgs := &WrapperArgs{BlockProposer: proposer}

	txGasMeter := gas.NewTxGasMeter(10000)
	result, err := Dispatch(context.Background(), env, tx, []byte("bytes"), 0, txGasMeter, state, vm.NewCache(), vm.NewCache(), wrapperArgs)
	require.NoError(t, err)
	require.NoError(t, FinalizeInner(state, result))

	txGasMeter2 := gas.NewTxGasMeter(10000)
	_, err = Dispatch(context.Background(), env, tx, []byte("bytes"), 0, txGasMeter2, state, vm.NewCache(), vm.NewCache(), wrapperArgs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReplayAttempt)
}
