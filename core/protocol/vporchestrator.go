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
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"github.com/valora-chain/ledger/common"
	"github.com/valora-chain/ledger/core/gas"
	"github.com/valora-chain/ledger/core/nativevp"
	"github.com/valora-chain/ledger/core/types"
	"github.com/valora-chain/ledger/core/vm"
	"github.com/valora-chain/ledger/core/writelog"
)

// vpTaskResult is one verifier's outcome, gathered without locking by giving
// each goroutine its own pre-sized slot.
type vpTaskResult struct {
	addr     common.Address
	accepted bool
	err      error
	gasUsed  uint64
}

// executeVPs evaluates every verifier's VP in parallel under a shared gas
// ceiling and aggregates the outcome, using one errgroup.Group with one
// goroutine per verifier for independent, side-effect-free work: a data-parallel map with
// an associative reduction instead of a first-result-wins race.
func executeVPs(ctx context.Context, env *Env, verifiers mapset.Set[common.Address], keysChanged mapset.Set[common.Key],
	tx *types.Tx, txIndex uint32, state *writelog.Log, txGasMeter *gas.TxGasMeter, vpCache *vm.Cache) (*types.VpsResult, error) {

	ordered := verifiers.ToSlice()
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].String() < ordered[j].String() })

	results := make([]vpTaskResult, len(ordered))
	vpGasMeters := make([]*gas.VpGasMeter, len(ordered))

	g, gctx := errgroup.WithContext(ctx)
	for i, addr := range ordered {
		i, addr := i, addr
		vpGasMeter := gas.NewVpGasMeterFromTxMeter(txGasMeter)
		vpGasMeters[i] = vpGasMeter
		g.Go(func() error {
			cacheClone := vpCache.Clone()
			accepted, err := runOneVP(gctx, env, addr, tx, txIndex, state, keysChanged, verifiers, vpGasMeter, cacheClone)
			results[i] = vpTaskResult{addr: addr, accepted: accepted, err: err, gasUsed: vpGasMeter.Consumed()}
			if err != nil && classify(err) == RunnerErrorGas {
				// Gas is the only error kind that short-circuits the
				// reduction: returning it here cancels gctx, and g.Wait()
				// returns this error once the remaining tasks have returned.
				return fmt.Errorf("%w: vp %s: %v", ErrGas, addr, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := types.NewVpsResult()
	for _, r := range results {
		out.GasUsed += r.gasUsed
		if r.err != nil {
			out.Rejected.Add(r.addr)
			out.Errors = append(out.Errors, types.VpError{Address: r.addr, Message: r.err.Error()})
			if classify(r.err) == RunnerErrorInvalidSectionSignature {
				out.StatusFlags |= types.StatusInvalidSignature
			}
			continue
		}
		if r.accepted {
			out.Accepted.Add(r.addr)
		} else {
			out.Rejected.Add(r.addr)
		}
	}
	// errors is already in canonical (sorted-by-address) order because
	// ordered was sorted before dispatch and results preserves that index
	// order, keeping the outcome deterministic regardless of goroutine
	// completion order.
	//
	// The combined VP consumption is re-checked against the shared ceiling on
	// a scratch meter seeded from the tx meter; the tx meter itself is charged
	// once, by the caller's AddVpsGas(out.GasUsed).
	ceilingCheck := gas.NewTxGasMeter(txGasMeter.Limit())
	if err := ceilingCheck.CopyConsumedGasFrom(txGasMeter); err != nil {
		return nil, err
	}
	for _, m := range vpGasMeters {
		if err := ceilingCheck.Merge(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// runOneVP evaluates a single verifier address: native dispatch for
// Internal addresses (the closed table plus the two sentinel and two
// co-verified kinds), or a sandboxed VpRunner invocation for
// Implicit/Established addresses.
func runOneVP(ctx context.Context, env *Env, addr common.Address, tx *types.Tx, txIndex uint32, state *writelog.Log,
	keysChanged mapset.Set[common.Key], verifiers mapset.Set[common.Address], vpGasMeter *gas.VpGasMeter, cache *vm.Cache) (bool, error) {

	if addr.IsInternal() {
		if addr.IsSentinel() {
			return false, fmt.Errorf("%w: %s is a policy sentinel", ErrAccessForbidden, addr)
		}
		if addr.RequiresCoVerifier() {
			if !verifiers.Contains(common.Internal(common.KindMultitoken)) {
				return false, fmt.Errorf("%w: %s requires the multitoken co-verifier", ErrAccessForbidden, addr)
			}
			return true, nil
		}
		vp, ok := env.Natives.Lookup(addr)
		if !ok {
			return false, fmt.Errorf("%w: no native vp registered for %s", ErrMissingAddress, addr)
		}
		nctx := nativevp.Ctx{Tx: tx, KeysChanged: keysChanged, VerifiersFromTx: verifiers, GasMeter: vpGasMeter}
		accepted, err := vp.ValidateTx(ctx, nctx, addr)
		if err != nil {
			return false, err
		}
		return accepted, nil
	}

	raw, ok, err := state.Read(common.ValidityPredicateKey(addr))
	if err != nil {
		return false, fmt.Errorf("%w: reading vp code hash for %s: %v", ErrState, addr, err)
	}
	if cerr := vpGasMeter.Consume(VpCodeReadGas); cerr != nil {
		return false, cerr
	}
	if !ok {
		return false, fmt.Errorf("%w: no vp bound to %s", ErrMissingAddress, addr)
	}
	vpCodeHash := common.BytesToHash(raw)
	accepted, err := env.VpRunner.RunVp(ctx, state, vpCodeHash, tx, txIndex, addr, keysChanged, verifiers, vpGasMeter, cache)
	if err != nil {
		switch classify(err) {
		case RunnerErrorGas:
			return false, err
		case RunnerErrorInvalidSectionSignature:
			return false, fmt.Errorf("%w: %w", ErrInvalidSectionSignature, err)
		default:
			return false, fmt.Errorf("%w: %v", ErrVpRunner, err)
		}
	}
	return accepted, nil
}
