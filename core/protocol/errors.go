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

// Package protocol implements the dispatch core: the Dispatcher, Wrapper
// Processor, Payload Executor and VP Orchestrator. A single entry point
// charges fees, runs a transaction's payload, and reports a result, with a
// sentinel error for every distinct failure mode along the way.
package protocol

import (
	"errors"

	"github.com/valora-chain/ledger/core/gas"
)

// Sentinel error kinds, one per distinct dispatch failure mode. All are
// wrapped with context via fmt.Errorf("%w: ...") at the point they're
// produced.
var (
	ErrReplayAttempt           = errors.New("replay attempt")
	ErrGas                     = errors.New("gas")
	ErrFee                     = errors.New("fee")
	ErrFeeUnshielding          = errors.New("fee unshielding failed")
	ErrInvalidSectionSignature = errors.New("invalid section signature")
	ErrTxRunner                = errors.New("tx runner error")
	ErrVpRunner                = errors.New("vp runner error")
	ErrMissingSection          = errors.New("missing section")
	ErrMissingAddress          = errors.New("missing address")
	ErrAccessForbidden         = errors.New("access forbidden")
	ErrState                   = errors.New("state error")
	ErrProtocolTx              = errors.New("protocol tx error")
)

// WrapperRunnerError wraps any error raised while applying the wrapper; it
// is always fatal to dispatch.
type WrapperRunnerError struct {
	Err error
}

func (e *WrapperRunnerError) Error() string { return "wrapper: " + e.Err.Error() }

func (e *WrapperRunnerError) Unwrap() error { return e.Err }

// RunnerErrorKind classifies an error returned by the out-of-scope sandboxed
// runner (vm.TxRunner / vm.VpRunner).
type RunnerErrorKind uint8

const (
	RunnerErrorOther RunnerErrorKind = iota
	RunnerErrorGas
	RunnerErrorMissingSection
	RunnerErrorInvalidSectionSignature
)

// ClassifiedRunnerError is the minimal contract a runner error must satisfy
// for the core to triage it without depending on the runner's concrete
// error types.
type ClassifiedRunnerError interface {
	error
	Kind() RunnerErrorKind
}

// classify maps an arbitrary runner or gas-meter error to a RunnerErrorKind,
// defaulting to Other when the error doesn't self-classify. gas.ErrOutOfGas
// is always Gas regardless of where it surfaced from (a runner, a native VP
// consuming its own gas meter, or the VP-code-hash storage read) so the Gas
// short-circuit in the VP Orchestrator triggers uniformly.
func classify(err error) RunnerErrorKind {
	if err == nil {
		return RunnerErrorOther
	}
	if errors.Is(err, gas.ErrOutOfGas) {
		return RunnerErrorGas
	}
	var ce ClassifiedRunnerError
	if errors.As(err, &ce) {
		return ce.Kind()
	}
	return RunnerErrorOther
}
