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
	"github.com/valora-chain/ledger/core/nativevp"
	"github.com/valora-chain/ledger/core/vm"
	"github.com/valora-chain/ledger/log"
	"github.com/valora-chain/ledger/params"
)

// VpCodeReadGas is charged each time the orchestrator looks up an
// Implicit/Established address's bound VP code hash. A real storage read
// would cost whatever the backend's own cost model says; this core treats
// every read as the same fixed price since the storage backend's real cost
// model is out of scope.
const VpCodeReadGas uint64 = 1

// Env bundles the out-of-scope collaborators the dispatch core consumes,
// injected rather than constructed internally so callers can swap in fakes
// for testing or alternate runner/parameter implementations.
type Env struct {
	TxRunner  vm.TxRunner
	VpRunner  vm.VpRunner
	Natives   nativevp.Table
	Params    params.ProtocolCoreParams
	Log       log.Logger
}

// NewEnv constructs an Env with the default native VP table if natives is
// nil.
func NewEnv(txRunner vm.TxRunner, vpRunner vm.VpRunner, natives nativevp.Table, p params.ProtocolCoreParams) *Env {
	if natives == nil {
		natives = nativevp.DefaultTable()
	}
	return &Env{
		TxRunner: txRunner,
		VpRunner: vpRunner,
		Natives:  natives,
		Params:   p,
		Log:      log.New("module", "protocol"),
	}
}
