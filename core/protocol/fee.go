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
	"fmt"

	"github.com/valora-chain/ledger/common"
	"github.com/valora-chain/ledger/core/token"
	"github.com/valora-chain/ledger/core/writelog"
)

// checkFees verifies fee_payer's transparent balance covers fee without
// mutating state, used during mempool/proposal pre-checks where
// wrapper_args is absent.
func checkFees(l *writelog.Log, tok, payer common.Address, fee token.Amount) error {
	balance, err := token.ReadBalance(l, tok, payer)
	if err != nil {
		return fmt.Errorf("%w: reading fee payer balance: %v", ErrState, err)
	}
	if _, ok := balance.CheckedSub(fee); !ok {
		return fmt.Errorf("%w: insufficient balance to cover fee", ErrFee)
	}
	return nil
}

// transferFee actually moves fee from payer to proposer, used once
// wrapper_args is present. If payer's balance can't cover the full fee, it
// drains whatever is available to the proposer and still fails Fee — the
// partial transfer is intentional so a malicious payer can't resubmit
// indefinitely against the same balance.
func transferFee(l *writelog.Log, tok, payer, proposer common.Address, fee token.Amount) error {
	balance, err := token.ReadBalance(l, tok, payer)
	if err != nil {
		return fmt.Errorf("%w: reading fee payer balance: %v", ErrState, err)
	}
	if _, ok := balance.CheckedSub(fee); ok {
		if err := token.Transfer(l, tok, payer, proposer, fee); err != nil {
			return fmt.Errorf("%w: %v", ErrFee, err)
		}
		return nil
	}
	if err := token.Transfer(l, tok, payer, proposer, balance); err != nil {
		return fmt.Errorf("%w: draining available balance: %v", ErrFee, err)
	}
	return fmt.Errorf("%w: insufficient balance to cover fee, available balance drained", ErrFee)
}
