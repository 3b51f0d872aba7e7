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

// Package token implements the balance bookkeeping the Wrapper Processor's
// fee step and ordinary transfers rely on: reads and writes through the
// write-log, with uint256-backed checked sub/add against a tracked
// balance.
package token

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/valora-chain/ledger/common"
	"github.com/valora-chain/ledger/core/writelog"
)

// Amount is a token quantity. uint256 is used for overflow-checked
// arithmetic even though practical supplies fit in far fewer bits.
type Amount struct{ v uint256.Int }

// NewAmount constructs an Amount from a plain uint64.
func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// Uint64 returns the amount truncated to 64 bits; callers only use this for
// display/testing, never for arithmetic.
func (a Amount) Uint64() uint64 { return a.v.Uint64() }

// CheckedSub returns a-b and true, or the zero value and false on underflow.
func (a Amount) CheckedSub(b Amount) (Amount, bool) {
	var out Amount
	if a.v.Lt(&b.v) {
		return out, false
	}
	out.v.Sub(&a.v, &b.v)
	return out, true
}

// CheckedAdd returns a+b and true, or the zero value and false on overflow.
func (a Amount) CheckedAdd(b Amount) (Amount, bool) {
	var out Amount
	_, overflow := out.v.AddOverflow(&a.v, &b.v)
	if overflow {
		return Amount{}, false
	}
	return out, true
}

func (a Amount) bytes() []byte {
	b := a.v.Bytes32()
	return b[:]
}

func amountFromBytes(b []byte) Amount {
	var a Amount
	a.v.SetBytes(b)
	return a
}

// ErrInsufficientBalance reports a transfer whose source balance can't
// cover the requested amount.
var ErrInsufficientBalance = errors.New("insufficient source balance")

// ErrBalanceOverflow mirrors "the transfer would overflow destination balance".
var ErrBalanceOverflow = errors.New("destination balance overflow")

// ReadBalance reads a token balance through the write-log. A missing key is
// treated as a zero balance, matching an uninitialized account.
func ReadBalance(l *writelog.Log, token, owner common.Address) (Amount, error) {
	v, ok, err := l.Read(common.BalanceKey(token, owner))
	if err != nil {
		return Amount{}, err
	}
	if !ok {
		return NewAmount(0), nil
	}
	return amountFromBytes(v), nil
}

func writeBalance(l *writelog.Log, token, owner common.Address, amount Amount) error {
	return l.Write(common.BalanceKey(token, owner), amount.bytes(), token, owner)
}

// Transfer moves amount of token from src to dst through the write-log's tx
// buffer. A same-address transfer is a no-op that succeeds without
// mutation.
func Transfer(l *writelog.Log, token, src, dst common.Address, amount Amount) error {
	if src.Equal(dst) {
		return nil
	}
	srcBalance, err := ReadBalance(l, token, src)
	if err != nil {
		return err
	}
	newSrc, ok := srcBalance.CheckedSub(amount)
	if !ok {
		return ErrInsufficientBalance
	}
	dstBalance, err := ReadBalance(l, token, dst)
	if err != nil {
		return err
	}
	newDst, ok := dstBalance.CheckedAdd(amount)
	if !ok {
		return ErrBalanceOverflow
	}
	if err := writeBalance(l, token, src, newSrc); err != nil {
		return err
	}
	return writeBalance(l, token, dst, newDst)
}

// CreditTokens increases owner's balance of token by amount, used by genesis
// setup and tests. It never fails except on overflow.
func CreditTokens(l *writelog.Log, token, owner common.Address, amount Amount) error {
	balance, err := ReadBalance(l, token, owner)
	if err != nil {
		return err
	}
	newBalance, ok := balance.CheckedAdd(amount)
	if !ok {
		return ErrBalanceOverflow
	}
	return writeBalance(l, token, owner, newBalance)
}

// DenomToAmount converts a raw fee quantity (already denominated in the
// token's base unit by the wrapper) into an Amount. The token module's
// per-denomination registry is native-VP-adjacent business logic and out of
// scope here; this is an identity conversion.
func DenomToAmount(raw uint64, _ common.Address) (Amount, error) {
	return NewAmount(raw), nil
}
