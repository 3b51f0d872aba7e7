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

// Package types holds the transaction, section and result types shared by
// every stage of the dispatch pipeline: three disjoint header variants
// (Raw, Wrapper, Protocol) the protocol core classifies on.
package types

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/valora-chain/ledger/common"
)

// TxType discriminates the three disjoint header variants.
type TxType uint8

const (
	TxTypeRaw TxType = iota
	TxTypeWrapper
	TxTypeProtocol
)

func (t TxType) String() string {
	switch t {
	case TxTypeRaw:
		return "Raw"
	case TxTypeWrapper:
		return "Wrapper"
	case TxTypeProtocol:
		return "Protocol"
	default:
		return fmt.Sprintf("TxType(%d)", uint8(t))
	}
}

// ProtocolKind distinguishes the vote-extension and non-vote-extension
// protocol transaction payloads.
type ProtocolKind uint8

const (
	ProtocolEthEventsVext ProtocolKind = iota
	ProtocolBridgePoolVext
	ProtocolValSetUpdateVext
	ProtocolEthereumEvents
	ProtocolBridgePool
	ProtocolValidatorSetUpdate
)

// Fee describes a wrapper's per-gas-unit fee and the token it is paid in.
type Fee struct {
	AmountPerGasUnit uint64
	Token            common.Address
}

// WrapperTx carries the outer, fee-paying envelope's metadata.
type WrapperTx struct {
	Fee                 Fee
	FeePayer             common.Address
	GasLimit            uint64
	UnshieldSectionHash *common.Hash
}

// GetTxFee computes fee = AmountPerGasUnit * GasLimit, failing on overflow.
func (w *WrapperTx) GetTxFee() (uint64, error) {
	var a, b, product uint256.Int
	a.SetUint64(w.Fee.AmountPerGasUnit)
	b.SetUint64(w.GasLimit)
	product.MulOverflow(&a, &b)
	if !product.IsUint64() {
		return 0, fmt.Errorf("fee computation overflowed: %d * %d", w.Fee.AmountPerGasUnit, w.GasLimit)
	}
	return product.Uint64(), nil
}

// Header carries exactly one of the three disjoint variants.
type Header struct {
	Type     TxType
	Wrapper  *WrapperTx
	Protocol *ProtocolKind
}

// SectionType discriminates the addressable payload sections a Tx carries.
type SectionType uint8

const (
	SectionCode SectionType = iota
	SectionData
	SectionSignature
	SectionMaspTx
)

// Section is a cryptographic-hash-addressable piece of a transaction: code,
// data, a signature, or (at most one) MASP shielded section.
type Section struct {
	Type  SectionType
	Bytes []byte
}

// Hash returns the section's content hash, used to address it from
// WrapperTx.UnshieldSectionHash and from Tx.GetSection.
func (s Section) Hash() common.Hash {
	return common.HashData([]byte{byte(s.Type)}, s.Bytes)
}

// Tx is an immutable transaction descriptor: a header plus a set of
// hash-addressable sections.
type Tx struct {
	Header   Header
	Sections []Section
}

// NewRaw builds a Raw-header transaction wrapping a single code+data pair.
func NewRaw(code, data []byte) *Tx {
	return &Tx{
		Header:   Header{Type: TxTypeRaw},
		Sections: []Section{{Type: SectionCode, Bytes: code}, {Type: SectionData, Bytes: data}},
	}
}

// NewWrapper builds a Wrapper-header transaction around an inner Raw payload.
func NewWrapper(wrapper WrapperTx, code, data []byte) *Tx {
	return &Tx{
		Header:   Header{Type: TxTypeWrapper, Wrapper: &wrapper},
		Sections: []Section{{Type: SectionCode, Bytes: code}, {Type: SectionData, Bytes: data}},
	}
}

// NewProtocol builds a Protocol-header transaction carrying raw vote
// extension data.
func NewProtocol(kind ProtocolKind, data []byte) *Tx {
	return &Tx{
		Header:   Header{Type: TxTypeProtocol, Protocol: &kind},
		Sections: []Section{{Type: SectionData, Bytes: data}},
	}
}

// Code returns the bytes of the first Code section, or nil.
func (t *Tx) Code() []byte {
	for _, s := range t.Sections {
		if s.Type == SectionCode {
			return s.Bytes
		}
	}
	return nil
}

// Data returns the bytes of the first Data section, or nil.
func (t *Tx) Data() []byte {
	for _, s := range t.Sections {
		if s.Type == SectionData {
			return s.Bytes
		}
	}
	return nil
}

// GetSection looks up a section by its content hash.
func (t *Tx) GetSection(h common.Hash) (*Section, bool) {
	for i := range t.Sections {
		if t.Sections[i].Hash() == h {
			return &t.Sections[i], true
		}
	}
	return nil, false
}

// HeaderHash identifies the wrapper-level transaction. It hashes the header
// type, the wrapper's gas limit (if any) and every section's hash; the
// wrapper's fee, fee payer and unshield section hash do not enter it.
func (t *Tx) HeaderHash() common.Hash {
	buf := []byte{byte(t.Header.Type)}
	if t.Header.Wrapper != nil {
		var limitBytes [8]byte
		binary.BigEndian.PutUint64(limitBytes[:], t.Header.Wrapper.GasLimit)
		buf = append(buf, limitBytes[:]...)
	}
	for _, s := range t.Sections {
		h := s.Hash()
		buf = append(buf, h.Bytes()...)
	}
	return common.HashData(buf)
}

// RawHeaderHash identifies the inner payload independent of the wrapper
// envelope, used as the replay-protection key.
func (t *Tx) RawHeaderHash() common.Hash {
	buf := []byte{byte(TxTypeRaw)}
	for _, s := range t.Sections {
		if s.Type == SectionCode || s.Type == SectionData {
			h := s.Hash()
			buf = append(buf, h.Bytes()...)
		}
	}
	return common.HashData(buf)
}
