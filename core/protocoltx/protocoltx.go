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

// Package protocoltx implements the Protocol-Tx Applier: deterministic,
// gas-free, VP-free folding of validator vote extensions into storage. It
// reads and writes through the shared write-log so protocol-tx effects
// compose with ordinary transactions inside the same block.
package protocoltx

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/valora-chain/ledger/common"
	"github.com/valora-chain/ledger/core/types"
	"github.com/valora-chain/ledger/core/writelog"
	"github.com/valora-chain/ledger/log"
)

// ErrMalformed is returned when data is absent or fails to deserialize into
// the variant named by kind.
var ErrMalformed = errors.New("protocol tx: malformed payload")

// EthEventsVextPayload is a signed validator vote extension carrying
// observed Ethereum events.
type EthEventsVextPayload struct {
	Validator common.Address  `json:"validator"`
	Epoch     uint64          `json:"epoch"`
	Events    []ObservedEvent `json:"events"`
}

// ObservedEvent is one Ethereum event a validator claims to have observed.
type ObservedEvent struct {
	ID     string `json:"id"`
	Height uint64 `json:"height"`
}

// BridgePoolVextPayload is a signed bridge-pool-root attestation.
type BridgePoolVextPayload struct {
	Validator common.Address `json:"validator"`
	Root      string         `json:"root"`
	Nonce     uint64         `json:"nonce"`
	Height    uint64         `json:"height"`
}

// ValSetUpdateVextPayload aggregates a validator's signature over a
// validator-set-update proof for a given signing epoch.
type ValSetUpdateVextPayload struct {
	Validator    common.Address `json:"validator"`
	SigningEpoch uint64         `json:"signing_epoch"`
	Signature    []byte         `json:"signature"`
}

// ApplyProtocol deterministically folds kind's vote into storage. No gas is
// metered and no VPs run.
func ApplyProtocol(kind types.ProtocolKind, data []byte, state *writelog.Log) (*types.TxResult, error) {
	switch kind {
	case types.ProtocolEthEventsVext:
		if err := applyEthEventsVext(data, state); err != nil {
			return nil, err
		}
	case types.ProtocolBridgePoolVext:
		if err := applyBridgePoolVext(data, state); err != nil {
			return nil, err
		}
	case types.ProtocolValSetUpdateVext:
		if err := applyValSetUpdateVext(data, state); err != nil {
			return nil, err
		}
	case types.ProtocolEthereumEvents, types.ProtocolBridgePool, types.ProtocolValidatorSetUpdate:
		log.Warn("protocoltx: no-op protocol tx variant", "kind", kind)
	default:
		return nil, fmt.Errorf("%w: unknown protocol kind %d", ErrMalformed, kind)
	}

	result := types.NewTxResult()
	result.ChangedKeys = state.GetKeys()
	return result, nil
}

func decodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func encodeUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func decodeUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// readStake and readTotalStake consult the PoS key-space directly (opaque
// to this package beyond its shape); a missing key is treated as zero stake,
// the same convention decided for token balances (DESIGN.md).
func readStake(state *writelog.Log, validator common.Address, epoch uint64) (uint64, error) {
	v, ok, err := state.Read(posStakeKey(validator, epoch))
	if err != nil || !ok {
		return 0, err
	}
	return decodeUint64(v), nil
}

func readTotalStake(state *writelog.Log, epoch uint64) (uint64, error) {
	v, ok, err := state.Read(posTotalStakeKey(epoch))
	if err != nil || !ok {
		return 0, err
	}
	return decodeUint64(v), nil
}

func posStakeKey(validator common.Address, epoch uint64) common.Key {
	return common.NewKey("pos", "stake", validator.String(), strconv.FormatUint(epoch, 10))
}

func posTotalStakeKey(epoch uint64) common.Key {
	return common.NewKey("pos", "total_stake", strconv.FormatUint(epoch, 10))
}

func seenByKey(eventID string, validator common.Address) common.Key {
	return common.NewKey("protocoltx", "eth_events", eventID, "seen_by", validator.String())
}

func votingPowerFractionKey(eventID string) common.Key {
	return common.NewKey("protocoltx", "eth_events", eventID, "voting_power")
}

// applyEthEventsVext folds each observed event's vote into a per-event
// seen-by index and a running voting-power accumulator, keyed by event ID:
// (event_id) -> seen_by[validator]=height, voting_power=fraction. There is
// one voting-power accumulator per event; it is not split by epoch.
// Re-applying the same (validator, event) pair is a no-op.
func applyEthEventsVext(data []byte, state *writelog.Log) error {
	var payload EthEventsVextPayload
	if err := decodeJSON(data, &payload); err != nil {
		return err
	}
	stake, err := readStake(state, payload.Validator, payload.Epoch)
	if err != nil {
		return err
	}
	total, err := readTotalStake(state, payload.Epoch)
	if err != nil {
		return err
	}
	for _, ev := range payload.Events {
		key := seenByKey(ev.ID, payload.Validator)
		_, already, err := state.Read(key)
		if err != nil {
			return err
		}
		if already {
			continue
		}
		if err := state.Write(key, encodeUint64(ev.Height)); err != nil {
			return err
		}
		if err := accumulateVotingPower(state, votingPowerFractionKey(ev.ID), stake, total); err != nil {
			return err
		}
	}
	return nil
}

func bridgePoolSeenKey(root string, nonce, height uint64) common.Key {
	return common.NewKey("protocoltx", "bridge_pool", root, strconv.FormatUint(nonce, 10), strconv.FormatUint(height, 10), "seen_by")
}

func bridgePoolVotingPowerKey(root string, nonce, height uint64) common.Key {
	return common.NewKey("protocoltx", "bridge_pool", root, strconv.FormatUint(nonce, 10), strconv.FormatUint(height, 10), "voting_power")
}

// applyBridgePoolVext folds a bridge-pool-root attestation into per-root
// tallies keyed by (root, nonce, height).
func applyBridgePoolVext(data []byte, state *writelog.Log) error {
	var payload BridgePoolVextPayload
	if err := decodeJSON(data, &payload); err != nil {
		return err
	}
	seenKey := bridgePoolSeenKey(payload.Root, payload.Nonce, payload.Height)
	seen, _, err := readSeenSet(state, seenKey)
	if err != nil {
		return err
	}
	if seen.Contains(payload.Validator.String()) {
		return nil
	}
	stake, err := readStake(state, payload.Validator, 0)
	if err != nil {
		return err
	}
	total, err := readTotalStake(state, 0)
	if err != nil {
		return err
	}
	seen.Add(payload.Validator.String())
	if err := writeSeenSet(state, seenKey, seen); err != nil {
		return err
	}
	return accumulateVotingPower(state, bridgePoolVotingPowerKey(payload.Root, payload.Nonce, payload.Height), stake, total)
}

func valSetUpdateSignersKey(signingEpoch uint64) common.Key {
	return common.NewKey("protocoltx", "valset_update", strconv.FormatUint(signingEpoch, 10), "signers")
}

// applyValSetUpdateVext records each validator that signed the
// validator-set-update proof for signing_epoch in a deduplicated signer
// set. The signature bytes themselves are not stored.
func applyValSetUpdateVext(data []byte, state *writelog.Log) error {
	var payload ValSetUpdateVextPayload
	if err := decodeJSON(data, &payload); err != nil {
		return err
	}
	key := valSetUpdateSignersKey(payload.SigningEpoch)
	signers, _, err := readSeenSet(state, key)
	if err != nil {
		return err
	}
	if signers.Contains(payload.Validator.String()) {
		return nil
	}
	signers.Add(payload.Validator.String())
	return writeSeenSet(state, key, signers)
}

func readSeenSet(state *writelog.Log, key common.Key) (mapset.Set[string], bool, error) {
	v, ok, err := state.Read(key)
	if err != nil {
		return nil, false, err
	}
	out := mapset.NewThreadUnsafeSet[string]()
	if !ok {
		return out, false, nil
	}
	var members []string
	if err := json.Unmarshal(v, &members); err != nil {
		return out, true, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for _, m := range members {
		out.Add(m)
	}
	return out, true, nil
}

func writeSeenSet(state *writelog.Log, key common.Key, set mapset.Set[string]) error {
	members := set.ToSlice()
	b, err := json.Marshal(members)
	if err != nil {
		return err
	}
	return state.Write(key, b)
}

// accumulateVotingPower folds a validator's fractional stake weight into a
// running total stored at key, encoded as a fixed-point numerator over
// 1<<32 so it round-trips exactly through []byte without floating point.
func accumulateVotingPower(state *writelog.Log, key common.Key, stake, total uint64) error {
	if total == 0 {
		return nil
	}
	cur, ok, err := state.Read(key)
	if err != nil {
		return err
	}
	var curFixed uint64
	if ok {
		curFixed = decodeUint64(cur)
	}
	const scale = uint64(1) << 32
	curFixed += stake * scale / total
	return state.Write(key, encodeUint64(curFixed))
}
