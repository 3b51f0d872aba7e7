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

package protocoltx

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valora-chain/ledger/common"
	"github.com/valora-chain/ledger/core/types"
	"github.com/valora-chain/ledger/core/writelog"
)

type nullCommitted struct{}

func (nullCommitted) Read(common.Key) ([]byte, bool, error) { return nil, false, nil }

func seedStake(t *testing.T, l *writelog.Log, validator common.Address, epoch, stake, total uint64) {
	t.Helper()
	require.NoError(t, l.Write(posStakeKey(validator, epoch), encodeUint64(stake)))
	require.NoError(t, l.Write(posTotalStakeKey(epoch), encodeUint64(total)))
}

// TestApplyProtocol_EthEventsVextIdempotent verifies that, with two
// validators staking 100 each, applying the same vote extension from
// validator A twice must not double count.
func TestApplyProtocol_EthEventsVextIdempotent(t *testing.T) {
	l := writelog.New(nullCommitted{})
	validatorA := common.Established([common.AddressLength]byte{0xA})
	seedStake(t, l, validatorA, 0, 100, 200)

	payload := EthEventsVextPayload{
		Validator: validatorA,
		Epoch:     0,
		Events:    []ObservedEvent{{ID: "event-1", Height: 100}},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	_, err = ApplyProtocol(types.ProtocolEthEventsVext, data, l)
	require.NoError(t, err)
	_, err = ApplyProtocol(types.ProtocolEthEventsVext, data, l)
	require.NoError(t, err)

	seenHeight, ok, err := l.Read(seenByKey("event-1", validatorA))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(100), decodeUint64(seenHeight))

	power, ok, err := l.Read(votingPowerFractionKey("event-1"))
	require.NoError(t, err)
	require.True(t, ok)
	// stake 100 / total 200 = 1/2, fixed-point scale 1<<32.
	assert.Equal(t, uint64(1)<<31, decodeUint64(power))
}

// TestApplyProtocol_EthEventsVextDistinctValidatorsBothCount verifies that
// a second, distinct validator voting for the same event counts separately.
func TestApplyProtocol_EthEventsVextDistinctValidatorsBothCount(t *testing.T) {
	l := writelog.New(nullCommitted{})
	validatorA := common.Established([common.AddressLength]byte{0xA})
	validatorB := common.Established([common.AddressLength]byte{0xB})
	seedStake(t, l, validatorA, 0, 100, 200)
	seedStake(t, l, validatorB, 0, 100, 200)

	for _, v := range []common.Address{validatorA, validatorB} {
		data, err := json.Marshal(EthEventsVextPayload{
			Validator: v,
			Epoch:     0,
			Events:    []ObservedEvent{{ID: "event-1", Height: 100}},
		})
		require.NoError(t, err)
		_, err = ApplyProtocol(types.ProtocolEthEventsVext, data, l)
		require.NoError(t, err)
	}

	power, ok, err := l.Read(votingPowerFractionKey("event-1"))
	require.NoError(t, err)
	require.True(t, ok)
	// Both validators' 1/2 shares sum to the full fixed-point scale.
	assert.Equal(t, uint64(1)<<32, decodeUint64(power))
}

// TestApplyProtocol_BridgePoolVextIdempotent verifies that applying the
// same bridge-pool-root attestation twice does not double count.
func TestApplyProtocol_BridgePoolVextIdempotent(t *testing.T) {
	l := writelog.New(nullCommitted{})
	validatorA := common.Established([common.AddressLength]byte{0xA})
	seedStake(t, l, validatorA, 0, 100, 200)

	payload := BridgePoolVextPayload{Validator: validatorA, Root: "root", Nonce: 1, Height: 100}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	_, err = ApplyProtocol(types.ProtocolBridgePoolVext, data, l)
	require.NoError(t, err)
	_, err = ApplyProtocol(types.ProtocolBridgePoolVext, data, l)
	require.NoError(t, err)

	power, ok, err := l.Read(bridgePoolVotingPowerKey("root", 1, 100))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1)<<31, decodeUint64(power))
}

func TestApplyProtocol_NoopVariantsWarnOnly(t *testing.T) {
	l := writelog.New(nullCommitted{})
	for _, kind := range []types.ProtocolKind{types.ProtocolEthereumEvents, types.ProtocolBridgePool, types.ProtocolValidatorSetUpdate} {
		result, err := ApplyProtocol(kind, nil, l)
		require.NoError(t, err)
		assert.Equal(t, 0, result.ChangedKeys.Cardinality())
	}
}

func TestApplyProtocol_MissingDataIsMalformed(t *testing.T) {
	l := writelog.New(nullCommitted{})
	_, err := ApplyProtocol(types.ProtocolEthEventsVext, nil, l)
	require.ErrorIs(t, err, ErrMalformed)
}
