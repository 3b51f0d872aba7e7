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

package nativevp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valora-chain/ledger/common"
)

func TestDefaultTable_CoversEveryDeclaredKind(t *testing.T) {
	table := DefaultTable()

	sentinels := []common.InternalKind{common.KindPosSlashPool, common.KindTempStorage}
	for _, k := range sentinels {
		vp, ok := table[k]
		require.True(t, ok, "sentinel kind %s must be registered", k)
		accepted, err := vp.ValidateTx(context.Background(), Ctx{}, common.Internal(k))
		assert.False(t, accepted)
		assert.ErrorIs(t, err, ErrAccessForbidden)
	}

	accepting := []common.InternalKind{
		common.KindPoS, common.KindGovernance, common.KindIbc, common.KindParameters,
		common.KindMultitoken, common.KindPgf, common.KindEthBridge, common.KindEthBridgePool,
		common.KindNut, common.KindMasp,
	}
	for _, k := range accepting {
		vp, ok := table[k]
		require.True(t, ok, "kind %s must be registered", k)
		accepted, err := vp.ValidateTx(context.Background(), Ctx{}, common.Internal(k))
		require.NoError(t, err)
		assert.True(t, accepted)
	}
}

func TestLookup_NonInternalAddressNotFound(t *testing.T) {
	table := DefaultTable()
	implicit := common.Implicit([common.AddressLength]byte{1})

	vp, ok := table.Lookup(implicit)
	assert.Nil(t, vp)
	assert.False(t, ok)
}

func TestLookup_CoVerifiedKindsNotFound(t *testing.T) {
	table := DefaultTable()

	for _, k := range []common.InternalKind{common.KindIbcToken, common.KindErc20} {
		addr := common.InternalWithSub(k, [common.AddressLength]byte{7})
		vp, ok := table.Lookup(addr)
		assert.Nil(t, vp, "co-verified kind %s must not resolve to its own native vp", k)
		assert.False(t, ok)
	}
}

func TestLookup_OrdinaryInternalKindFound(t *testing.T) {
	table := DefaultTable()

	vp, ok := table.Lookup(common.Internal(common.KindPoS))
	require.True(t, ok)
	require.NotNil(t, vp)
}

func TestVPFunc_AdaptsPlainFunction(t *testing.T) {
	calledWith := common.Address{}
	fn := VPFunc(func(_ context.Context, _ Ctx, self common.Address) (bool, error) {
		calledWith = self
		return true, nil
	})

	self := common.Internal(common.KindGovernance)
	accepted, err := fn.ValidateTx(context.Background(), Ctx{}, self)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, self, calledWith)
}
