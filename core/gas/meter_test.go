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

package gas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxGasMeter_Consume(t *testing.T) {
	tests := []struct {
		name    string
		limit   uint64
		consume uint64
		wantErr bool
	}{
		{"within limit", 100, 50, false},
		{"exactly at limit", 100, 100, false},
		{"over limit", 100, 101, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewTxGasMeter(tt.limit)
			err := m.Consume(tt.consume)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrOutOfGas)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.consume, m.Consumed())
		})
	}
}

func TestTxGasMeter_CopyConsumedGasFrom(t *testing.T) {
	outer := NewTxGasMeter(1000)
	require.NoError(t, outer.Consume(100))

	inner := NewTxGasMeter(500)
	require.NoError(t, inner.CopyConsumedGasFrom(outer))
	assert.Equal(t, uint64(100), inner.Consumed())

	require.NoError(t, inner.Consume(50))
	require.NoError(t, outer.CopyConsumedGasFrom(inner))
	assert.Equal(t, uint64(150), outer.Consumed())
}

func TestVpGasMeter_BoundedByTxMeterCeiling(t *testing.T) {
	txMeter := NewTxGasMeter(100)
	require.NoError(t, txMeter.Consume(60))

	vpMeter := NewVpGasMeterFromTxMeter(txMeter)
	require.NoError(t, vpMeter.Consume(40))
	assert.Equal(t, uint64(40), vpMeter.Consumed())

	err := vpMeter.Consume(1)
	require.ErrorIs(t, err, ErrOutOfGas)
}

func TestTxGasMeter_Merge(t *testing.T) {
	txMeter := NewTxGasMeter(100)
	vpMeter := NewVpGasMeterFromTxMeter(txMeter)
	require.NoError(t, vpMeter.Consume(30))

	require.NoError(t, txMeter.Merge(vpMeter))
	assert.Equal(t, uint64(30), txMeter.Consumed())
}
