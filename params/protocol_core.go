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

package params

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ProtocolCoreParams holds the handful of protocol-wide parameters the
// dispatch core consults directly, analogous to ChainConfig's fork-block
// fields but loaded from the node's TOML config rather than genesis.
type ProtocolCoreParams struct {
	// FeeUnshieldingGasLimit ceilings the private gas meter a fee-unshield
	// sub-execution runs under.
	FeeUnshieldingGasLimit uint64 `toml:"fee_unshielding_gas_limit"`
}

// DefaultProtocolCoreParams mirrors mainnet defaults used when no config
// file overrides them.
var DefaultProtocolCoreParams = ProtocolCoreParams{
	FeeUnshieldingGasLimit: 20_000_000,
}

// LoadProtocolCoreParams reads parameters from a TOML file, falling back to
// DefaultProtocolCoreParams for any field the file omits, using a
// decode-into-defaults-then-override pattern.
func LoadProtocolCoreParams(path string) (ProtocolCoreParams, error) {
	p := DefaultProtocolCoreParams
	f, err := os.Open(path)
	if err != nil {
		return p, fmt.Errorf("params: opening protocol core config: %w", err)
	}
	defer f.Close()
	if _, err := toml.NewDecoder(f).Decode(&p); err != nil {
		return p, fmt.Errorf("params: decoding protocol core config: %w", err)
	}
	return p, nil
}
