// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/hex"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// AddressLength is the size of an account address in bytes.
const AddressLength = common.AddressLength

// Address identifies a ledger account: a signer, a token account, a mint,
// a program or a custody address derived from one.
type Address common.Address

var (
	_ json.Marshaler   = (*Address)(nil)
	_ json.Unmarshaler = (*Address)(nil)
)

func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

// Bytes returns a as a slice.
func (a Address) Bytes() []byte { return a[:] }

// IsZero reports whether a is the zero address, which is never a valid
// account.
func (a Address) IsZero() bool { return a == Address{} }

func (a *Address) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	return unmarshalFixedHex(data, a[:])
}

// ParseAddress decodes a 40 digit hex string, with or without the 0x prefix.
func ParseAddress(s string) (a Address, err error) {
	err = decodeFixedHex(s, a[:])
	return
}

// BytesToAddress left-pads (or left-crops) b into an Address.
func BytesToAddress(b []byte) Address {
	return Address(common.BytesToAddress(b))
}
