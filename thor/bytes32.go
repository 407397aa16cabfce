// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/hex"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Bytes32 is a 32-byte digest. Transaction ids, state hashes and
// custody seeds are all carried as Bytes32.
type Bytes32 [32]byte

var (
	_ json.Marshaler   = (*Bytes32)(nil)
	_ json.Unmarshaler = (*Bytes32)(nil)
)

func (b Bytes32) String() string { return "0x" + hex.EncodeToString(b[:]) }

// Bytes returns b as a slice.
func (b Bytes32) Bytes() []byte { return b[:] }

func (b Bytes32) IsZero() bool { return b == Bytes32{} }

func (b *Bytes32) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	return json.Marshal(b.String())
}

func (b *Bytes32) UnmarshalJSON(data []byte) error {
	return unmarshalFixedHex(data, b[:])
}

// ParseBytes32 decodes a 64 digit hex string, with or without the 0x prefix.
func ParseBytes32(s string) (b Bytes32, err error) {
	err = decodeFixedHex(s, b[:])
	return
}

// BytesToBytes32 left-pads (or left-crops) b into a Bytes32.
func BytesToBytes32(b []byte) Bytes32 {
	return Bytes32(common.BytesToHash(b))
}

// decodeFixedHex decodes s into out, which must be filled exactly.
// On failure out is left zeroed.
func decodeFixedHex(s string, out []byte) error {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	} else if len(s) == len(out)*2+2 {
		return errors.New("invalid prefix")
	}
	if len(s) != len(out)*2 {
		return errors.Errorf("invalid length: want %d hex digits", len(out)*2)
	}
	if _, err := hex.Decode(out, []byte(s)); err != nil {
		clear(out)
		return err
	}
	return nil
}

func unmarshalFixedHex(data []byte, out []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	tmp := make([]byte, len(out))
	if err := decodeFixedHex(s, tmp); err != nil {
		return err
	}
	copy(out, tmp)
	return nil
}
