// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/thor"
)

// record kinds, stored as the first byte of every record.
const (
	kindMint    byte = 1
	kindAccount byte = 2
)

// Mint describes a token. Only Authority may create new units.
type Mint struct {
	Authority thor.Address
	Supply    uint64
	Decimals  uint8
}

// Account holds the balance of Owner in units of Mint.
type Account struct {
	Mint   thor.Address
	Owner  thor.Address
	Amount uint64
}

func encode(kind byte, v any) ([]byte, error) {
	data, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, err
	}
	return append([]byte{kind}, data...), nil
}

func decode(raw []byte, kind byte, v any) error {
	if raw[0] != kind {
		return errors.Errorf("unexpected record kind %d", raw[0])
	}
	return rlp.DecodeBytes(raw[1:], v)
}

// Authority approves debits on behalf of an owner address.
type Authority interface {
	Authorizes(owner thor.Address) bool
}

// Signer is the authority of an externally owned address, established by a verified signature.
type Signer thor.Address

func (s Signer) Authorizes(owner thor.Address) bool {
	return thor.Address(s) == owner
}
