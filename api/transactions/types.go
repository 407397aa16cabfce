// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/tx"
)

// RawTx is a rlp encoded, signed transaction in hex.
type RawTx struct {
	Raw string `json:"raw"`
}

func (r *RawTx) decode() (*tx.Transaction, error) {
	data, err := hexutil.Decode(r.Raw)
	if err != nil {
		return nil, err
	}
	var trx *tx.Transaction
	if err := rlp.DecodeBytes(data, &trx); err != nil {
		return nil, err
	}
	return trx, nil
}

// Executed tells whether a transaction id has been consumed.
type Executed struct {
	ID       thor.Bytes32 `json:"id"`
	Executed bool         `json:"executed"`
}
