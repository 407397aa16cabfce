// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/vechain/stakepool/stakepool"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/tx"
)

// token event kinds, next to the stakepool ones.
const (
	MintCreated      = "MintCreated"
	AccountCreated   = "AccountCreated"
	Minted           = "Minted"
	MintAuthoritySet = "MintAuthoritySet"
)

// Event is a record of what an executed transaction did.
type Event struct {
	Kind    string       `json:"kind"`
	Account thor.Address `json:"account"`
	Amount  uint64       `json:"amount"`
	Total   uint64       `json:"total"`
}

// Receipt is the outcome of an executed transaction. A reverted transaction changed
// nothing but consumed its id.
type Receipt struct {
	TxID      thor.Bytes32 `json:"txID"`
	Origin    thor.Address `json:"origin"`
	Kind      tx.Kind      `json:"kind"`
	Reverted  bool         `json:"reverted"`
	Code      string       `json:"code,omitempty"`
	Message   string       `json:"message,omitempty"`
	Events    []*Event     `json:"events"`
	StateHash thor.Bytes32 `json:"stateHash"`
}

func convertEvents(events []*stakepool.Event) []*Event {
	out := make([]*Event, 0, len(events))
	for _, ev := range events {
		out = append(out, &Event{
			Kind:    string(ev.Kind),
			Account: ev.Account,
			Amount:  ev.Amount,
			Total:   ev.Total,
		})
	}
	return out
}
