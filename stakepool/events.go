// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import "github.com/vechain/stakepool/thor"

// EventKind names what a successful transition did.
type EventKind string

const (
	PoolCreated  EventKind = "PoolCreated"
	Staked       EventKind = "Staked"
	Unstaked     EventKind = "Unstaked"
	RewardMinted EventKind = "RewardMinted"
)

// Event is emitted by successful transitions only.
type Event struct {
	Kind    EventKind    `json:"kind"`
	Account thor.Address `json:"account"`
	Amount  uint64       `json:"amount"`
	// Total is the pool total after the transition for stake events, the user's staked
	// amount for reward events.
	Total uint64 `json:"total"`
}
