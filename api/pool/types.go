// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/vechain/stakepool/stakepool"
	"github.com/vechain/stakepool/thor"
)

// Pool is the pool record together with its derived addresses.
type Pool struct {
	*stakepool.Pool
	Addresses stakepool.Addresses `json:"addresses"`
}

// Stake is the stake record of an owner.
type Stake struct {
	Owner         thor.Address `json:"owner"`
	Address       thor.Address `json:"address"`
	Amount        uint64       `json:"amount"`
	PendingReward uint64       `json:"pendingReward"`
}
