// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

// well known program identities.
var (
	// StakePoolProgram is the default identity of the staking state machine. Custody addresses are
	// derived from it.
	StakePoolProgram = BytesToAddress([]byte("StakePool"))
	// TokenProgram owns every mint and token account record.
	TokenProgram = BytesToAddress([]byte("Token"))
)

const (
	// RewardRate is the reward divisor fixed at pool creation: reward = staked / RewardRate.
	RewardRate uint64 = 10

	// MaxSeedLength bounds every seed used for address derivation.
	MaxSeedLength = 32
	// MaxSeeds bounds the number of seeds used for address derivation.
	MaxSeeds = 16
)
