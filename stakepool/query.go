// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/vechain/stakepool/thor"
)

//
// Getters - no state change
//

// Pool returns the pool, nil if it's not initialized.
func (s *Staker) Pool() (*Pool, error) {
	pool, _, err := s.getPool()
	return pool, err
}

// UserStake returns the stake record of owner, nil if owner never staked.
func (s *Staker) UserStake(owner thor.Address) (*UserStake, error) {
	stake, _, _, err := s.getUserStake(owner)
	return stake, err
}

// PendingReward returns what a claim by owner would mint now.
func (s *Staker) PendingReward(owner thor.Address) (uint64, error) {
	pool, _, err := s.mustGetPool()
	if err != nil {
		return 0, err
	}
	stake, _, _, err := s.getUserStake(owner)
	if err != nil || stake == nil {
		return 0, err
	}
	return stake.Reward(pool.RewardRate)
}

// Iterator walks records owned by the program.
type Iterator func(fn func(account thor.Address, raw []byte) bool) error

// AuditReport compares the pool total with the stake records and the vault balance.
type AuditReport struct {
	TotalStaked  uint64 `json:"totalStaked"`
	SumOfStakes  uint64 `json:"sumOfStakes"`
	VaultBalance uint64 `json:"vaultBalance"`
	Stakers      int    `json:"stakers"`
	Consistent   bool   `json:"consistent"`
}

// Audit sums every stake record yielded by iter. iter must walk the same records the
// staker reads, i.e. committed state with no pending changes.
func (s *Staker) Audit(iter Iterator) (*AuditReport, error) {
	pool, _, err := s.mustGetPool()
	if err != nil {
		return nil, err
	}
	vault, err := s.bank.Account(s.Addresses().Vault)
	if err != nil {
		return nil, err
	}

	report := &AuditReport{
		TotalStaked:  pool.TotalStaked,
		VaultBalance: vault.Amount,
	}
	var werr error
	if err := iter(func(_ thor.Address, raw []byte) bool {
		stake, ok, err := DecodeUserStake(raw)
		if err != nil {
			werr = err
			return false
		}
		if !ok {
			return true
		}
		sum, overflow := math.SafeAdd(report.SumOfStakes, stake.Amount)
		if overflow {
			werr = ErrMathOverflow
			return false
		}
		report.SumOfStakes = sum
		report.Stakers++
		return true
	}); err != nil {
		return nil, err
	}
	if werr != nil {
		return nil, werr
	}

	report.Consistent = report.TotalStaked == report.SumOfStakes && report.TotalStaked == report.VaultBalance
	return report, nil
}
