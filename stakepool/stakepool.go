// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakepool implements the staking pool state machine.
//
// Users deposit stake tokens into a vault held by the pool's custody address and may
// claim reward tokens worth one tenth of their staked balance. Every transition is
// all-or-nothing: on error the ledgers, the token accounts and the emitted events are
// restored to what they were before the call.
package stakepool

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/custody"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/token"
)

var logger = log.WithContext("pkg", "stakepool")

var (
	poolSeed  = []byte("pool")
	vaultSeed = []byte("vault")
	userSeed  = []byte("user")
)

// Bank is the token capability the pool moves funds with.
type Bank interface {
	Mint(addr thor.Address) (*token.Mint, error)
	Account(addr thor.Address) (*token.Account, error)
	CreateAccount(addr, mint, owner thor.Address) error
	Transfer(from, to thor.Address, authority token.Authority, amount uint64) error
	MintTo(mint, to thor.Address, authority token.Authority, amount uint64) error
}

// Staker runs the pool transitions of program on a state.
type Staker struct {
	program thor.Address
	state   *state.State
	bank    Bank
	events  []*Event
}

// New create a new instance.
func New(program thor.Address, st *state.State, bank Bank) *Staker {
	return &Staker{
		program: program,
		state:   st,
		bank:    bank,
	}
}

// Events returns the events emitted since the last call and resets the list.
func (s *Staker) Events() []*Event {
	events := s.events
	s.events = nil
	return events
}

func (s *Staker) emit(ev *Event) {
	s.events = append(s.events, ev)
}

// atomic runs fn inside a checkpoint. On error everything fn did is reverted.
func (s *Staker) atomic(fn func() error) error {
	revision := s.state.NewCheckpoint()
	emitted := len(s.events)
	if err := fn(); err != nil {
		s.state.RevertTo(revision)
		s.events = s.events[:emitted]
		return err
	}
	return nil
}

//
// Addresses
//

// Addresses lists the derived addresses of the pool.
type Addresses struct {
	Program   thor.Address `json:"program"`
	Pool      thor.Address `json:"pool"`
	PoolBump  uint8        `json:"poolBump"`
	Vault     thor.Address `json:"vault"`
	VaultBump uint8        `json:"vaultBump"`
}

// Addresses derives the pool and vault addresses.
func (s *Staker) Addresses() Addresses {
	pool, bump := custody.MustFindAddress(s.program, poolSeed)
	vault, vaultBump := custody.MustFindAddress(s.program, vaultSeed, pool.Bytes())
	return Addresses{
		Program:   s.program,
		Pool:      pool,
		PoolBump:  bump,
		Vault:     vault,
		VaultBump: vaultBump,
	}
}

// UserStakeAddress derives the address of the stake record of owner.
func (s *Staker) UserStakeAddress(owner thor.Address) (thor.Address, uint8) {
	return custody.MustFindAddress(s.program, userSeed, owner.Bytes())
}

//
// Records
//

func (s *Staker) getPool() (*Pool, thor.Address, error) {
	addr, _ := custody.MustFindAddress(s.program, poolSeed)
	var (
		pool  Pool
		found bool
	)
	if err := s.state.DecodeAccount(s.program, addr, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		found = true
		return decodeRecord(raw, poolDiscriminator, &pool)
	}); err != nil {
		return nil, addr, err
	}
	if !found {
		return nil, addr, nil
	}
	return &pool, addr, nil
}

func (s *Staker) mustGetPool() (*Pool, thor.Address, error) {
	pool, addr, err := s.getPool()
	if err != nil {
		return nil, addr, err
	}
	if pool == nil {
		return nil, addr, ErrNotInitialized
	}
	return pool, addr, nil
}

func (s *Staker) setPool(addr thor.Address, pool *Pool) error {
	return s.state.EncodeAccount(s.program, addr, func() ([]byte, error) {
		return encodeRecord(poolDiscriminator, pool)
	})
}

func (s *Staker) getUserStake(owner thor.Address) (*UserStake, thor.Address, uint8, error) {
	addr, bump := s.UserStakeAddress(owner)
	var (
		stake UserStake
		found bool
	)
	if err := s.state.DecodeAccount(s.program, addr, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		found = true
		return decodeRecord(raw, userStakeDiscriminator, &stake)
	}); err != nil {
		return nil, addr, bump, err
	}
	if !found {
		return nil, addr, bump, nil
	}
	return &stake, addr, bump, nil
}

func (s *Staker) setUserStake(addr thor.Address, stake *UserStake) error {
	return s.state.EncodeAccount(s.program, addr, func() ([]byte, error) {
		return encodeRecord(userStakeDiscriminator, stake)
	})
}

// checkTokenAccount validates a token account passed in by user. A wrong owner is
// an authorization failure, anything else is classified as failCode.
func (s *Staker) checkTokenAccount(addr, user, mint thor.Address, failCode Code) error {
	acc, err := s.bank.Account(addr)
	if err != nil {
		if errors.Is(err, token.ErrAccountNotFound) {
			return newError(failCode, err)
		}
		return err
	}
	if acc.Owner != user {
		return newError(AuthorizationFailure, errors.New("token account not owned by caller"))
	}
	if acc.Mint != mint {
		return newError(failCode, token.ErrMintMismatch)
	}
	return nil
}

// custodySigner proves the pool's authority over the vault and the reward mint.
func (s *Staker) custodySigner(pool *Pool) (*custody.Proof, error) {
	proof, err := custody.SignAs(s.program, pool.Bump, poolSeed)
	if err != nil {
		return nil, newError(AuthorizationFailure, err)
	}
	return proof, nil
}

//
// Transitions
//

// InitializePool creates the pool administered by admin, and its vault.
func (s *Staker) InitializePool(admin, stakeMint, rewardMint thor.Address) error {
	logger.Debug("initializing pool", "admin", admin, "stakeMint", stakeMint, "rewardMint", rewardMint)

	err := s.atomic(func() error {
		existing, poolAddr, err := s.getPool()
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyInitialized
		}
		if _, err := s.bank.Mint(stakeMint); err != nil {
			return newError(InvalidAccount, errors.WithMessage(err, "stake mint"))
		}
		if _, err := s.bank.Mint(rewardMint); err != nil {
			return newError(InvalidAccount, errors.WithMessage(err, "reward mint"))
		}

		addrs := s.Addresses()
		if err := s.bank.CreateAccount(addrs.Vault, stakeMint, poolAddr); err != nil {
			if errors.Is(err, token.ErrAccountExists) {
				return newError(InvalidAccount, errors.WithMessage(err, "vault"))
			}
			return err
		}

		if err := s.setPool(poolAddr, &Pool{
			Authority:   admin,
			StakeMint:   stakeMint,
			RewardMint:  rewardMint,
			TotalStaked: 0,
			RewardRate:  thor.RewardRate,
			Bump:        addrs.PoolBump,
			VaultBump:   addrs.VaultBump,
		}); err != nil {
			return err
		}
		s.emit(&Event{Kind: PoolCreated, Account: poolAddr})
		return nil
	})
	if err != nil {
		logger.Info("initialize pool failed", "admin", admin, "error", err)
		return err
	}

	logger.Info("initialized pool", "admin", admin)
	return nil
}

// Stake moves amount from userToken into the vault and credits user.
func (s *Staker) Stake(user, userToken thor.Address, amount uint64) error {
	logger.Debug("staking", "user", user, "amount", amount)

	err := s.atomic(func() error {
		if amount == 0 {
			return ErrInvalidAmount
		}
		pool, poolAddr, err := s.mustGetPool()
		if err != nil {
			return err
		}
		if err := s.checkTokenAccount(userToken, user, pool.StakeMint, TransferFailure); err != nil {
			return err
		}

		stake, stakeAddr, bump, err := s.getUserStake(user)
		if err != nil {
			return err
		}
		if stake == nil {
			stake = &UserStake{Owner: user, Bump: bump}
		} else if stake.Owner != user {
			return newError(AuthorizationFailure, errors.New("stake record not owned by caller"))
		}

		staked, overflow := math.SafeAdd(stake.Amount, amount)
		if overflow {
			return ErrMathOverflow
		}
		total, overflow := math.SafeAdd(pool.TotalStaked, amount)
		if overflow {
			return ErrMathOverflow
		}

		vault := s.Addresses().Vault
		if err := s.bank.Transfer(userToken, vault, token.Signer(user), amount); err != nil {
			return newError(TransferFailure, err)
		}

		stake.Amount, pool.TotalStaked = staked, total
		if err := s.setUserStake(stakeAddr, stake); err != nil {
			return err
		}
		if err := s.setPool(poolAddr, pool); err != nil {
			return err
		}
		s.emit(&Event{Kind: Staked, Account: user, Amount: amount, Total: total})
		return nil
	})
	if err != nil {
		logger.Info("stake failed", "user", user, "error", err)
		return err
	}

	logger.Info("staked", "user", user, "amount", amount)
	return nil
}

// Unstake moves amount from the vault back to userToken and debits user.
func (s *Staker) Unstake(user, userToken thor.Address, amount uint64) error {
	logger.Debug("unstaking", "user", user, "amount", amount)

	err := s.atomic(func() error {
		if amount == 0 {
			return ErrInvalidAmount
		}
		pool, poolAddr, err := s.mustGetPool()
		if err != nil {
			return err
		}

		stake, stakeAddr, _, err := s.getUserStake(user)
		if err != nil {
			return err
		}
		if stake == nil {
			return newError(InsufficientStake, errors.New("no stake record"))
		}
		if stake.Owner != user {
			return newError(AuthorizationFailure, errors.New("stake record not owned by caller"))
		}
		if err := s.checkTokenAccount(userToken, user, pool.StakeMint, TransferFailure); err != nil {
			return err
		}
		if stake.Amount < amount {
			return ErrInsufficientStake
		}
		total, underflow := math.SafeSub(pool.TotalStaked, amount)
		if underflow {
			return ErrMathOverflow
		}

		proof, err := s.custodySigner(pool)
		if err != nil {
			return err
		}
		vault := s.Addresses().Vault
		if err := s.bank.Transfer(vault, userToken, proof, amount); err != nil {
			return newError(TransferFailure, err)
		}

		stake.Amount -= amount
		pool.TotalStaked = total
		if err := s.setUserStake(stakeAddr, stake); err != nil {
			return err
		}
		if err := s.setPool(poolAddr, pool); err != nil {
			return err
		}
		s.emit(&Event{Kind: Unstaked, Account: user, Amount: amount, Total: total})
		return nil
	})
	if err != nil {
		logger.Info("unstake failed", "user", user, "error", err)
		return err
	}

	logger.Info("unstaked", "user", user, "amount", amount)
	return nil
}

// ClaimRewards mints Amount / RewardRate reward tokens into userRewardToken. The staked
// balance is left untouched, so claiming again mints again.
func (s *Staker) ClaimRewards(user, userRewardToken thor.Address) (uint64, error) {
	logger.Debug("claiming rewards", "user", user)

	var reward uint64
	err := s.atomic(func() error {
		pool, _, err := s.mustGetPool()
		if err != nil {
			return err
		}
		stake, _, _, err := s.getUserStake(user)
		if err != nil {
			return err
		}
		if stake == nil {
			return newError(InsufficientStake, errors.New("no stake record"))
		}
		if stake.Owner != user {
			return newError(AuthorizationFailure, errors.New("stake record not owned by caller"))
		}
		if err := s.checkTokenAccount(userRewardToken, user, pool.RewardMint, MintFailure); err != nil {
			return err
		}

		if reward, err = stake.Reward(pool.RewardRate); err != nil {
			return err
		}
		proof, err := s.custodySigner(pool)
		if err != nil {
			return err
		}
		if err := s.bank.MintTo(pool.RewardMint, userRewardToken, proof, reward); err != nil {
			return newError(MintFailure, err)
		}
		s.emit(&Event{Kind: RewardMinted, Account: user, Amount: reward, Total: stake.Amount})
		return nil
	})
	if err != nil {
		logger.Info("claim rewards failed", "user", user, "error", err)
		return 0, err
	}

	logger.Info("claimed rewards", "user", user, "reward", reward)
	return reward, nil
}
