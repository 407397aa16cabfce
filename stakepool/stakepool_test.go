// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/token"
)

func TestInitializePool(t *testing.T) {
	env := newEnv(t, 0)

	pool, err := env.staker.Pool()
	require.NoError(t, err)
	assert.Nil(t, pool)

	require.NoError(t, env.staker.InitializePool(admin, stakeMint, rewardMint))

	addrs := env.staker.Addresses()
	pool, err = env.staker.Pool()
	require.NoError(t, err)
	assert.Equal(t, &Pool{
		Authority:   admin,
		StakeMint:   stakeMint,
		RewardMint:  rewardMint,
		TotalStaked: 0,
		RewardRate:  10,
		Bump:        addrs.PoolBump,
		VaultBump:   addrs.VaultBump,
	}, pool)

	vault, err := env.bank.Account(addrs.Vault)
	require.NoError(t, err)
	assert.Equal(t, &token.Account{Mint: stakeMint, Owner: addrs.Pool}, vault)

	events := env.staker.Events()
	require.Len(t, events, 1)
	assert.Equal(t, PoolCreated, events[0].Kind)
	assert.Empty(t, env.staker.Events())

	err = env.staker.InitializePool(bob, stakeMint, rewardMint)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	pool, _ = env.staker.Pool()
	assert.Equal(t, admin, pool.Authority, "authority is immutable")
}

func TestInitializePoolMissingMint(t *testing.T) {
	env := newEnv(t, 0)
	err := env.staker.InitializePool(admin, stakeMint, thor.BytesToAddress([]byte("nope")))
	assert.ErrorIs(t, err, ErrInvalidAccount)

	pool, err := env.staker.Pool()
	require.NoError(t, err)
	assert.Nil(t, pool)
	_, err = env.bank.Account(env.staker.Addresses().Vault)
	assert.ErrorIs(t, err, token.ErrAccountNotFound, "vault creation reverted")
}

func TestNotInitialized(t *testing.T) {
	env := newEnv(t, 100, alice)
	assert.ErrorIs(t, env.staker.Stake(alice, env.stakeAccount(alice), 1), ErrNotInitialized)
	assert.ErrorIs(t, env.staker.Unstake(alice, env.stakeAccount(alice), 1), ErrNotInitialized)
	_, err := env.staker.ClaimRewards(alice, env.rewardAccount(alice))
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestStakeUnstakeSequence(t *testing.T) {
	env := newEnv(t, 1000, alice, bob).initPool(t)

	NewSequence(env).
		Stake(alice, 500).
		Stake(bob, 120).
		Stake(alice, 1).
		Unstake(bob, 20).
		Claim(alice, 50).
		Claim(bob, 10).
		Unstake(alice, 501).
		Run(t)

	AssertUser(env, alice).Staked(0).StakeBalance(1000).Rewards(50).Assert(t)
	AssertUser(env, bob).Staked(100).StakeBalance(900).Rewards(10).Assert(t)
	env.assertConserved(t, alice, bob)
}

func TestConservation(t *testing.T) {
	users := []thor.Address{alice, bob, thor.BytesToAddress([]byte("carol"))}
	env := newEnv(t, 10_000, users...).initPool(t)

	seq := NewSequence(env)
	for i, u := range users {
		seq.Stake(u, uint64(1000*(i+1)))
	}
	seq.Unstake(users[1], 700).
		Stake(users[0], 3).
		Unstake(users[2], 3000).
		AddFunc(func(t *testing.T) { env.assertConserved(t, users...) }).
		Run(t)

	// failed transitions keep the invariant too
	require.Error(t, env.staker.Unstake(users[0], env.stakeAccount(users[0]), 5000))
	require.Error(t, env.staker.Stake(users[1], env.stakeAccount(users[1]), 1_000_000))
	env.assertConserved(t, users...)

	report, err := env.staker.Audit(func(fn func(thor.Address, []byte) bool) error {
		return nil
	})
	require.NoError(t, err)
	assert.False(t, report.Consistent, "nothing committed yet, iterator yields no stakes")

	_, err = env.stater.Commit(env.state.Stage())
	require.NoError(t, err)
	report, err = env.staker.Audit(func(fn func(thor.Address, []byte) bool) error {
		return env.stater.Iterate(program, fn)
	})
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, 3, report.Stakers)
	assert.Equal(t, report.TotalStaked, report.SumOfStakes)
}

func TestRewardFormula(t *testing.T) {
	tests := []struct {
		staked uint64
		reward uint64
	}{
		{0, 0},
		{9, 0},
		{10, 1},
		{99, 9},
		{100, 10},
		{1_000_000, 100_000},
	}
	for _, tt := range tests {
		env := newEnv(t, 1_000_000, alice).initPool(t)
		if tt.staked > 0 {
			require.NoError(t, env.staker.Stake(alice, env.stakeAccount(alice), tt.staked))
		} else {
			// record exists with zero amount
			require.NoError(t, env.staker.Stake(alice, env.stakeAccount(alice), 1))
			require.NoError(t, env.staker.Unstake(alice, env.stakeAccount(alice), 1))
		}

		pending, err := env.staker.PendingReward(alice)
		require.NoError(t, err)
		assert.Equal(t, tt.reward, pending)

		reward, err := env.staker.ClaimRewards(alice, env.rewardAccount(alice))
		require.NoError(t, err)
		assert.Equal(t, tt.reward, reward, "staked %d", tt.staked)
		AssertUser(env, alice).Staked(tt.staked).Rewards(tt.reward).Assert(t)
	}
}

func TestRoundTrip(t *testing.T) {
	env := newEnv(t, 777, alice).initPool(t)

	NewSequence(env).Stake(alice, 777).Unstake(alice, 777).Run(t)

	AssertUser(env, alice).Staked(0).StakeBalance(777).Assert(t)
	assert.Equal(t, uint64(0), env.totalStaked(t))

	// zero amount record is kept
	stake, err := env.staker.UserStake(alice)
	require.NoError(t, err)
	require.NotNil(t, stake)
	assert.Equal(t, alice, stake.Owner)
}

func TestZeroAmount(t *testing.T) {
	env := newEnv(t, 100, alice).initPool(t)
	env.staker.Events()

	NewSequence(env).
		Fails(InvalidAmount, func(s *Staker) error { return s.Stake(alice, env.stakeAccount(alice), 0) }).
		Stake(alice, 50).
		Fails(InvalidAmount, func(s *Staker) error { return s.Unstake(alice, env.stakeAccount(alice), 0) }).
		Run(t)

	AssertUser(env, alice).Staked(50).StakeBalance(50).Assert(t)
	events := env.staker.Events()
	require.Len(t, events, 1, "failed transitions emit nothing")
	assert.Equal(t, Staked, events[0].Kind)
}

func TestUnstakeMoreThanStaked(t *testing.T) {
	env := newEnv(t, 100, alice).initPool(t)

	NewSequence(env).
		Fails(InsufficientStake, func(s *Staker) error { return s.Unstake(alice, env.stakeAccount(alice), 1) }).
		Stake(alice, 60).
		Fails(InsufficientStake, func(s *Staker) error { return s.Unstake(alice, env.stakeAccount(alice), 61) }).
		Run(t)

	AssertUser(env, alice).Staked(60).StakeBalance(40).Assert(t)
	env.assertConserved(t, alice)
}

func TestStakeMoreThanBalance(t *testing.T) {
	env := newEnv(t, 100, alice).initPool(t)

	NewSequence(env).
		Fails(TransferFailure, func(s *Staker) error { return s.Stake(alice, env.stakeAccount(alice), 101) }).
		Run(t)

	AssertUser(env, alice).Staked(0).StakeBalance(100).Assert(t)
	stake, err := env.staker.UserStake(alice)
	require.NoError(t, err)
	assert.Nil(t, stake, "record creation reverted")
	assert.Equal(t, uint64(0), env.totalStaked(t))
}

func TestOwnershipIsolation(t *testing.T) {
	env := newEnv(t, 100, alice, bob).initPool(t)

	NewSequence(env).
		Stake(alice, 80).
		Stake(bob, 10).
		Fails(AuthorizationFailure, func(s *Staker) error { return s.Stake(bob, env.stakeAccount(alice), 10) }).
		Fails(AuthorizationFailure, func(s *Staker) error { return s.Unstake(bob, env.stakeAccount(alice), 10) }).
		Fails(InsufficientStake, func(s *Staker) error { return s.Unstake(bob, env.stakeAccount(bob), 20) }).
		Fails(AuthorizationFailure, func(s *Staker) error {
			_, err := s.ClaimRewards(alice, env.rewardAccount(bob))
			return err
		}).
		Fails(AuthorizationFailure, func(s *Staker) error { return s.Unstake(alice, env.staker.Addresses().Vault, 10) }).
		Run(t)

	AssertUser(env, alice).Staked(80).StakeBalance(20).Rewards(0).Assert(t)
	AssertUser(env, bob).Staked(10).StakeBalance(90).Rewards(0).Assert(t)
	env.assertConserved(t, alice, bob)
}

func TestWrongMint(t *testing.T) {
	env := newEnv(t, 100, alice).initPool(t)
	require.NoError(t, env.staker.Stake(alice, env.stakeAccount(alice), 50))

	err := env.staker.Stake(alice, env.rewardAccount(alice), 1)
	assert.ErrorIs(t, err, ErrTransferFailure)

	_, err = env.staker.ClaimRewards(alice, env.stakeAccount(alice))
	assert.ErrorIs(t, err, ErrMintFailure)

	_, err = env.staker.ClaimRewards(alice, thor.BytesToAddress([]byte("missing")))
	assert.ErrorIs(t, err, ErrMintFailure)
}

func TestWrongRecordKind(t *testing.T) {
	env := newEnv(t, 100, alice).initPool(t)
	require.NoError(t, env.staker.Stake(alice, env.stakeAccount(alice), 50))

	assert.ErrorIs(t, env.staker.Stake(alice, stakeMint, 1), ErrTransferFailure)
	assert.ErrorIs(t, env.staker.Unstake(alice, stakeMint, 1), ErrTransferFailure)
	assert.ErrorIs(t, env.staker.Unstake(alice, rewardMint, 1), ErrTransferFailure)

	_, err := env.staker.ClaimRewards(alice, rewardMint)
	assert.ErrorIs(t, err, ErrMintFailure)
	_, err = env.staker.ClaimRewards(alice, stakeMint)
	assert.ErrorIs(t, err, ErrMintFailure)

	AssertUser(env, alice).Staked(50).StakeBalance(50).Rewards(0).Assert(t)
	env.assertConserved(t, alice)
}

func TestDoubleClaim(t *testing.T) {
	env := newEnv(t, 100, alice).initPool(t)

	NewSequence(env).
		Stake(alice, 100).
		Claim(alice, 10).
		Claim(alice, 10).
		Run(t)

	AssertUser(env, alice).Staked(100).Rewards(20).Assert(t)
	m, err := env.bank.Mint(rewardMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), m.Supply)
}

func TestClaimWithoutMintAuthority(t *testing.T) {
	env := newEnv(t, 100, alice)
	require.NoError(t, env.staker.InitializePool(admin, stakeMint, rewardMint))
	require.NoError(t, env.staker.Stake(alice, env.stakeAccount(alice), 100))

	_, err := env.staker.ClaimRewards(alice, env.rewardAccount(alice))
	assert.ErrorIs(t, err, ErrMintFailure)
	assert.ErrorIs(t, err, token.ErrOwnerMismatch)

	require.NoError(t, env.bank.SetMintAuthority(rewardMint, token.Signer(admin), env.staker.Addresses().Pool))
	reward, err := env.staker.ClaimRewards(alice, env.rewardAccount(alice))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), reward)
}

func TestClaimWithoutStake(t *testing.T) {
	env := newEnv(t, 100, alice).initPool(t)
	_, err := env.staker.ClaimRewards(alice, env.rewardAccount(alice))
	assert.ErrorIs(t, err, ErrInsufficientStake)
}

func TestOverflow(t *testing.T) {
	env := newEnv(t, 10, alice).initPool(t)

	pool, poolAddr, err := env.staker.getPool()
	require.NoError(t, err)
	pool.TotalStaked = math.MaxUint64 - 5
	require.NoError(t, env.staker.setPool(poolAddr, pool))

	NewSequence(env).
		Fails(MathOverflow, func(s *Staker) error { return s.Stake(alice, env.stakeAccount(alice), 10) }).
		Stake(alice, 5).
		Run(t)

	AssertUser(env, alice).Staked(5).StakeBalance(5).Assert(t)
	assert.Equal(t, uint64(math.MaxUint64), env.totalStaked(t))
}

func TestZeroRewardRate(t *testing.T) {
	stake := &UserStake{Amount: 100}
	_, err := stake.Reward(0)
	assert.ErrorIs(t, err, ErrMathOverflow)
}

func TestErrors(t *testing.T) {
	err := newError(TransferFailure, token.ErrInsufficientFunds)
	assert.Equal(t, "TransferFailure: token transfer failed: insufficient funds", err.Error())
	assert.ErrorIs(t, err, ErrTransferFailure)
	assert.ErrorIs(t, err, token.ErrInsufficientFunds)
	assert.NotErrorIs(t, err, ErrMintFailure)

	code, ok := CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, TransferFailure, code)

	_, ok = CodeOf(errors.New("disk"))
	assert.False(t, ok)

	for c := InvalidAmount; c <= InvalidAccount; c++ {
		assert.NotEqual(t, "Unknown", c.String())
	}
	assert.Equal(t, "Unknown", Code(0).String())
}

func TestDecodeUserStake(t *testing.T) {
	raw, err := encodeRecord(userStakeDiscriminator, &UserStake{Owner: alice, Amount: 5, Bump: 254})
	require.NoError(t, err)

	stake, ok, err := DecodeUserStake(raw)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, &UserStake{Owner: alice, Amount: 5, Bump: 254}, stake)

	raw, err = encodeRecord(poolDiscriminator, &Pool{})
	require.NoError(t, err)
	_, ok, err = DecodeUserStake(raw)
	require.NoError(t, err)
	assert.False(t, ok)
}
