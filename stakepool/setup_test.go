// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/token"
)

var (
	program    = thor.StakePoolProgram
	admin      = thor.BytesToAddress([]byte("admin"))
	alice      = thor.BytesToAddress([]byte("alice"))
	bob        = thor.BytesToAddress([]byte("bob"))
	stakeMint  = thor.BytesToAddress([]byte("stakeMint"))
	rewardMint = thor.BytesToAddress([]byte("rewardMint"))
)

type testEnv struct {
	stater *state.Stater
	state  *state.State
	bank   *token.Ledger
	staker *Staker
}

// newEnv creates both mints and, for each user, a stake account funded with balance
// and an empty reward account. The pool is not initialized.
func newEnv(t *testing.T, balance uint64, users ...thor.Address) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stater := state.NewStater(db, 64)
	st := stater.NewState()
	bank := token.New(thor.TokenProgram, st)

	require.NoError(t, bank.CreateMint(stakeMint, admin, 0))
	require.NoError(t, bank.CreateMint(rewardMint, admin, 0))
	for _, u := range users {
		require.NoError(t, bank.CreateAccount(bank.AssociatedAddress(u, stakeMint), stakeMint, u))
		require.NoError(t, bank.CreateAccount(bank.AssociatedAddress(u, rewardMint), rewardMint, u))
		require.NoError(t, bank.MintTo(stakeMint, bank.AssociatedAddress(u, stakeMint), token.Signer(admin), balance))
	}
	return &testEnv{
		stater: stater,
		state:  st,
		bank:   bank,
		staker: New(program, st, bank),
	}
}

// initPool initializes the pool and hands the reward mint over to the pool custody address.
func (e *testEnv) initPool(t *testing.T) *testEnv {
	require.NoError(t, e.staker.InitializePool(admin, stakeMint, rewardMint))
	require.NoError(t, e.bank.SetMintAuthority(rewardMint, token.Signer(admin), e.staker.Addresses().Pool))
	return e
}

func (e *testEnv) stakeAccount(u thor.Address) thor.Address {
	return e.bank.AssociatedAddress(u, stakeMint)
}

func (e *testEnv) rewardAccount(u thor.Address) thor.Address {
	return e.bank.AssociatedAddress(u, rewardMint)
}

func (e *testEnv) balance(t *testing.T, addr thor.Address) uint64 {
	b, err := e.bank.Balance(addr)
	require.NoError(t, err)
	return b
}

func (e *testEnv) staked(t *testing.T, u thor.Address) uint64 {
	stake, err := e.staker.UserStake(u)
	require.NoError(t, err)
	if stake == nil {
		return 0
	}
	return stake.Amount
}

func (e *testEnv) totalStaked(t *testing.T) uint64 {
	pool, err := e.staker.Pool()
	require.NoError(t, err)
	require.NotNil(t, pool)
	return pool.TotalStaked
}

// assertConserved checks pool total == vault balance == sum of the given users' stakes.
func (e *testEnv) assertConserved(t *testing.T, users ...thor.Address) {
	var sum uint64
	for _, u := range users {
		sum += e.staked(t, u)
	}
	total := e.totalStaked(t)
	assert.Equal(t, sum, total, "sum of stakes")
	assert.Equal(t, total, e.balance(t, e.staker.Addresses().Vault), "vault balance")
}

type TestFunc func(t *testing.T)

type TestSequence struct {
	env *testEnv

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(env *testEnv) *TestSequence {
	return &TestSequence{env: env}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) Stake(user thor.Address, amount uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.Stake(user, st.env.stakeAccount(user), amount); err != nil {
			t.Fatalf("failed to stake %d for %s: %v", amount, user, err)
		}
		t.Logf("staked %d for %s", amount, user)
	})
}

func (st *TestSequence) Unstake(user thor.Address, amount uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.Unstake(user, st.env.stakeAccount(user), amount); err != nil {
			t.Fatalf("failed to unstake %d for %s: %v", amount, user, err)
		}
		t.Logf("unstaked %d for %s", amount, user)
	})
}

func (st *TestSequence) Claim(user thor.Address, expected uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		reward, err := st.env.staker.ClaimRewards(user, st.env.rewardAccount(user))
		if err != nil {
			t.Fatalf("failed to claim for %s: %v", user, err)
		}
		assert.Equal(t, expected, reward, "reward of %s", user)
	})
}

func (st *TestSequence) Fails(code Code, f func(s *Staker) error) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		err := f(st.env.staker)
		got, ok := CodeOf(err)
		if !ok || got != code {
			t.Fatalf("expected %v, got %v", code, err)
		}
	})
}

func (st *TestSequence) Run(t *testing.T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, f := range st.funcs {
		f(t)
	}
}

type UserAssertions struct {
	env  *testEnv
	user thor.Address

	staked       *uint64
	stakeBalance *uint64
	rewards      *uint64
}

func AssertUser(env *testEnv, user thor.Address) *UserAssertions {
	return &UserAssertions{env: env, user: user}
}

func (ua *UserAssertions) Staked(expected uint64) *UserAssertions {
	ua.staked = &expected
	return ua
}

func (ua *UserAssertions) StakeBalance(expected uint64) *UserAssertions {
	ua.stakeBalance = &expected
	return ua
}

func (ua *UserAssertions) Rewards(expected uint64) *UserAssertions {
	ua.rewards = &expected
	return ua
}

func (ua *UserAssertions) Assert(t *testing.T) {
	if ua.staked != nil {
		assert.Equal(t, *ua.staked, ua.env.staked(t, ua.user), "%s staked mismatch", ua.user)
	}
	if ua.stakeBalance != nil {
		assert.Equal(t, *ua.stakeBalance, ua.env.balance(t, ua.env.stakeAccount(ua.user)), "%s stake balance mismatch", ua.user)
	}
	if ua.rewards != nil {
		assert.Equal(t, *ua.rewards, ua.env.balance(t, ua.env.rewardAccount(ua.user)), "%s rewards mismatch", ua.user)
	}
}
