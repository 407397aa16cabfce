// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/stakepool"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/token"
	"github.com/vechain/stakepool/tx"
)

type account struct {
	key  *ecdsa.PrivateKey
	addr thor.Address
}

func newAccount(t *testing.T) account {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return account{key, thor.Address(crypto.PubkeyToAddress(key.PublicKey))}
}

type fixture struct {
	rt                    *Runtime
	admin, alice          account
	stakeMint, rewardMint thor.Address
	nonce                 uint64
}

func (f *fixture) exec(t *testing.T, from account, b *tx.Builder) *Receipt {
	f.nonce++
	receipt, err := f.rt.Execute(tx.MustSign(b.Nonce(f.nonce).Build(), from.key))
	require.NoError(t, err)
	return receipt
}

func (f *fixture) mustSucceed(t *testing.T, from account, b *tx.Builder) *Receipt {
	receipt := f.exec(t, from, b)
	require.False(t, receipt.Reverted, "%s: %s", receipt.Code, receipt.Message)
	return receipt
}

func (f *fixture) balance(t *testing.T, owner, mint thor.Address) (balance uint64) {
	require.NoError(t, f.rt.View(func(_ *stakepool.Staker, bank *token.Ledger) (err error) {
		balance, err = bank.Balance(bank.AssociatedAddress(owner, mint))
		return
	}))
	return
}

// newFixture creates the mints, funds alice with 1000 stake tokens and initializes the pool.
func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		rt:    New(state.NewStater(db, 128), thor.StakePoolProgram),
		admin: newAccount(t),
		alice: newAccount(t),
	}

	r := f.mustSucceed(t, f.admin, tx.NewBuilder(tx.KindCreateMint).Decimals(9))
	f.stakeMint = r.Events[0].Account
	r = f.mustSucceed(t, f.admin, tx.NewBuilder(tx.KindCreateMint).Decimals(9))
	f.rewardMint = r.Events[0].Account
	require.NotEqual(t, f.stakeMint, f.rewardMint)

	f.mustSucceed(t, f.admin, tx.NewBuilder(tx.KindCreateAccount).Account(f.stakeMint).Account(f.alice.addr))
	f.mustSucceed(t, f.admin, tx.NewBuilder(tx.KindCreateAccount).Account(f.rewardMint).Account(f.alice.addr))
	f.mustSucceed(t, f.admin, tx.NewBuilder(tx.KindMintTo).Amount(1000).
		Account(f.stakeMint).Account(token.New(thor.TokenProgram, nil).AssociatedAddress(f.alice.addr, f.stakeMint)))

	r = f.mustSucceed(t, f.admin, tx.NewBuilder(tx.KindInitializePool).Account(f.stakeMint).Account(f.rewardMint))
	require.Len(t, r.Events, 1)
	assert.Equal(t, string(stakepool.PoolCreated), r.Events[0].Kind)

	var pool thor.Address
	require.NoError(t, f.rt.View(func(s *stakepool.Staker, _ *token.Ledger) error {
		pool = s.Addresses().Pool
		return nil
	}))
	f.mustSucceed(t, f.admin, tx.NewBuilder(tx.KindSetMintAuthority).Account(f.rewardMint).Account(pool))
	return f
}

func TestStakeAndClaim(t *testing.T) {
	f := newFixture(t)

	r := f.mustSucceed(t, f.alice, tx.NewBuilder(tx.KindStake).Amount(400))
	require.Len(t, r.Events, 1)
	assert.Equal(t, &Event{Kind: "Staked", Account: f.alice.addr, Amount: 400, Total: 400}, r.Events[0])
	assert.Equal(t, f.alice.addr, r.Origin)
	assert.False(t, r.StateHash.IsZero())

	r = f.mustSucceed(t, f.alice, tx.NewBuilder(tx.KindClaimRewards))
	assert.Equal(t, uint64(40), r.Events[0].Amount)

	f.mustSucceed(t, f.alice, tx.NewBuilder(tx.KindUnstake).Amount(150))

	assert.Equal(t, uint64(750), f.balance(t, f.alice.addr, f.stakeMint))
	assert.Equal(t, uint64(40), f.balance(t, f.alice.addr, f.rewardMint))

	report, err := f.rt.Audit()
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, uint64(250), report.TotalStaked)
	assert.Equal(t, 1, report.Stakers)
}

func TestRevertedReceipt(t *testing.T) {
	f := newFixture(t)

	r := f.exec(t, f.alice, tx.NewBuilder(tx.KindStake).Amount(0))
	assert.True(t, r.Reverted)
	assert.Equal(t, "InvalidAmount", r.Code)
	assert.Empty(t, r.Events)

	r = f.exec(t, f.alice, tx.NewBuilder(tx.KindStake).Amount(1001))
	assert.True(t, r.Reverted)
	assert.Equal(t, "TransferFailure", r.Code)

	r = f.exec(t, f.alice, tx.NewBuilder(tx.KindUnstake).Amount(1))
	assert.True(t, r.Reverted)
	assert.Equal(t, "InsufficientStake", r.Code)

	r = f.exec(t, f.alice, tx.NewBuilder(tx.KindMintTo).Amount(1).Account(f.stakeMint))
	assert.True(t, r.Reverted)
	assert.Equal(t, "AuthorizationFailure", r.Code)

	r = f.exec(t, f.alice, tx.NewBuilder(tx.KindInitializePool).Account(f.stakeMint).Account(f.rewardMint))
	assert.True(t, r.Reverted)
	assert.Equal(t, "AlreadyInitialized", r.Code)

	assert.Equal(t, uint64(1000), f.balance(t, f.alice.addr, f.stakeMint))
	report, err := f.rt.Audit()
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, uint64(0), report.TotalStaked)
}

func TestWrongRecordKind(t *testing.T) {
	f := newFixture(t)
	f.mustSucceed(t, f.alice, tx.NewBuilder(tx.KindStake).Amount(100))

	cases := []struct {
		from account
		b    *tx.Builder
		code string
	}{
		{f.alice, tx.NewBuilder(tx.KindStake).Amount(1).Account(f.stakeMint), "TransferFailure"},
		{f.alice, tx.NewBuilder(tx.KindUnstake).Amount(1).Account(f.stakeMint), "TransferFailure"},
		{f.alice, tx.NewBuilder(tx.KindClaimRewards).Account(f.rewardMint), "MintFailure"},
		{f.admin, tx.NewBuilder(tx.KindMintTo).Amount(1).Account(f.stakeMint).Account(f.rewardMint), "InvalidAccount"},
		{f.admin, tx.NewBuilder(tx.KindCreateAccount).
			Account(token.New(thor.TokenProgram, nil).AssociatedAddress(f.alice.addr, f.stakeMint)), "InvalidAccount"},
	}
	for i, c := range cases {
		r := f.exec(t, c.from, c.b)
		assert.True(t, r.Reverted, "case %d", i)
		assert.Equal(t, c.code, r.Code, "case %d", i)
		assert.Empty(t, r.Events, "case %d", i)

		executed, err := f.rt.Executed(r.TxID)
		require.NoError(t, err)
		assert.True(t, executed, "case %d", i)
	}

	assert.Equal(t, uint64(900), f.balance(t, f.alice.addr, f.stakeMint))
	assert.Zero(t, f.balance(t, f.alice.addr, f.rewardMint))
	report, err := f.rt.Audit()
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, uint64(100), report.TotalStaked)
}

func TestReplay(t *testing.T) {
	f := newFixture(t)

	trx := tx.MustSign(tx.NewBuilder(tx.KindStake).Amount(10).Nonce(777).Build(), f.alice.key)
	r, err := f.rt.Execute(trx)
	require.NoError(t, err)
	require.False(t, r.Reverted)

	executed, err := f.rt.Executed(r.TxID)
	require.NoError(t, err)
	assert.True(t, executed)

	_, err = f.rt.Execute(trx)
	assert.ErrorIs(t, err, stakepool.ErrAuthorizationFailure)
	assert.Equal(t, uint64(990), f.balance(t, f.alice.addr, f.stakeMint))

	// a reverted transaction consumes its id as well
	bad := tx.MustSign(tx.NewBuilder(tx.KindUnstake).Amount(11).Nonce(778).Build(), f.alice.key)
	r, err = f.rt.Execute(bad)
	require.NoError(t, err)
	assert.True(t, r.Reverted)
	_, err = f.rt.Execute(bad)
	assert.ErrorIs(t, err, stakepool.ErrAuthorizationFailure)
}

func TestRejected(t *testing.T) {
	f := newFixture(t)

	unsigned := tx.NewBuilder(tx.KindStake).Amount(1).Build()
	_, err := f.rt.Execute(unsigned)
	code, ok := stakepool.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, stakepool.AuthorizationFailure, code)

	_, err = f.rt.Execute(tx.MustSign(tx.NewBuilder(tx.KindInitializePool).Build(), f.alice.key))
	assert.ErrorIs(t, err, tx.ErrMissingAccount)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		code stakepool.Code
	}{
		{token.ErrOwnerMismatch, stakepool.AuthorizationFailure},
		{token.ErrInsufficientFunds, stakepool.TransferFailure},
		{token.ErrOverflow, stakepool.MathOverflow},
		{token.ErrAccountExists, stakepool.InvalidAccount},
		{stakepool.ErrMintFailure, stakepool.MintFailure},
	}
	for _, tt := range tests {
		code, ok := classify(tt.err)
		assert.True(t, ok)
		assert.Equal(t, tt.code, code)
	}
	_, ok := classify(&state.Error{})
	assert.False(t, ok)
}

func TestSubscribeReceipts(t *testing.T) {
	f := newFixture(t)

	ch := make(chan *Receipt, 4)
	sub := f.rt.SubscribeReceipts(ch)

	f.mustSucceed(t, f.alice, tx.NewBuilder(tx.KindStake).Amount(5))
	select {
	case r := <-ch:
		assert.Equal(t, f.alice.addr, r.Origin)
		assert.Equal(t, tx.KindStake, r.Kind)
	case <-time.After(time.Second):
		t.Fatal("no receipt delivered")
	}

	f.rt.Close()
	select {
	case err := <-sub.Err():
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}
