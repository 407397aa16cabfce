// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes signed transactions one at a time against the committed state.
package runtime

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/stakepool"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/token"
	"github.com/vechain/stakepool/tx"
)

var logger = log.WithContext("pkg", "runtime")

var (
	errReplayed = errors.WithMessage(stakepool.ErrAuthorizationFailure, "transaction already executed")
	errBadSig   = errors.WithMessage(stakepool.ErrAuthorizationFailure, "invalid signature")
)

// Runtime is to support transaction execution.
type Runtime struct {
	mu      sync.RWMutex
	stater  *state.Stater
	program thor.Address

	receiptFeed event.Feed
	scope       event.SubscriptionScope
	goes        sync.WaitGroup
}

// New create a Runtime object.
func New(stater *state.Stater, program thor.Address) *Runtime {
	return &Runtime{
		stater:  stater,
		program: program,
	}
}

func (rt *Runtime) Program() thor.Address { return rt.program }
func (rt *Runtime) Stater() *state.Stater  { return rt.stater }

// SubscribeReceipts delivers the receipt of every executed transaction, reverted ones included.
// Delivery order across transactions is not guaranteed.
func (rt *Runtime) SubscribeReceipts(ch chan *Receipt) event.Subscription {
	return rt.scope.Track(rt.receiptFeed.Subscribe(ch))
}

// Close ends all receipt subscriptions.
func (rt *Runtime) Close() {
	rt.scope.Close()
	rt.goes.Wait()
}

// View runs fn against a fresh view of the committed state. Views run concurrently with each
// other but never with Execute. Nothing fn changes is kept.
func (rt *Runtime) View(fn func(staker *stakepool.Staker, bank *token.Ledger) error) error {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	st := rt.stater.NewState()
	bank := token.New(thor.TokenProgram, st)
	return fn(stakepool.New(rt.program, st, bank), bank)
}

// Audit checks the pool conservation over the committed records.
func (rt *Runtime) Audit() (*stakepool.AuditReport, error) {
	var report *stakepool.AuditReport
	err := rt.View(func(staker *stakepool.Staker, _ *token.Ledger) (err error) {
		report, err = staker.Audit(func(fn func(thor.Address, []byte) bool) error {
			return rt.stater.Iterate(rt.program, fn)
		})
		return
	})
	return report, err
}

// Execute runs the transaction. A transaction that is rejected before execution, for a bad
// signature, a malformed body or a replayed id, returns an error and leaves no trace. One that
// fails during execution yields a reverted receipt; its id is recorded, nothing else.
func (rt *Runtime) Execute(trx *tx.Transaction) (*Receipt, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	start := time.Now()
	kind := trx.Kind().String()

	receipt, err := rt.execute(trx)
	if err != nil {
		outcome := "rejected"
		if code, ok := stakepool.CodeOf(err); ok {
			outcome = code.String()
		}
		metricTransitions().AddWithLabel(1, map[string]string{"kind": kind, "outcome": outcome})
		return nil, err
	}

	outcome := "success"
	if receipt.Reverted {
		outcome = receipt.Code
	}
	metricTransitions().AddWithLabel(1, map[string]string{"kind": kind, "outcome": outcome})
	metricExecutionTime().ObserveWithLabels(time.Since(start).Microseconds(), map[string]string{"kind": kind})

	if stats := rt.stater.CacheStats(); stats != nil {
		if changed, hit, miss := stats.Stats(); changed && hit+miss > 0 {
			metricCacheHitRate().Set(hit * 1000 / (hit + miss))
		}
	}
	rt.goes.Go(func() { rt.receiptFeed.Send(receipt) })
	return receipt, nil
}

func (rt *Runtime) execute(trx *tx.Transaction) (*Receipt, error) {
	if err := trx.Validate(); err != nil {
		return nil, err
	}
	origin, err := trx.Origin()
	if err != nil {
		return nil, errors.WithMessage(errBadSig, err.Error())
	}
	id, err := trx.ID()
	if err != nil {
		return nil, err
	}

	st := rt.stater.NewState()
	replayed, err := st.HasMarker(id)
	if err != nil {
		return nil, err
	}
	if replayed {
		return nil, errReplayed
	}
	st.SetMarker(id)

	var (
		bank   = token.New(thor.TokenProgram, st)
		staker = stakepool.New(rt.program, st, bank)
	)

	revision := st.NewCheckpoint()
	events, err := rt.dispatch(trx, origin, staker, bank)

	receipt := &Receipt{
		TxID:   id,
		Origin: origin,
		Kind:   trx.Kind(),
		Events: events,
	}
	if err != nil {
		code, ok := classify(err)
		if !ok {
			// storage failure, nothing is committed, not even the marker
			logger.Error("transaction aborted", "id", id, "err", err)
			return nil, err
		}
		st.RevertTo(revision)
		receipt.Reverted = true
		receipt.Code = code.String()
		receipt.Message = err.Error()
		receipt.Events = []*Event{}
	}

	hash, err := rt.stater.Commit(st.Stage())
	if err != nil {
		return nil, err
	}
	receipt.StateHash = hash

	if !receipt.Reverted {
		switch trx.Kind() {
		case tx.KindInitializePool, tx.KindStake, tx.KindUnstake:
			if pool, err := staker.Pool(); err == nil && pool != nil {
				metricPoolTotalStaked().Set(int64(pool.TotalStaked))
			}
		}
	}
	logger.Debug("executed transaction", "id", id, "kind", trx.Kind(), "origin", origin, "reverted", receipt.Reverted)
	return receipt, nil
}

// classify maps a failed transition to its error code. Token errors raised by the token
// transitions are classified here, the staker classifies its own.
func classify(err error) (stakepool.Code, bool) {
	if code, ok := stakepool.CodeOf(err); ok {
		return code, true
	}
	switch {
	case errors.Is(err, token.ErrOwnerMismatch):
		return stakepool.AuthorizationFailure, true
	case errors.Is(err, token.ErrInsufficientFunds):
		return stakepool.TransferFailure, true
	case errors.Is(err, token.ErrOverflow):
		return stakepool.MathOverflow, true
	case errors.Is(err, token.ErrMintNotFound),
		errors.Is(err, token.ErrAccountNotFound),
		errors.Is(err, token.ErrAccountExists),
		errors.Is(err, token.ErrMintMismatch):
		return stakepool.InvalidAccount, true
	}
	return 0, false
}

func (rt *Runtime) dispatch(
	trx *tx.Transaction,
	origin thor.Address,
	staker *stakepool.Staker,
	bank *token.Ledger,
) ([]*Event, error) {
	// associated returns the i-th account, or the origin's associated account of the mint
	// picked from the pool.
	associated := func(i int, pick func(*stakepool.Pool) thor.Address) (thor.Address, error) {
		if addr, ok := trx.Account(i); ok {
			return addr, nil
		}
		pool, err := staker.Pool()
		if err != nil {
			return thor.Address{}, err
		}
		if pool == nil {
			return thor.Address{}, stakepool.ErrNotInitialized
		}
		return bank.AssociatedAddress(origin, pick(pool)), nil
	}
	stakeMint := func(p *stakepool.Pool) thor.Address { return p.StakeMint }
	rewardMint := func(p *stakepool.Pool) thor.Address { return p.RewardMint }

	a0, _ := trx.Account(0)
	a1, _ := trx.Account(1)

	switch trx.Kind() {
	case tx.KindInitializePool:
		if err := staker.InitializePool(origin, a0, a1); err != nil {
			return nil, err
		}
	case tx.KindStake:
		acc, err := associated(0, stakeMint)
		if err != nil {
			return nil, err
		}
		if err := staker.Stake(origin, acc, trx.Amount()); err != nil {
			return nil, err
		}
	case tx.KindUnstake:
		acc, err := associated(0, stakeMint)
		if err != nil {
			return nil, err
		}
		if err := staker.Unstake(origin, acc, trx.Amount()); err != nil {
			return nil, err
		}
	case tx.KindClaimRewards:
		acc, err := associated(0, rewardMint)
		if err != nil {
			return nil, err
		}
		if _, err := staker.ClaimRewards(origin, acc); err != nil {
			return nil, err
		}
	case tx.KindCreateMint:
		mint := bank.MintAddress(origin, trx.Nonce())
		if err := bank.CreateMint(mint, origin, trx.Decimals()); err != nil {
			return nil, err
		}
		return []*Event{{Kind: MintCreated, Account: mint}}, nil
	case tx.KindCreateAccount:
		owner := origin
		if addr, ok := trx.Account(1); ok {
			owner = addr
		}
		acc := bank.AssociatedAddress(owner, a0)
		if err := bank.CreateAccount(acc, a0, owner); err != nil {
			return nil, err
		}
		return []*Event{{Kind: AccountCreated, Account: acc}}, nil
	case tx.KindMintTo:
		to := bank.AssociatedAddress(origin, a0)
		if addr, ok := trx.Account(1); ok {
			to = addr
		}
		if err := bank.MintTo(a0, to, token.Signer(origin), trx.Amount()); err != nil {
			return nil, err
		}
		return []*Event{{Kind: Minted, Account: to, Amount: trx.Amount()}}, nil
	case tx.KindSetMintAuthority:
		if err := bank.SetMintAuthority(a0, token.Signer(origin), a1); err != nil {
			return nil, err
		}
		return []*Event{{Kind: MintAuthoritySet, Account: a1}}, nil
	default:
		return nil, tx.ErrInvalidKind
	}
	return convertEvents(staker.Events()), nil
}

// Executed tells whether the transaction id was consumed, by a successful or a reverted execution.
func (rt *Runtime) Executed(id thor.Bytes32) (bool, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	return rt.stater.NewState().HasMarker(id)
}
