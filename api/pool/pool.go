// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/runtime"
	"github.com/vechain/stakepool/stakepool"
	"github.com/vechain/stakepool/token"
)

var errNotInitialized = utils.NotFound(errors.New("pool not initialized"))

type API struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *API {
	return &API{rt}
}

func (a *API) handleGetPool(w http.ResponseWriter, _ *http.Request) error {
	var result *Pool
	if err := a.rt.View(func(staker *stakepool.Staker, _ *token.Ledger) error {
		pool, err := staker.Pool()
		if err != nil || pool == nil {
			return err
		}
		result = &Pool{Pool: pool, Addresses: staker.Addresses()}
		return nil
	}); err != nil {
		return err
	}
	if result == nil {
		return errNotInitialized
	}
	return utils.WriteJSON(w, result)
}

func (a *API) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	owner, err := utils.AddressVar(req, "owner")
	if err != nil {
		return err
	}

	var result *Stake
	if err := a.rt.View(func(staker *stakepool.Staker, _ *token.Ledger) error {
		if pool, err := staker.Pool(); err != nil || pool == nil {
			return err
		}
		stake, err := staker.UserStake(owner)
		if err != nil || stake == nil {
			return err
		}
		reward, err := staker.PendingReward(owner)
		if err != nil {
			return err
		}
		addr, _ := staker.UserStakeAddress(owner)
		result = &Stake{
			Owner:         stake.Owner,
			Address:       addr,
			Amount:        stake.Amount,
			PendingReward: reward,
		}
		return nil
	}); err != nil {
		return err
	}
	// an owner that never staked has no record
	return utils.WriteJSON(w, result)
}

func (a *API) handleGetAudit(w http.ResponseWriter, _ *http.Request) error {
	report, err := a.rt.Audit()
	if err != nil {
		if errors.Is(err, stakepool.ErrNotInitialized) {
			return errNotInitialized
		}
		return err
	}
	return utils.WriteJSON(w, report)
}

func (a *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pool").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetPool))
	sub.Path("/stakes/{owner}").
		Methods(http.MethodGet).
		Name("GET /pool/stakes/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetStake))
	sub.Path("/audit").
		Methods(http.MethodGet).
		Name("GET /pool/audit").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAudit))
}
