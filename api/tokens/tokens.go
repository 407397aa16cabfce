// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/runtime"
	"github.com/vechain/stakepool/stakepool"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/token"
)

// Account is a token account and its address.
type Account struct {
	Address thor.Address `json:"address"`
	Mint    thor.Address `json:"mint"`
	Owner   thor.Address `json:"owner"`
	Amount  uint64       `json:"amount"`
}

// Mint is a mint and its address.
type Mint struct {
	Address   thor.Address `json:"address"`
	Authority thor.Address `json:"authority"`
	Supply    uint64       `json:"supply"`
	Decimals  uint8        `json:"decimals"`
}

type Tokens struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Tokens {
	return &Tokens{rt}
}

func (t *Tokens) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var result *Account
	if err := t.rt.View(func(_ *stakepool.Staker, bank *token.Ledger) error {
		acc, err := bank.Account(addr)
		if err != nil {
			return err
		}
		result = &Account{Address: addr, Mint: acc.Mint, Owner: acc.Owner, Amount: acc.Amount}
		return nil
	}); err != nil {
		if errors.Is(err, token.ErrAccountNotFound) {
			return utils.NotFound(err)
		}
		return err
	}
	return utils.WriteJSON(w, result)
}

func (t *Tokens) handleGetAssociated(w http.ResponseWriter, req *http.Request) error {
	owner, err := utils.AddressVar(req, "owner")
	if err != nil {
		return err
	}
	mint, err := utils.AddressVar(req, "mint")
	if err != nil {
		return err
	}
	var addr thor.Address
	t.rt.View(func(_ *stakepool.Staker, bank *token.Ledger) error {
		addr = bank.AssociatedAddress(owner, mint)
		return nil
	})
	return utils.WriteJSON(w, utils.M{"address": addr.String()})
}

func (t *Tokens) handleGetMint(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var result *Mint
	if err := t.rt.View(func(_ *stakepool.Staker, bank *token.Ledger) error {
		m, err := bank.Mint(addr)
		if err != nil {
			return err
		}
		result = &Mint{Address: addr, Authority: m.Authority, Supply: m.Supply, Decimals: m.Decimals}
		return nil
	}); err != nil {
		if errors.Is(err, token.ErrMintNotFound) {
			return utils.NotFound(err)
		}
		return err
	}
	return utils.WriteJSON(w, result)
}

func (t *Tokens) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/accounts/{address}").
		Methods(http.MethodGet).
		Name("GET /tokens/accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetAccount))
	sub.Path("/associated/{owner}/{mint}").
		Methods(http.MethodGet).
		Name("GET /tokens/associated/{owner}/{mint}").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetAssociated))
	sub.Path("/mints/{address}").
		Methods(http.MethodGet).
		Name("GET /tokens/mints/{address}").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetMint))
}
