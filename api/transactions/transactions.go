// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/runtime"
	"github.com/vechain/stakepool/stakepool"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/tx"
)

type Transactions struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Transactions {
	return &Transactions{rt}
}

// handleSendTransaction executes the transaction and responds its receipt. A reverted
// receipt is still a 200, the request itself was served.
func (t *Transactions) handleSendTransaction(w http.ResponseWriter, req *http.Request) error {
	var raw *RawTx
	if err := utils.ParseJSON(req.Body, &raw); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if raw == nil {
		return utils.BadRequest(errors.New("body: empty"))
	}
	trx, err := raw.decode()
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "raw"))
	}

	receipt, err := t.rt.Execute(trx)
	if err != nil {
		switch {
		case errors.Is(err, tx.ErrInvalidKind),
			errors.Is(err, tx.ErrTooManyAccounts),
			errors.Is(err, tx.ErrMissingAccount):
			return utils.BadRequest(errors.WithMessage(err, "bad tx"))
		case errors.Is(err, stakepool.ErrAuthorizationFailure):
			return utils.Forbidden(errors.WithMessage(err, "rejected tx"))
		}
		return err
	}
	return utils.WriteJSON(w, receipt)
}

func (t *Transactions) handleGetExecuted(w http.ResponseWriter, req *http.Request) error {
	id, err := thor.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	executed, err := t.rt.Executed(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Executed{ID: id, Executed: executed})
}

func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /transactions").
		HandlerFunc(utils.WrapHandlerFunc(t.handleSendTransaction))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /transactions/{id}").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetExecuted))
}
