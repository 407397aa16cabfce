// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package health reports whether the pool ledgers still conserve the staked amount.
package health

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/stakepool"
)

// Auditor audits the committed pool records.
type Auditor interface {
	Audit() (*stakepool.AuditReport, error)
}

type Status struct {
	Healthy     bool                   `json:"healthy"`
	Initialized bool                   `json:"initialized"`
	Report      *stakepool.AuditReport `json:"report,omitempty"`
}

type API struct {
	auditor Auditor
}

func New(auditor Auditor) *API {
	return &API{auditor}
}

// Status audits the pool. A pool that isn't initialized yet is healthy.
func (h *API) Status() (*Status, error) {
	report, err := h.auditor.Audit()
	if err != nil {
		if errors.Is(err, stakepool.ErrNotInitialized) {
			return &Status{Healthy: true}, nil
		}
		return nil, err
	}
	return &Status{
		Healthy:     report.Consistent,
		Initialized: true,
		Report:      report,
	}, nil
}

func (h *API) handleGetHealth(w http.ResponseWriter, _ *http.Request) error {
	status, err := h.Status()
	if err != nil {
		return err
	}
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	return utils.WriteJSONStatus(w, code, status)
}

func (h *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("get-health").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetHealth))
}
