// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package apilogs

import (
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/log"
)

var logger = log.WithContext("pkg", "apilogs")

// Status is the request logging switch.
type Status struct {
	Enabled bool `json:"enabled"`
}

type APILogs struct {
	enabled *atomic.Bool
}

func New(enabled *atomic.Bool) *APILogs {
	return &APILogs{
		enabled: enabled,
	}
}

func (a *APILogs) handleGet(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, Status{Enabled: a.enabled.Load()})
}

func (a *APILogs) handlePost(w http.ResponseWriter, r *http.Request) error {
	var req Status
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(err)
	}
	a.enabled.Store(req.Enabled)
	logger.Info("api logs updated", "enabled", req.Enabled)

	return utils.WriteJSON(w, Status{Enabled: a.enabled.Load()})
}

func (a *APILogs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("get-api-logs-enabled").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGet))
	sub.Path("").
		Methods(http.MethodPost).
		Name("post-api-logs-enabled").
		HandlerFunc(utils.WrapHandlerFunc(a.handlePost))
}
