// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/vechain/stakepool/api/middleware"
	"github.com/vechain/stakepool/api/pool"
	"github.com/vechain/stakepool/api/subscriptions"
	"github.com/vechain/stakepool/api/tokens"
	"github.com/vechain/stakepool/api/transactions"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/runtime"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
}

// New return api router, and a closer of the open websocket subscriptions.
func New(rt *runtime.Runtime, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	transactions.New(rt).
		Mount(router, "/transactions")
	pool.New(rt).
		Mount(router, "/pool")
	tokens.New(rt).
		Mount(router, "/tokens")
	subs := subscriptions.New(rt, origins)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger != nil {
		handler = middleware.RequestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueriesThreshold, opts.Log5xxErrors)(handler)
	}

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
