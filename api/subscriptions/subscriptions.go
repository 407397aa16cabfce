// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams execution receipts over websocket.
package subscriptions

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/runtime"
	"github.com/vechain/stakepool/thor"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	// receiptBuffer is the number of receipts queued per connection before it's dropped as too slow.
	receiptBuffer = 256
	pingPeriod    = 20 * time.Second
	pongWait      = pingPeriod * 2
	writeWait     = 10 * time.Second
)

type Subscriptions struct {
	rt       *runtime.Runtime
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

func New(rt *runtime.Runtime, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		rt: rt,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

// filter selects the receipts a subscriber asked for.
type filter struct {
	origin   *thor.Address
	reverted *bool
}

func parseFilter(req *http.Request) (*filter, error) {
	var f filter
	query := req.URL.Query()
	if s := query.Get("origin"); s != "" {
		addr, err := thor.ParseAddress(s)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "origin"))
		}
		f.origin = &addr
	}
	switch s := query.Get("reverted"); s {
	case "":
	case "true", "false":
		reverted := s == "true"
		f.reverted = &reverted
	default:
		return nil, utils.BadRequest(errors.New("reverted: should be boolean"))
	}
	return &f, nil
}

func (f *filter) match(r *runtime.Receipt) bool {
	if f.origin != nil && *f.origin != r.Origin {
		return false
	}
	if f.reverted != nil && *f.reverted != r.Reverted {
		return false
	}
	return true
}

func (s *Subscriptions) handleSubscribeReceipts(w http.ResponseWriter, req *http.Request) error {
	f, err := parseFilter(req)
	if err != nil {
		return err
	}
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader already responded
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer conn.Close()

	ch := make(chan *runtime.Receipt)
	sub := s.rt.SubscribeReceipts(ch)
	defer sub.Unsubscribe()

	// relay queues matching receipts without ever blocking the feed; a
	// connection that lets its queue fill up is dropped.
	var (
		queue    = make(chan *runtime.Receipt, receiptBuffer)
		overflow = make(chan struct{})
		stop     = make(chan struct{})
	)
	defer close(stop)
	go func() {
		for {
			select {
			case r := <-ch:
				if !f.match(r) {
					continue
				}
				select {
				case queue <- r:
				default:
					close(overflow)
					return
				}
			case <-stop:
				return
			}
		}
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	closeConn := func(code int, text string) {
		conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case r := <-queue:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(r); err != nil {
				logger.Debug("write receipt failed", "err", err)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case <-overflow:
			logger.Debug("subscriber too slow, dropped", "remote", req.RemoteAddr)
			closeConn(websocket.CloseTryAgainLater, "too slow")
			return nil
		case <-sub.Err():
			closeConn(websocket.CloseGoingAway, "runtime closed")
			return nil
		case <-s.done:
			closeConn(websocket.CloseGoingAway, "server closed")
			return nil
		case <-closed:
			return nil
		}
	}
}

// Close ends every open subscription.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/receipts").
		Methods(http.MethodGet).
		Name("WS /subscriptions/receipts").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeReceipts))
}
