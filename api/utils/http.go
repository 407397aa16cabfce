// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/thor"
)

// httpError pairs a cause with the status code it is answered with.
type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	if e.cause == nil {
		return http.StatusText(e.status)
	}
	return e.cause.Error()
}

func (e *httpError) Unwrap() error { return e.cause }

// HTTPError attaches status to cause.
func HTTPError(cause error, status int) error { return &httpError{cause, status} }

func BadRequest(cause error) error { return HTTPError(cause, http.StatusBadRequest) }
func Forbidden(cause error) error  { return HTTPError(cause, http.StatusForbidden) }
func NotFound(cause error) error   { return HTTPError(cause, http.StatusNotFound) }

// StatusOf returns the status err is answered with, 500 unless an
// HTTPError is found in its chain.
func StatusOf(err error) int {
	var he *httpError
	if errors.As(err, &he) {
		return he.status
	}
	return http.StatusInternalServerError
}

// HandlerFunc is an http.HandlerFunc that may fail.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc answers errors returned by f with their StatusOf code and
// message as a plain text body. An HTTPError without cause gets no body.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		var he *httpError
		if errors.As(err, &he) && he.cause == nil {
			w.WriteHeader(he.status)
			return
		}
		http.Error(w, err.Error(), StatusOf(err))
	}
}

const JSONContentType = "application/json; charset=utf-8"

// ParseJSON parse a JSON object using strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON responds obj in JSON encoding with status 200.
func WriteJSON(w http.ResponseWriter, obj any) error {
	return WriteJSONStatus(w, http.StatusOK, obj)
}

// WriteJSONStatus responds obj in JSON encoding with status.
func WriteJSONStatus(w http.ResponseWriter, status int, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(obj)
}

// AddressVar parses the named path variable as an address.
func AddressVar(r *http.Request, name string) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(r)[name])
	if err != nil {
		return thor.Address{}, BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

// M shortcut for type map[string]any.
type M map[string]any
