// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"github.com/pkg/errors"
)

// Code classifies a rejected transition. The string form is stable and user readable.
type Code uint8

const (
	InvalidAmount Code = iota + 1
	InsufficientStake
	MathOverflow
	TransferFailure
	MintFailure
	AuthorizationFailure
	AlreadyInitialized
	NotInitialized
	InvalidAccount
)

var codeNames = map[Code]string{
	InvalidAmount:        "InvalidAmount",
	InsufficientStake:    "InsufficientStake",
	MathOverflow:         "MathOverflow",
	TransferFailure:      "TransferFailure",
	MintFailure:          "MintFailure",
	AuthorizationFailure: "AuthorizationFailure",
	AlreadyInitialized:   "AlreadyInitialized",
	NotInitialized:       "NotInitialized",
	InvalidAccount:       "InvalidAccount",
}

var codeMessages = map[Code]string{
	InvalidAmount:        "amount must be greater than zero",
	InsufficientStake:    "insufficient staked balance",
	MathOverflow:         "arithmetic overflow",
	TransferFailure:      "token transfer failed",
	MintFailure:          "reward mint failed",
	AuthorizationFailure: "caller is not authorized",
	AlreadyInitialized:   "pool already initialized",
	NotInitialized:       "pool not initialized",
	InvalidAccount:       "invalid account",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "Unknown"
}

// Error is a rejected transition. Errors with equal codes match under errors.Is.
type Error struct {
	code  Code
	cause error
}

func newError(code Code, cause error) *Error {
	return &Error{code, cause}
}

// Code returns the classification.
func (e *Error) Code() Code {
	return e.code
}

func (e *Error) Error() string {
	msg := e.code.String() + ": " + codeMessages[e.code]
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.code == e.code
}

var (
	ErrInvalidAmount        = &Error{code: InvalidAmount}
	ErrInsufficientStake    = &Error{code: InsufficientStake}
	ErrMathOverflow         = &Error{code: MathOverflow}
	ErrTransferFailure      = &Error{code: TransferFailure}
	ErrMintFailure          = &Error{code: MintFailure}
	ErrAuthorizationFailure = &Error{code: AuthorizationFailure}
	ErrAlreadyInitialized   = &Error{code: AlreadyInitialized}
	ErrNotInitialized       = &Error{code: NotInitialized}
	ErrInvalidAccount       = &Error{code: InvalidAccount}
)

// CodeOf extracts the classification of err. It returns false for errors that are not
// rejected transitions, like storage failures.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.code, true
	}
	return 0, false
}
