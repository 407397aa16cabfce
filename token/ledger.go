// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token keeps mints and token accounts and moves units between them.
// Every operation validates all its inputs before writing anything.
package token

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/custody"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

var logger = log.WithContext("pkg", "token")

var (
	ErrMintNotFound      = errors.New("mint not found")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMintMismatch      = errors.New("mint mismatch")
	ErrOwnerMismatch     = errors.New("owner does not match")
	ErrOverflow          = errors.New("amount overflow")
)

// Ledger binds the token records of program in a state.
type Ledger struct {
	program thor.Address
	state   *state.State
}

// New creates a token ledger.
func New(program thor.Address, st *state.State) *Ledger {
	return &Ledger{program, st}
}

// Program returns the identity owning the token records.
func (l *Ledger) Program() thor.Address {
	return l.program
}

// AssociatedAddress derives the canonical token account address of owner for mint.
func (l *Ledger) AssociatedAddress(owner, mint thor.Address) thor.Address {
	addr, _ := custody.MustFindAddress(l.program, owner.Bytes(), mint.Bytes())
	return addr
}

// MintAddress derives the address of the mint created by creator with nonce.
func (l *Ledger) MintAddress(creator thor.Address, nonce uint64) thor.Address {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	addr, _ := custody.MustFindAddress(l.program, []byte("mint"), creator.Bytes(), n[:])
	return addr
}

func (l *Ledger) free(addr thor.Address) error {
	exists, err := l.state.Exists(l.program, addr)
	if err != nil {
		return err
	}
	if exists {
		return ErrAccountExists
	}
	return nil
}

// Mint returns the mint at addr. An address holding anything but a mint
// yields ErrMintNotFound.
func (l *Ledger) Mint(addr thor.Address) (*Mint, error) {
	var m Mint
	if err := l.state.DecodeAccount(l.program, addr, func(raw []byte) error {
		if len(raw) == 0 || raw[0] != kindMint {
			return ErrMintNotFound
		}
		return decode(raw, kindMint, &m)
	}); err != nil {
		return nil, unwrapNotFound(err, ErrMintNotFound)
	}
	return &m, nil
}

// Account returns the token account at addr. An address holding anything
// but a token account yields ErrAccountNotFound.
func (l *Ledger) Account(addr thor.Address) (*Account, error) {
	var a Account
	if err := l.state.DecodeAccount(l.program, addr, func(raw []byte) error {
		if len(raw) == 0 || raw[0] != kindAccount {
			return ErrAccountNotFound
		}
		return decode(raw, kindAccount, &a)
	}); err != nil {
		return nil, unwrapNotFound(err, ErrAccountNotFound)
	}
	return &a, nil
}

func unwrapNotFound(err, target error) error {
	if errors.Is(err, target) {
		return target
	}
	return err
}

// Balance returns the amount held by the token account at addr.
func (l *Ledger) Balance(addr thor.Address) (uint64, error) {
	acc, err := l.Account(addr)
	if err != nil {
		return 0, err
	}
	return acc.Amount, nil
}

func (l *Ledger) setMint(addr thor.Address, m *Mint) error {
	return l.state.EncodeAccount(l.program, addr, func() ([]byte, error) {
		return encode(kindMint, m)
	})
}

func (l *Ledger) setAccount(addr thor.Address, a *Account) error {
	return l.state.EncodeAccount(l.program, addr, func() ([]byte, error) {
		return encode(kindAccount, a)
	})
}

// CreateMint creates an empty mint at addr.
func (l *Ledger) CreateMint(addr, authority thor.Address, decimals uint8) error {
	if err := l.free(addr); err != nil {
		return err
	}
	return l.setMint(addr, &Mint{Authority: authority, Decimals: decimals})
}

// CreateAccount creates an empty token account at addr.
func (l *Ledger) CreateAccount(addr, mint, owner thor.Address) error {
	if err := l.free(addr); err != nil {
		return err
	}
	if _, err := l.Mint(mint); err != nil {
		return err
	}
	return l.setAccount(addr, &Account{Mint: mint, Owner: owner})
}

// Transfer moves amount from the account at from to the account at to. authority must
// authorize the owner of from.
func (l *Ledger) Transfer(from, to thor.Address, authority Authority, amount uint64) error {
	src, err := l.Account(from)
	if err != nil {
		return errors.WithMessage(err, "source")
	}
	dst, err := l.Account(to)
	if err != nil {
		return errors.WithMessage(err, "destination")
	}
	if src.Mint != dst.Mint {
		return ErrMintMismatch
	}
	if authority == nil || !authority.Authorizes(src.Owner) {
		return ErrOwnerMismatch
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	newDst, overflow := math.SafeAdd(dst.Amount, amount)
	if overflow {
		return ErrOverflow
	}
	src.Amount -= amount
	dst.Amount = newDst

	if err := l.setAccount(from, src); err != nil {
		return err
	}
	if err := l.setAccount(to, dst); err != nil {
		return err
	}
	logger.Trace("transferred", "from", from, "to", to, "amount", amount)
	return nil
}

// MintTo creates amount new units of mint into the account at to. authority must authorize
// the mint authority.
func (l *Ledger) MintTo(mint, to thor.Address, authority Authority, amount uint64) error {
	m, err := l.Mint(mint)
	if err != nil {
		return err
	}
	dst, err := l.Account(to)
	if err != nil {
		return errors.WithMessage(err, "destination")
	}
	if dst.Mint != mint {
		return ErrMintMismatch
	}
	if authority == nil || !authority.Authorizes(m.Authority) {
		return ErrOwnerMismatch
	}
	supply, overflow := math.SafeAdd(m.Supply, amount)
	if overflow {
		return ErrOverflow
	}
	balance, overflow := math.SafeAdd(dst.Amount, amount)
	if overflow {
		return ErrOverflow
	}
	m.Supply, dst.Amount = supply, balance

	if err := l.setMint(mint, m); err != nil {
		return err
	}
	if err := l.setAccount(to, dst); err != nil {
		return err
	}
	logger.Trace("minted", "mint", mint, "to", to, "amount", amount)
	return nil
}

// SetMintAuthority hands the mint authority over to next.
func (l *Ledger) SetMintAuthority(mint thor.Address, current Authority, next thor.Address) error {
	m, err := l.Mint(mint)
	if err != nil {
		return err
	}
	if current == nil || !current.Authorizes(m.Authority) {
		return ErrOwnerMismatch
	}
	m.Authority = next
	return l.setMint(mint, m)
}
