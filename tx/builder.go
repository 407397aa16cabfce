// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import "github.com/vechain/stakepool/thor"

// Builder to make it easy to build transaction.
type Builder struct {
	body body
}

// NewBuilder creates a builder for the given kind.
func NewBuilder(kind Kind) *Builder {
	return &Builder{body: body{Kind: kind}}
}

// Nonce set nonce.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.body.Nonce = nonce
	return b
}

// Amount set amount.
func (b *Builder) Amount(amount uint64) *Builder {
	b.body.Amount = amount
	return b
}

// Decimals set decimals of a created mint.
func (b *Builder) Decimals(decimals uint8) *Builder {
	b.body.Decimals = decimals
	return b
}

// Account appends an account.
func (b *Builder) Account(addr thor.Address) *Builder {
	b.body.Accounts = append(b.body.Accounts, addr)
	return b
}

// Build build tx object.
func (b *Builder) Build() *Transaction {
	tx := Transaction{body: b.body}
	tx.body.Accounts = append([]thor.Address(nil), b.body.Accounts...)
	return &tx
}
