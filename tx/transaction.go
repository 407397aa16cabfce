// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/thor"
)

// MaxAccounts bounds the account list of a transaction.
const MaxAccounts = 4

var (
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrTooManyAccounts  = errors.New("too many accounts")
	ErrMissingAccount   = errors.New("missing account")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Transaction is an immutable signed request to run one transition.
type Transaction struct {
	body body

	cache struct {
		signingHash atomic.Pointer[thor.Bytes32]
		origin      atomic.Pointer[thor.Address]
	}
}

// body describes details of a tx.
//
// Accounts per kind:
//
//	initializePool    [stakeMint, rewardMint]
//	stake, unstake    [userStakeToken]       defaults to the origin's associated account
//	claimRewards      [userRewardToken]      defaults to the origin's associated account
//	createMint        []                     the mint address is derived from origin and nonce
//	createAccount     [mint, owner]          owner defaults to origin, the account is the associated address
//	mintTo            [mint, to]             to defaults to the origin's associated account
//	setMintAuthority  [mint, newAuthority]
type body struct {
	Kind      Kind
	Nonce     uint64
	Amount    uint64
	Decimals  uint8
	Accounts  []thor.Address
	Signature []byte
}

// Kind returns the transition kind.
func (t *Transaction) Kind() Kind { return t.body.Kind }

// Nonce returns the nonce. It only makes otherwise equal transactions distinct.
func (t *Transaction) Nonce() uint64 { return t.body.Nonce }

// Amount returns the token amount, if the kind takes one.
func (t *Transaction) Amount() uint64 { return t.body.Amount }

// Decimals returns the decimals of a created mint.
func (t *Transaction) Decimals() uint8 { return t.body.Decimals }

// Accounts returns a copy of the account list.
func (t *Transaction) Accounts() []thor.Address {
	return append([]thor.Address(nil), t.body.Accounts...)
}

// Account returns the i-th account, false if absent.
func (t *Transaction) Account(i int) (thor.Address, bool) {
	if i < len(t.body.Accounts) {
		return t.body.Accounts[i], true
	}
	return thor.Address{}, false
}

// Signature returns the signature.
func (t *Transaction) Signature() []byte {
	return append([]byte(nil), t.body.Signature...)
}

// WithSignature create a new tx with signature set.
func (t *Transaction) WithSignature(sig []byte) *Transaction {
	newTx := Transaction{
		body: t.body,
	}
	newTx.body.Accounts = t.Accounts()
	newTx.body.Signature = append([]byte(nil), sig...)
	return &newTx
}

// SigningHash returns hash of tx excludes signature.
func (t *Transaction) SigningHash() thor.Bytes32 {
	if cached := t.cache.signingHash.Load(); cached != nil {
		return *cached
	}
	h := thor.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, []any{
			t.body.Kind,
			t.body.Nonce,
			t.body.Amount,
			t.body.Decimals,
			t.body.Accounts,
		})
	})
	t.cache.signingHash.Store(&h)
	return h
}

// Origin recovers the signer.
func (t *Transaction) Origin() (thor.Address, error) {
	if cached := t.cache.origin.Load(); cached != nil {
		return *cached, nil
	}
	if len(t.body.Signature) != crypto.SignatureLength {
		return thor.Address{}, ErrInvalidSignature
	}
	pub, err := crypto.SigToPub(t.SigningHash().Bytes(), t.body.Signature)
	if err != nil {
		return thor.Address{}, errors.Wrap(ErrInvalidSignature, err.Error())
	}
	origin := thor.Address(crypto.PubkeyToAddress(*pub))
	t.cache.origin.Store(&origin)
	return origin, nil
}

// ID returns the id of tx. It's the hash of signing hash and origin, so the same request
// signed twice by the same key has the same id.
func (t *Transaction) ID() (thor.Bytes32, error) {
	origin, err := t.Origin()
	if err != nil {
		return thor.Bytes32{}, err
	}
	return thor.Blake2b(t.SigningHash().Bytes(), origin.Bytes()), nil
}

// Validate checks the shape of the tx, without touching state.
func (t *Transaction) Validate() error {
	if !t.body.Kind.Valid() {
		return ErrInvalidKind
	}
	if len(t.body.Accounts) > MaxAccounts {
		return ErrTooManyAccounts
	}
	required := 0
	switch t.body.Kind {
	case KindInitializePool, KindSetMintAuthority:
		required = 2
	case KindCreateAccount, KindMintTo:
		required = 1
	}
	if len(t.body.Accounts) < required {
		return errors.Wrapf(ErrMissingAccount, "%s requires %d", t.body.Kind, required)
	}
	return nil
}

// EncodeRLP implements rlp.Encoder
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	*t = Transaction{
		body: body,
	}
	return nil
}

func (t *Transaction) String() string {
	origin, _ := t.Origin()
	return "Tx(" + t.body.Kind.String() + ", origin " + origin.String() + ")"
}
