// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx_test

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/tx"
)

func TestSignAndRecover(t *testing.T) {
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := thor.Address(crypto.PubkeyToAddress(pk.PublicKey))

	unsigned := tx.NewBuilder(tx.KindStake).Nonce(1).Amount(100).Build()
	_, err = unsigned.Origin()
	assert.ErrorIs(t, err, tx.ErrInvalidSignature)

	trx := tx.MustSign(unsigned, pk)
	origin, err := trx.Origin()
	require.NoError(t, err)
	assert.Equal(t, signer, origin)
	assert.Equal(t, unsigned.SigningHash(), trx.SigningHash(), "signature is not part of the signing hash")

	id1, err := trx.ID()
	require.NoError(t, err)
	again := tx.MustSign(tx.NewBuilder(tx.KindStake).Nonce(1).Amount(100).Build(), pk)
	id2, err := again.ID()
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	other := tx.MustSign(tx.NewBuilder(tx.KindStake).Nonce(2).Amount(100).Build(), pk)
	id3, err := other.ID()
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestTamperedSignature(t *testing.T) {
	pk, _ := crypto.GenerateKey()
	trx := tx.MustSign(tx.NewBuilder(tx.KindUnstake).Amount(5).Build(), pk)

	sig := trx.Signature()
	sig[64] = 9
	_, err := trx.WithSignature(sig).Origin()
	assert.ErrorIs(t, err, tx.ErrInvalidSignature)

	_, err = trx.WithSignature(sig[:10]).Origin()
	assert.ErrorIs(t, err, tx.ErrInvalidSignature)
}

func TestRLP(t *testing.T) {
	pk, _ := crypto.GenerateKey()
	mint := thor.BytesToAddress([]byte("mint"))
	trx := tx.MustSign(tx.NewBuilder(tx.KindCreateAccount).Decimals(6).Account(mint).Build(), pk)

	data, err := rlp.EncodeToBytes(trx)
	require.NoError(t, err)

	var decoded tx.Transaction
	require.NoError(t, rlp.DecodeBytes(data, &decoded))
	assert.Equal(t, tx.KindCreateAccount, decoded.Kind())
	assert.Equal(t, uint8(6), decoded.Decimals())
	assert.Equal(t, []thor.Address{mint}, decoded.Accounts())

	o1, _ := trx.Origin()
	o2, err := decoded.Origin()
	require.NoError(t, err)
	assert.Equal(t, o1, o2)
}

func TestValidate(t *testing.T) {
	a := thor.BytesToAddress([]byte("a"))
	tests := []struct {
		name string
		trx  *tx.Transaction
		want error
	}{
		{"unknown kind", tx.NewBuilder(0).Build(), tx.ErrInvalidKind},
		{"stake without accounts", tx.NewBuilder(tx.KindStake).Amount(1).Build(), nil},
		{"claim", tx.NewBuilder(tx.KindClaimRewards).Build(), nil},
		{"init needs two", tx.NewBuilder(tx.KindInitializePool).Account(a).Build(), tx.ErrMissingAccount},
		{"init", tx.NewBuilder(tx.KindInitializePool).Account(a).Account(a).Build(), nil},
		{"create mint", tx.NewBuilder(tx.KindCreateMint).Build(), nil},
		{"mint to needs the mint", tx.NewBuilder(tx.KindMintTo).Amount(1).Build(), tx.ErrMissingAccount},
		{"too many", tx.NewBuilder(tx.KindStake).Account(a).Account(a).Account(a).Account(a).Account(a).Build(), tx.ErrTooManyAccounts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trx.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestKind(t *testing.T) {
	for k := tx.KindInitializePool; k <= tx.KindSetMintAuthority; k++ {
		parsed, err := tx.ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := tx.ParseKind("slash")
	assert.Error(t, err)
	assert.Equal(t, "unknown", tx.Kind(99).String())

	var v struct {
		Kind tx.Kind `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"claimRewards"}`), &v))
	assert.Equal(t, tx.KindClaimRewards, v.Kind)
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"claimRewards"}`, string(data))
}
