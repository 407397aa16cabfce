// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"0X7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"1x7567d83b7b8d80addcb281a71d54fc7b3364ffed", true},
		{"0x7567d83b7b8d80addcb281a71d54fc7b3364ff", true},
		{"0x7567d83b7b8d80addcb281a71d54fc7b3364ffzz", true},
	}
	for _, tt := range tests {
		addr, err := ParseAddress(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())
	}
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("StakePool"))

	data, err := json.Marshal(&addr)
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)

	assert.Error(t, json.Unmarshal([]byte(`"0x01"`), &decoded))
}

func TestBytes32JSON(t *testing.T) {
	originalHex := `"0x00000000000000000000000000000000000000000000000000006d6173746572"`

	var b Bytes32
	require.NoError(t, json.Unmarshal([]byte(originalHex), &b))
	assert.Equal(t, BytesToBytes32([]byte("master")), b)

	data, err := json.Marshal(&b)
	require.NoError(t, err)
	assert.Equal(t, originalHex, string(data))
}

func TestBlake2b(t *testing.T) {
	a := Blake2b([]byte("pool"), []byte("vault"))
	b := Blake2b([]byte("poolvault"))
	assert.Equal(t, a, b, "multi-part input hashes as its concatenation")
	assert.NotEqual(t, Blake2b([]byte("pool")), a)
	assert.False(t, a.IsZero())
}

func TestProgramIdentities(t *testing.T) {
	assert.NotEqual(t, StakePoolProgram, TokenProgram)
	assert.False(t, StakePoolProgram.IsZero())
}
