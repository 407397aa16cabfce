// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import "github.com/pkg/errors"

// Kind selects the transition a transaction invokes.
type Kind uint8

const (
	KindInitializePool Kind = iota + 1
	KindStake
	KindUnstake
	KindClaimRewards
	KindCreateMint
	KindCreateAccount
	KindMintTo
	KindSetMintAuthority
)

var kindNames = []string{
	KindInitializePool:   "initializePool",
	KindStake:            "stake",
	KindUnstake:          "unstake",
	KindClaimRewards:     "claimRewards",
	KindCreateMint:       "createMint",
	KindCreateAccount:    "createAccount",
	KindMintTo:           "mintTo",
	KindSetMintAuthority: "setMintAuthority",
}

// Valid returns whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= KindInitializePool && k <= KindSetMintAuthority
}

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind parses the string form of a kind.
func ParseKind(s string) (Kind, error) {
	for k := KindInitializePool; k <= KindSetMintAuthority; k++ {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown transaction kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
