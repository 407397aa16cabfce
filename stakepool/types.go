// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"bytes"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/thor"
)

// Pool is the single staking pool.
type Pool struct {
	Authority   thor.Address `json:"authority"`
	StakeMint   thor.Address `json:"stakeMint"`
	RewardMint  thor.Address `json:"rewardMint"`
	TotalStaked uint64       `json:"totalStaked"`
	RewardRate  uint64       `json:"rewardRate"`
	Bump        uint8        `json:"bump"`
	VaultBump   uint8        `json:"vaultBump"`
}

// UserStake is the staked balance of one owner.
type UserStake struct {
	Owner  thor.Address `json:"owner"`
	Amount uint64       `json:"amount"`
	Bump   uint8        `json:"bump"`
}

// Reward returns the amount a claim would mint: Amount / RewardRate, floored.
func (u *UserStake) Reward(rate uint64) (uint64, error) {
	if rate == 0 {
		return 0, newError(MathOverflow, errors.New("zero reward rate"))
	}
	return u.Amount / rate, nil
}

// record discriminators prefix each encoded record.
var (
	poolDiscriminator      = discriminator("Pool")
	userStakeDiscriminator = discriminator("UserStake")
)

func discriminator(name string) []byte {
	h := thor.Blake2b([]byte("account:" + name))
	return h[:8]
}

func encodeRecord(disc []byte, v any) ([]byte, error) {
	data, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, err
	}
	return append(append(make([]byte, 0, len(disc)+len(data)), disc...), data...), nil
}

func decodeRecord(raw, disc []byte, v any) error {
	if len(raw) < len(disc) || !bytes.Equal(raw[:len(disc)], disc) {
		return errors.New("record discriminator mismatch")
	}
	return rlp.DecodeBytes(raw[len(disc):], v)
}

// DecodeUserStake decodes a user stake record. ok is false when raw holds another kind of record.
func DecodeUserStake(raw []byte) (stake *UserStake, ok bool, err error) {
	if len(raw) < len(userStakeDiscriminator) || !bytes.Equal(raw[:len(userStakeDiscriminator)], userStakeDiscriminator) {
		return nil, false, nil
	}
	var u UserStake
	if err := decodeRecord(raw, userStakeDiscriminator, &u); err != nil {
		return nil, false, err
	}
	return &u, true, nil
}
