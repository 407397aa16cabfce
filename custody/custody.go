// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package custody derives keyless authority addresses for programs.
//
// A custody address is computed from a program identity, a list of seeds and a one byte
// bump. The bump is searched downward from 255 until the digest is not the x coordinate
// of a secp256k1 point, so no private key can ever exist for the address. Programs prove
// authority over such an address by re-deriving it.
package custody

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
	"github.com/vechain/stakepool/thor"
)

const marker = "ProgramDerivedAddress"

var (
	ErrOnCurve         = errors.New("custody: derived address is on curve")
	ErrNoBump          = errors.New("custody: unable to find a viable bump")
	ErrTooManySeeds    = errors.New("custody: too many seeds")
	ErrMaxSeedExceeded = errors.New("custody: seed too long")
)

func checkSeeds(seeds [][]byte) error {
	if len(seeds) > thor.MaxSeeds {
		return ErrTooManySeeds
	}
	for _, seed := range seeds {
		if len(seed) > thor.MaxSeedLength {
			return ErrMaxSeedExceeded
		}
	}
	return nil
}

func digest(program thor.Address, bump byte, seeds [][]byte) thor.Bytes32 {
	data := make([][]byte, 0, len(seeds)+3)
	data = append(data, seeds...)
	return thor.Blake2b(append(data, []byte{bump}, program[:], []byte(marker))...)
}

// onCurve reports whether h is the x coordinate of a point on secp256k1.
func onCurve(h thor.Bytes32) bool {
	var compressed [33]byte
	compressed[0] = secp256k1.PubKeyFormatCompressedEven
	copy(compressed[1:], h[:])
	_, err := secp256k1.ParsePubKey(compressed[:])
	return err == nil
}

// CreateAddress derives the address for the given bump and seeds.
// It returns ErrOnCurve if the bump is not viable.
func CreateAddress(program thor.Address, bump byte, seeds ...[]byte) (thor.Address, error) {
	if err := checkSeeds(seeds); err != nil {
		return thor.Address{}, err
	}
	h := digest(program, bump, seeds)
	if onCurve(h) {
		return thor.Address{}, ErrOnCurve
	}
	return thor.BytesToAddress(h[12:]), nil
}

// FindAddress derives the address using the highest viable bump.
func FindAddress(program thor.Address, seeds ...[]byte) (thor.Address, byte, error) {
	if err := checkSeeds(seeds); err != nil {
		return thor.Address{}, 0, err
	}
	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateAddress(program, byte(bump), seeds...)
		if err == nil {
			return addr, byte(bump), nil
		}
	}
	return thor.Address{}, 0, ErrNoBump
}

// MustFindAddress is FindAddress that panics on error.
func MustFindAddress(program thor.Address, seeds ...[]byte) (thor.Address, byte) {
	addr, bump, err := FindAddress(program, seeds...)
	if err != nil {
		panic(err)
	}
	return addr, bump
}

// Proof is the authority a program holds over one of its custody addresses.
type Proof struct {
	program thor.Address
	bump    byte
	seeds   [][]byte
	address thor.Address
}

// SignAs creates the proof for the address derived from program, bump and seeds.
func SignAs(program thor.Address, bump byte, seeds ...[]byte) (*Proof, error) {
	addr, err := CreateAddress(program, bump, seeds...)
	if err != nil {
		return nil, err
	}
	cpy := make([][]byte, len(seeds))
	for i, seed := range seeds {
		cpy[i] = append([]byte(nil), seed...)
	}
	return &Proof{
		program: program,
		bump:    bump,
		seeds:   cpy,
		address: addr,
	}, nil
}

// Address returns the custody address the proof is for.
func (p *Proof) Address() thor.Address {
	return p.address
}

// Program returns the program the address belongs to.
func (p *Proof) Program() thor.Address {
	return p.program
}

// Authorizes re-derives the custody address and compares it with owner.
func (p *Proof) Authorizes(owner thor.Address) bool {
	if p == nil {
		return false
	}
	addr, err := CreateAddress(p.program, p.bump, p.seeds...)
	return err == nil && addr == owner
}

func (p *Proof) String() string {
	return "custody(" + p.address.String() + ")"
}
