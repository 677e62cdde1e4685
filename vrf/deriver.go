package vrf

import (
	"github.com/ori-shem-tov/vrf-requester/ledger"
)

// DerivedAddress is a program-derived address and the bump that makes it
// fall off the curve.
type DerivedAddress struct {
	Address ledger.Pubkey
	Bump    uint8
}

// AddressDeriver derives addresses owned by one program. The result depends
// only on the seeds, their order and the program id.
type AddressDeriver struct {
	ProgramID ledger.Pubkey
}

func NewAddressDeriver(programID ledger.Pubkey) AddressDeriver {
	return AddressDeriver{ProgramID: programID}
}

func (d AddressDeriver) Derive(seeds ...[]byte) (DerivedAddress, error) {
	address, bump, err := ledger.FindProgramAddress(seeds, d.ProgramID)
	if err != nil {
		return DerivedAddress{}, &InvalidSeedError{Seeds: len(seeds), Err: err}
	}
	return DerivedAddress{Address: address, Bump: bump}, nil
}
