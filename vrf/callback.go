package vrf

import (
	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/schema"
	"github.com/ori-shem-tov/vrf-requester/switchboard"
)

// CallbackBuilder encodes the instruction the oracle invokes once the
// randomness is fulfilled.
type CallbackBuilder struct {
	Coder schema.Coder
}

func NewCallbackBuilder(coder schema.Coder) CallbackBuilder {
	return CallbackBuilder{Coder: coder}
}

// Build targets program with [target writable, aux readonly]. Neither account
// signs: the oracle cannot produce the requester's signatures.
func (b CallbackBuilder) Build(program, target, aux ledger.Pubkey, instruction string, args interface{}) (switchboard.Callback, error) {
	data, err := b.Coder.EncodeInstruction(instruction, args)
	if err != nil {
		return switchboard.Callback{}, &EncodingError{Instruction: instruction, Err: err}
	}
	return switchboard.Callback{
		ProgramID: program,
		Accounts: []switchboard.AccountMeta{
			{Pubkey: target, IsWritable: true},
			{Pubkey: aux},
		},
		IxData: data,
	}, nil
}
