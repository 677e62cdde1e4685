package switchboard

import "github.com/ori-shem-tov/vrf-requester/schema"

// The encoders below write the account layouts this package reads. They are
// used to seed local ledgers.

var layoutCoder = schema.MustAnchorCoder(IDL)

func EncodeQueueAccount(q Queue) ([]byte, error) {
	return layoutCoder.EncodeAccount(accountQueue, oracleQueueAccountData{
		Authority:                q.Authority,
		DataBuffer:               q.DataBuffer,
		Mint:                     q.Mint,
		UnpermissionedVrfEnabled: q.UnpermissionedVrfEnabled,
	})
}

func EncodeProgramState(s ProgramState) ([]byte, error) {
	return layoutCoder.EncodeAccount(accountState, sbState{
		Authority: s.Authority,
		TokenMint: s.TokenMint,
	})
}

func EncodeRandomnessAccount(r RandomnessAccount) ([]byte, error) {
	return layoutCoder.EncodeAccount(accountVrf, vrfAccountData{
		Status:      r.Status,
		Counter:     r.Counter,
		Authority:   r.Authority,
		OracleQueue: r.Queue,
		Escrow:      r.Escrow,
	})
}
