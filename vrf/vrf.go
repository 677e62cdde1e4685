// Package vrf drives one randomness request end to end: it derives the
// client-state address, provisions the oracle and requester accounts, submits
// the request and waits for the oracle's callback to land.
package vrf

import (
	"context"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/requester"
	"github.com/ori-shem-tov/vrf-requester/switchboard"
)

// OracleProgram is the randomness oracle. switchboard.Client implements it.
type OracleProgram interface {
	ProgramID() ledger.Pubkey
	LoadQueue(ctx context.Context, address ledger.Pubkey) (switchboard.Queue, error)
	LoadProgramState(ctx context.Context) (switchboard.ProgramState, error)
	LoadRandomness(ctx context.Context, address ledger.Pubkey) (switchboard.RandomnessAccount, error)
	CreateRandomness(ctx context.Context, params switchboard.CreateRandomnessParams) (switchboard.RandomnessAccount, error)
	CreatePermission(ctx context.Context, params switchboard.CreatePermissionParams) error
	SetPermission(ctx context.Context, params switchboard.SetPermissionParams) error
}

// RequesterProgram owns the client-state account. requester.Client implements it.
type RequesterProgram interface {
	ProgramID() ledger.Pubkey
	InitState(ctx context.Context, accounts requester.InitStateAccounts, params requester.InitStateParams) error
	RequestResult(ctx context.Context, accounts requester.RequestResultAccounts, params requester.RequestResultParams) (ledger.Signature, error)
	ClientStateDecoder
}

// ClientStateDecoder decodes client-state account data.
type ClientStateDecoder interface {
	DecodeClientState(data []byte) (requester.ClientState, error)
}

// TokenAccounts resolves (creating if needed) the token wallet of owner.
type TokenAccounts interface {
	ResolveTokenAccount(ctx context.Context, owner, mint ledger.Pubkey) (ledger.Pubkey, error)
}
