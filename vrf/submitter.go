package vrf

import (
	"context"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/requester"
	"github.com/ori-shem-tov/vrf-requester/switchboard"
)

const (
	StageProgramState = "program-state"
	StagePermission   = "permission"
	StageEscrow       = "escrow"
	StagePayerWallet  = "payer-wallet"
	StageRequest      = "request"
)

// RequestSubmitter sends the request_result transaction once every account
// it references exists.
type RequestSubmitter struct {
	oracle    OracleProgram
	requester RequesterProgram
	tokens    TokenAccounts
	payer     ledger.Pubkey
}

func NewRequestSubmitter(oracle OracleProgram, requesterProgram RequesterProgram, tokens TokenAccounts, payer ledger.Pubkey) *RequestSubmitter {
	return &RequestSubmitter{oracle: oracle, requester: requesterProgram, tokens: tokens, payer: payer}
}

func (s *RequestSubmitter) Submit(
	ctx context.Context,
	clientState ledger.Pubkey,
	randomness switchboard.RandomnessAccount,
	permission PermissionRecord,
	queue switchboard.Queue,
) (ledger.Signature, error) {
	fail := func(stage string, err error) (ledger.Signature, error) {
		return ledger.Signature{}, &SubmissionError{Stage: stage, Err: err}
	}

	state, err := s.oracle.LoadProgramState(ctx)
	if err != nil {
		return fail(StageProgramState, err)
	}

	derived, err := derivePermission(s.oracle.ProgramID(), queue, randomness.Address)
	if err != nil {
		return fail(StagePermission, err)
	}
	if derived.Address != permission.Address || derived.Bump != permission.Bump {
		return fail(StagePermission, ErrPermissionMismatch)
	}

	onChain, err := s.oracle.LoadRandomness(ctx, randomness.Address)
	if err != nil {
		return fail(StageEscrow, err)
	}

	wallet, err := s.tokens.ResolveTokenAccount(ctx, s.payer, state.TokenMint)
	if err != nil {
		return fail(StagePayerWallet, err)
	}

	sig, err := s.requester.RequestResult(ctx, requester.RequestResultAccounts{
		State:              clientState,
		SwitchboardProgram: s.oracle.ProgramID(),
		Vrf:                randomness.Address,
		OracleQueue:        queue.Address,
		QueueAuthority:     queue.Authority,
		DataBuffer:         queue.DataBuffer,
		Permission:         permission.Address,
		Escrow:             onChain.Escrow,
		PayerWallet:        wallet,
		ProgramState:       state.Address,
	}, requester.RequestResultParams{
		SwitchboardStateBump: state.Bump,
		PermissionBump:       permission.Bump,
	})
	if err != nil {
		return fail(StageRequest, err)
	}
	return sig, nil
}
