package vrf

import (
	"context"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/requester"
	"github.com/ori-shem-tov/vrf-requester/switchboard"
	log "github.com/sirupsen/logrus"
)

type ProvisionRequest struct {
	Queue      switchboard.Queue
	Callback   switchboard.Callback
	Randomness ledger.Signer
	// ClientState is the derived client-state address. It is also the
	// authority of the randomness account.
	ClientState ledger.Pubkey
	MaxResult   uint64
}

// Provisioned holds what the phases created. After a failure it holds the
// accounts of the phases that completed.
type Provisioned struct {
	Randomness  switchboard.RandomnessAccount
	Permission  PermissionRecord
	ClientState ledger.Pubkey
}

type provisionStep struct {
	phase Phase
	run   func(ctx context.Context) error
}

// AccountProvisioner creates the randomness account, its permission and the
// client-state account, in that order. Nothing is rolled back on failure.
type AccountProvisioner struct {
	oracle    OracleProgram
	requester RequesterProgram
	gate      *PermissionGate
	payer     ledger.Pubkey
}

func NewAccountProvisioner(oracle OracleProgram, requesterProgram RequesterProgram, gate *PermissionGate, payer ledger.Pubkey) *AccountProvisioner {
	return &AccountProvisioner{oracle: oracle, requester: requesterProgram, gate: gate, payer: payer}
}

func (p *AccountProvisioner) Provision(ctx context.Context, req ProvisionRequest) (Provisioned, error) {
	var out Provisioned
	steps := []provisionStep{
		{PhaseRandomness, func(ctx context.Context) (err error) {
			out.Randomness, err = p.oracle.CreateRandomness(ctx, switchboard.CreateRandomnessParams{
				Keypair:   req.Randomness,
				Queue:     req.Queue,
				Callback:  req.Callback,
				Authority: req.ClientState,
			})
			return err
		}},
		{PhasePermission, func(ctx context.Context) (err error) {
			out.Permission, err = p.gate.Ensure(ctx, req.Queue, out.Randomness.Address)
			return err
		}},
		{PhaseClientState, func(ctx context.Context) error {
			err := p.requester.InitState(ctx, requester.InitStateAccounts{
				State:     req.ClientState,
				Vrf:       out.Randomness.Address,
				Authority: p.payer,
			}, requester.InitStateParams{MaxResult: req.MaxResult})
			if err == nil {
				out.ClientState = req.ClientState
			}
			return err
		}},
	}

	for _, step := range steps {
		log.WithField("phase", step.phase.String()).Debug("provisioning")
		if err := step.run(ctx); err != nil {
			return out, &ProvisioningError{Phase: step.phase, Err: err}
		}
	}
	return out, nil
}
