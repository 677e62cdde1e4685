package vrf

import (
	"context"
	"time"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/models"
	"github.com/ori-shem-tov/vrf-requester/requester"
	"github.com/ori-shem-tov/vrf-requester/schema"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Runner sequences a full request. The programs, token accounts and watcher
// must act on behalf of the payer passed to Run.
type Runner struct {
	Oracle    OracleProgram
	Requester RequesterProgram
	Tokens    TokenAccounts
	Watcher   ledger.AccountWatcher

	// Schema encodes the callback instruction; nil uses requester.IDL.
	Schema    schema.Coder
	Queue     ledger.Pubkey
	MaxResult uint64

	// NewRandomnessKey returns the ephemeral key of the randomness account.
	// Defaults to ledger.NewKeypair.
	NewRandomnessKey func() ledger.Signer
}

func (r *Runner) randomnessKey() ledger.Signer {
	if r.NewRandomnessKey != nil {
		return r.NewRandomnessKey()
	}
	return ledger.NewKeypair()
}

func (r *Runner) callbackSchema() schema.Coder {
	if r.Schema != nil {
		return r.Schema
	}
	return schema.MustAnchorCoder(requester.IDL)
}

// RunVrfRequest requests randomness paid by payer and returns the fulfilled
// value, or fails if it does not land within timeout.
func (r *Runner) RunVrfRequest(ctx context.Context, payer ledger.Signer, timeout time.Duration) (uint64, error) {
	req, err := r.Run(ctx, payer, timeout)
	if err != nil {
		return 0, err
	}
	return req.Result, nil
}

// Run is RunVrfRequest returning every account involved. On failure the
// record holds whatever was provisioned before the failing step.
func (r *Runner) Run(ctx context.Context, payer ledger.Signer, timeout time.Duration) (models.VrfRequest, error) {
	randomness := r.randomnessKey()
	record := models.VrfRequest{
		Payer:      payer.PublicKey(),
		Queue:      r.Queue,
		Randomness: randomness.PublicKey(),
		MaxResult:  r.MaxResult,
	}

	client, err := NewAddressDeriver(r.Requester.ProgramID()).Derive(
		requester.ClientStateSeeds(randomness.PublicKey(), payer.PublicKey())...)
	if err != nil {
		return record, err
	}
	record.ClientState, record.ClientStateBump = client.Address, client.Bump

	callback, err := NewCallbackBuilder(r.callbackSchema()).Build(
		r.Requester.ProgramID(), client.Address, randomness.PublicKey(), requester.UpdateResultInstruction, nil)
	if err != nil {
		return record, err
	}

	queue, err := r.Oracle.LoadQueue(ctx, r.Queue)
	if err != nil {
		return record, errors.Wrapf(err, "could not load queue %s", r.Queue)
	}
	log.WithFields(record.Fields()).Info("starting vrf request")

	provisioner := NewAccountProvisioner(r.Oracle, r.Requester, NewPermissionGate(r.Oracle, payer), payer.PublicKey())
	accounts, err := provisioner.Provision(ctx, ProvisionRequest{
		Queue:       queue,
		Callback:    callback,
		Randomness:  randomness,
		ClientState: client.Address,
		MaxResult:   r.MaxResult,
	})
	record.Escrow = accounts.Randomness.Escrow
	record.Permission, record.PermissionBump = accounts.Permission.Address, accounts.Permission.Bump
	if err != nil {
		return record, err
	}

	record.RequestedAt = time.Now()
	record.RequestTx, err = NewRequestSubmitter(r.Oracle, r.Requester, r.Tokens, payer.PublicKey()).
		Submit(ctx, client.Address, accounts.Randomness, accounts.Permission, queue)
	if err != nil {
		return record, err
	}

	record.Result, err = NewResultWaiter(r.Watcher, r.Requester).Wait(ctx, client.Address, timeout)
	if err != nil {
		return record, err
	}
	record.FulfilledAt = time.Now()
	log.WithFields(record.Fields()).Info("vrf request fulfilled")
	return record, nil
}
