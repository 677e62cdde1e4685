package vrf

import (
	"context"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/switchboard"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// PermissionRecord identifies the permission account granting grantee the
// right to request randomness from the granter queue.
type PermissionRecord struct {
	Address   ledger.Pubkey
	Bump      uint8
	Authority ledger.Pubkey
	Granter   ledger.Pubkey
	Grantee   ledger.Pubkey
}

func derivePermission(oracleProgram ledger.Pubkey, queue switchboard.Queue, grantee ledger.Pubkey) (PermissionRecord, error) {
	d, err := NewAddressDeriver(oracleProgram).Derive(switchboard.PermissionSeeds(queue.Authority, queue.Address, grantee)...)
	if err != nil {
		return PermissionRecord{}, err
	}
	return PermissionRecord{
		Address:   d.Address,
		Bump:      d.Bump,
		Authority: queue.Authority,
		Granter:   queue.Address,
		Grantee:   grantee,
	}, nil
}

// PermissionGate makes sure a grantee may request randomness from a queue.
type PermissionGate struct {
	oracle    OracleProgram
	authority ledger.Signer
}

// NewPermissionGate grants permissions as authority when the queue requires
// it. authority must be the queue authority for permissioned queues.
func NewPermissionGate(oracle OracleProgram, authority ledger.Signer) *PermissionGate {
	return &PermissionGate{oracle: oracle, authority: authority}
}

// Ensure creates the permission record if it does not exist yet and enables
// PERMIT_VRF_REQUESTS on it unless the queue accepts unpermissioned requests.
// Calling it again with the same queue and grantee returns the same record.
func (g *PermissionGate) Ensure(ctx context.Context, queue switchboard.Queue, grantee ledger.Pubkey) (PermissionRecord, error) {
	record, err := derivePermission(g.oracle.ProgramID(), queue, grantee)
	if err != nil {
		return PermissionRecord{}, err
	}
	logger := log.WithFields(log.Fields{
		"permission": record.Address.String(),
		"queue":      queue.Address.String(),
		"grantee":    grantee.String(),
	})

	err = g.oracle.CreatePermission(ctx, switchboard.CreatePermissionParams{
		Permission: record.Address,
		Authority:  record.Authority,
		Granter:    record.Granter,
		Grantee:    record.Grantee,
	})
	switch {
	case errors.Is(err, ledger.ErrAccountInUse):
		logger.Debug("permission account already exists")
	case err != nil:
		return PermissionRecord{}, err
	}

	if queue.UnpermissionedVrfEnabled {
		logger.Debug("queue permits unpermissioned vrf requests")
		return record, nil
	}

	caller := g.authority.PublicKey()
	if caller != queue.Authority {
		return PermissionRecord{}, &UnauthorizedQueueError{Queue: queue.Address, Authority: queue.Authority, Caller: caller}
	}
	err = g.oracle.SetPermission(ctx, switchboard.SetPermissionParams{
		Permission: record.Address,
		Authority:  g.authority,
		Kind:       switchboard.PermitVrfRequests,
		Enable:     true,
	})
	if err != nil {
		return PermissionRecord{}, &GrantSubmissionError{Permission: record.Address, Err: err}
	}
	logger.Info("granted vrf permission")
	return record, nil
}
