package models

import (
	"time"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	log "github.com/sirupsen/logrus"
)

// VrfRequest records one randomness request and, once fulfilled, its result.
type VrfRequest struct {
	Payer           ledger.Pubkey    `json:"payer"`
	Queue           ledger.Pubkey    `json:"queue"`
	Randomness      ledger.Pubkey    `json:"vrf"`
	Escrow          ledger.Pubkey    `json:"escrow"`
	Permission      ledger.Pubkey    `json:"permission"`
	PermissionBump  uint8            `json:"permission-bump"`
	ClientState     ledger.Pubkey    `json:"state"`
	ClientStateBump uint8            `json:"state-bump"`
	RequestTx       ledger.Signature `json:"request-tx"`
	MaxResult       uint64           `json:"max-result"`
	Result          uint64           `json:"result"`
	RequestedAt     time.Time        `json:"requested-at"`
	FulfilledAt     time.Time        `json:"fulfilled-at,omitempty"`
}

func (r *VrfRequest) Fulfilled() bool {
	return r.Result > 0
}

// Elapsed is the time between submitting the request and seeing the result.
func (r *VrfRequest) Elapsed() time.Duration {
	if !r.Fulfilled() {
		return 0
	}
	return r.FulfilledAt.Sub(r.RequestedAt)
}

func (r *VrfRequest) Fields() log.Fields {
	fields := log.Fields{
		"payer":      r.Payer.String(),
		"queue":      r.Queue.String(),
		"vrf":        r.Randomness.String(),
		"state":      r.ClientState.String(),
		"max-result": r.MaxResult,
	}
	if !r.Permission.IsZero() {
		fields["permission"] = r.Permission.String()
	}
	if r.Fulfilled() {
		fields["result"] = r.Result
		fields["elapsed"] = r.Elapsed().String()
	}
	return fields
}
