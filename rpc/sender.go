package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/tools"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Sender signs transactions with its payer, submits them and waits for the
// client's commitment level.
type Sender struct {
	client *Client
	payer  ledger.Signer

	PollInterval time.Duration
	PollAttempts int
}

func NewSender(client *Client, payer ledger.Signer) *Sender {
	return &Sender{
		client:       client,
		payer:        payer,
		PollInterval: 500 * time.Millisecond,
		PollAttempts: 120,
	}
}

func (s *Sender) Payer() ledger.Pubkey { return s.payer.PublicKey() }

func (s *Sender) Send(ctx context.Context, ixs []ledger.Instruction, extraSigners ...ledger.Signer) (ledger.Signature, error) {
	blockhash, err := s.client.GetLatestBlockhash(ctx)
	if err != nil {
		return ledger.Signature{}, errors.Wrap(err, "could not get latest blockhash")
	}

	tx, err := ledger.NewTransaction(ixs, blockhash, s.payer, extraSigners...)
	if err != nil {
		return ledger.Signature{}, errors.Wrap(err, "could not build transaction")
	}

	sig, err := s.client.SendTransaction(ctx, tx)
	if err != nil {
		return ledger.Signature{}, err
	}
	log.Debugf("sent transaction %s", sig)

	err = tools.Poll(ctx, s.PollInterval, s.PollAttempts, func(ctx context.Context) (bool, error) {
		status, err := s.client.GetSignatureStatus(ctx, sig)
		if err != nil {
			return false, err
		}
		if status == nil {
			return false, nil
		}
		if status.Failed() {
			return false, fmt.Errorf("transaction %s failed: %s", sig, string(status.Err))
		}
		return status.Reached(s.client.Commitment()), nil
	})
	if err != nil {
		return sig, errors.Wrapf(err, "could not confirm transaction %s", sig)
	}

	log.Debugf("confirmed transaction %s", sig)
	return sig, nil
}
