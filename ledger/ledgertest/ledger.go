// Package ledgertest provides an in-memory ledger for tests.
package ledgertest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ori-shem-tov/vrf-requester/ledger"
)

// SentTx is a transaction accepted by the fake ledger.
type SentTx struct {
	Instructions []ledger.Instruction
	Signers      []ledger.Pubkey
}

// Ledger implements AccountReader, TxSender, RentCalculator and AccountWatcher.
type Ledger struct {
	payer ledger.Keypair

	mu       sync.Mutex
	accounts map[ledger.Pubkey]*ledger.Account
	sent     []SentTx
	subs     map[ledger.Pubkey][]*Subscription

	// OnSend may reject a transaction or emulate its effects.
	OnSend       func(tx SentTx) error
	SubscribeErr error
	Rent         uint64
}

func New(payer ledger.Keypair) *Ledger {
	return &Ledger{
		payer:    payer,
		accounts: make(map[ledger.Pubkey]*ledger.Account),
		subs:     make(map[ledger.Pubkey][]*Subscription),
		Rent:     1000,
	}
}

func (l *Ledger) SetAccount(address, owner ledger.Pubkey, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[address] = &ledger.Account{Address: address, Owner: owner, Data: data}
}

func (l *Ledger) GetAccount(ctx context.Context, address ledger.Pubkey) (*ledger.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[address]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := *acct
	return &cp, nil
}

func (l *Ledger) Payer() ledger.Pubkey { return l.payer.PublicKey() }

// Send compiles and signs the transaction so missing signers fail like they
// would on a node.
func (l *Ledger) Send(ctx context.Context, ixs []ledger.Instruction, extraSigners ...ledger.Signer) (ledger.Signature, error) {
	tx, err := ledger.NewTransaction(ixs, ledger.Hash{}, l.payer, extraSigners...)
	if err != nil {
		return ledger.Signature{}, err
	}
	sent := SentTx{Instructions: ixs}
	for _, k := range tx.Message.AccountKeys[:tx.Message.Header.NumRequiredSignatures] {
		sent.Signers = append(sent.Signers, k)
	}
	if l.OnSend != nil {
		if err := l.OnSend(sent); err != nil {
			return ledger.Signature{}, err
		}
	}
	l.mu.Lock()
	l.sent = append(l.sent, sent)
	l.mu.Unlock()
	return tx.Signatures[0], nil
}

func (l *Ledger) Sent() []SentTx {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SentTx(nil), l.sent...)
}

func (l *Ledger) MinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	return l.Rent, nil
}

func (l *Ledger) SubscribeAccount(ctx context.Context, address ledger.Pubkey) (ledger.Subscription, error) {
	if l.SubscribeErr != nil {
		return nil, l.SubscribeErr
	}
	sub := &Subscription{
		updates: make(chan []byte, 16),
		errs:    make(chan error, 1),
	}
	l.mu.Lock()
	l.subs[address] = append(l.subs[address], sub)
	l.mu.Unlock()
	return sub, nil
}

// Subscriptions returns every subscription ever opened on address.
func (l *Ledger) Subscriptions(address ledger.Pubkey) []*Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Subscription(nil), l.subs[address]...)
}

// Notify pushes data to live subscriptions of address and reports how many
// received it.
func (l *Ledger) Notify(address ledger.Pubkey, data []byte) int {
	delivered := 0
	for _, s := range l.Subscriptions(address) {
		if s.push(data) {
			delivered++
		}
	}
	return delivered
}

func (l *Ledger) FailSubscriptions(address ledger.Pubkey, err error) {
	for _, s := range l.Subscriptions(address) {
		s.fail(err)
	}
}

type Subscription struct {
	mu      sync.Mutex
	closed  bool
	updates chan []byte
	errs    chan error
	unsubs  int32
}

func (s *Subscription) Updates() <-chan []byte { return s.updates }

func (s *Subscription) Err() <-chan error { return s.errs }

func (s *Subscription) Unsubscribe() error {
	atomic.AddInt32(&s.unsubs, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Unsubscribes counts Unsubscribe calls.
func (s *Subscription) Unsubscribes() int {
	return int(atomic.LoadInt32(&s.unsubs))
}

func (s *Subscription) push(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.updates <- data:
		return true
	default:
		return false
	}
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.errs <- err:
	default:
	}
}
