package vrf

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	log "github.com/sirupsen/logrus"
)

// WaitState tracks a ResultWaiter through one Wait.
type WaitState int32

const (
	WaitIdle WaitState = iota
	WaitSubscribed
	WaitResolved
	WaitTimedOut
	WaitSubscriptionError
	WaitCancelled
)

func (s WaitState) String() string {
	switch s {
	case WaitIdle:
		return "idle"
	case WaitSubscribed:
		return "subscribed"
	case WaitResolved:
		return "resolved"
	case WaitTimedOut:
		return "timed-out"
	case WaitSubscriptionError:
		return "subscription-error"
	case WaitCancelled:
		return "cancelled"
	}
	return "unknown"
}

// ResultWaiter waits for the oracle callback to write a non-zero result into
// a client-state account. It serves one wait at a time.
type ResultWaiter struct {
	watcher ledger.AccountWatcher
	decoder ClientStateDecoder
	state   int32
}

func NewResultWaiter(watcher ledger.AccountWatcher, decoder ClientStateDecoder) *ResultWaiter {
	return &ResultWaiter{watcher: watcher, decoder: decoder}
}

// State reports the progress of the current Wait, or the state the last one
// ended in. It is safe to call while Wait runs.
func (w *ResultWaiter) State() WaitState { return WaitState(atomic.LoadInt32(&w.state)) }

func (w *ResultWaiter) setState(s WaitState) { atomic.StoreInt32(&w.state, int32(s)) }

// Wait resolves with the first positive result seen on account. Updates with
// a zero result or an undecodable payload are skipped. The subscription is
// released before Wait returns, whatever the outcome.
func (w *ResultWaiter) Wait(ctx context.Context, account ledger.Pubkey, timeout time.Duration) (uint64, error) {
	logger := log.WithField("account", account.String())
	w.setState(WaitIdle)

	sub, err := w.watcher.SubscribeAccount(ctx, account)
	if err != nil {
		w.setState(WaitSubscriptionError)
		return 0, &SubscriptionError{Account: account, Err: err}
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			logger.WithError(err).Warn("could not unsubscribe")
		}
	}()
	w.setState(WaitSubscribed)
	logger.WithField("timeout", timeout).Info("waiting for vrf callback")

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case data, ok := <-sub.Updates():
			if !ok {
				w.setState(WaitSubscriptionError)
				return 0, &SubscriptionError{Account: account, Err: ErrSubscriptionClosed}
			}
			state, err := w.decoder.DecodeClientState(data)
			if err != nil {
				logger.WithError(err).Warn("could not decode client state update")
				continue
			}
			if state.Result == 0 {
				logger.Debug("client state updated without a result")
				continue
			}
			w.setState(WaitResolved)
			logger.WithField("result", state.Result).Info("vrf callback received")
			return state.Result, nil

		case err, ok := <-sub.Err():
			if !ok || err == nil {
				err = ErrSubscriptionClosed
			}
			w.setState(WaitSubscriptionError)
			return 0, &SubscriptionError{Account: account, Err: err}

		case <-timer.C:
			w.setState(WaitTimedOut)
			return 0, &RequestTimeoutError{Account: account, Timeout: timeout}

		case <-ctx.Done():
			w.setState(WaitCancelled)
			return 0, ctx.Err()
		}
	}
}
