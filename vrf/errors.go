package vrf

import (
	"errors"
	"fmt"
	"time"

	"github.com/ori-shem-tov/vrf-requester/ledger"
)

var (
	ErrPermissionMismatch = errors.New("permission record does not match its derived address")
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// InvalidSeedError reports seeds that cannot derive an address.
type InvalidSeedError struct {
	Seeds int
	Err   error
}

func (e *InvalidSeedError) Error() string {
	return fmt.Sprintf("invalid seeds (%d): %v", e.Seeds, e.Err)
}

func (e *InvalidSeedError) Unwrap() error { return e.Err }

// EncodingError reports an instruction the schema could not encode.
type EncodingError struct {
	Instruction string
	Err         error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("could not encode instruction %q: %v", e.Instruction, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// UnauthorizedQueueError means the queue requires granted VRF permissions and
// the caller is not the queue authority.
type UnauthorizedQueueError struct {
	Queue     ledger.Pubkey
	Authority ledger.Pubkey
	Caller    ledger.Pubkey
}

func (e *UnauthorizedQueueError) Error() string {
	return fmt.Sprintf("queue %s requires PERMIT_VRF_REQUESTS and wrong queue authority provided: have %s, want %s",
		e.Queue, e.Caller, e.Authority)
}

// GrantSubmissionError reports a failed permission_set submission.
type GrantSubmissionError struct {
	Permission ledger.Pubkey
	Err        error
}

func (e *GrantSubmissionError) Error() string {
	return fmt.Sprintf("could not grant vrf permission %s: %v", e.Permission, e.Err)
}

func (e *GrantSubmissionError) Unwrap() error { return e.Err }

// Phase names an account provisioning step.
type Phase int

const (
	PhaseRandomness Phase = iota + 1
	PhasePermission
	PhaseClientState
)

func (p Phase) String() string {
	switch p {
	case PhaseRandomness:
		return "randomness-account"
	case PhasePermission:
		return "permission-account"
	case PhaseClientState:
		return "client-state-account"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// ProvisioningError reports the phase at which provisioning stopped.
type ProvisioningError struct {
	Phase Phase
	Err   error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning failed at %s: %v", e.Phase, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// SubmissionError reports the request_result stage that failed.
type SubmissionError struct {
	Stage string
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("could not submit request (%s): %v", e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// RequestTimeoutError means no positive result arrived before the deadline.
type RequestTimeoutError struct {
	Account ledger.Pubkey
	Timeout time.Duration
}

func (e *RequestTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %v waiting for vrf client callback on %s", e.Timeout, e.Account)
}

// SubscriptionError reports a failed or broken account subscription.
type SubscriptionError struct {
	Account ledger.Pubkey
	Err     error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription to %s failed: %v", e.Account, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }
