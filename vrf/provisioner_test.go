package vrf

import (
	"context"
	"errors"
	"testing"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/switchboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type provisionFixture struct {
	log       *callLog
	payer     ledger.Keypair
	oracle    *fakeOracle
	requester *fakeRequester
	queue     switchboard.Queue
	req       ProvisionRequest
}

func newProvisionFixture(unpermissioned bool) *provisionFixture {
	log := &callLog{}
	payer := ledger.NewKeypair()
	queue := testQueue(payer.PublicKey(), unpermissioned)
	return &provisionFixture{
		log:       log,
		payer:     payer,
		oracle:    newFakeOracle(log),
		requester: newFakeRequester(log),
		queue:     queue,
		req: ProvisionRequest{
			Queue:       queue,
			Randomness:  ledger.NewKeypair(),
			ClientState: ledger.NewKeypair().PublicKey(),
			MaxResult:   1337000,
		},
	}
}

func (f *provisionFixture) provisioner() *AccountProvisioner {
	return NewAccountProvisioner(f.oracle, f.requester, NewPermissionGate(f.oracle, f.payer), f.payer.PublicKey())
}

func TestProvision_PhasesInOrder(t *testing.T) {
	f := newProvisionFixture(false)

	out, err := f.provisioner().Provision(context.Background(), f.req)
	require.NoError(t, err)
	assert.Equal(t, []string{"createRandomness", "createPermission", "setPermission", "initState"}, f.log.list())

	assert.Equal(t, f.req.Randomness.PublicKey(), out.Randomness.Address)
	assert.Equal(t, f.req.ClientState, out.Randomness.Authority)
	assert.Equal(t, out.Randomness.Address, out.Permission.Grantee)
	assert.Equal(t, f.req.ClientState, out.ClientState)

	require.Len(t, f.requester.initState, 1)
	assert.Equal(t, f.req.ClientState, f.requester.initState[0].State)
	assert.Equal(t, out.Randomness.Address, f.requester.initState[0].Vrf)
	assert.Equal(t, f.payer.PublicKey(), f.requester.initState[0].Authority)
}

func TestProvision_StopsAtFailingPhase(t *testing.T) {
	cause := errors.New("rpc unavailable")
	tests := []struct {
		name  string
		setup func(f *provisionFixture)
		phase Phase
		calls []string
	}{
		{
			name:  "randomness",
			setup: func(f *provisionFixture) { f.oracle.createRandomnessErr = cause },
			phase: PhaseRandomness,
			calls: []string{"createRandomness"},
		},
		{
			name:  "permission",
			setup: func(f *provisionFixture) { f.oracle.setPermissionErr = cause },
			phase: PhasePermission,
			calls: []string{"createRandomness", "createPermission", "setPermission"},
		},
		{
			name:  "client state",
			setup: func(f *provisionFixture) { f.requester.initStateErr = cause },
			phase: PhaseClientState,
			calls: []string{"createRandomness", "createPermission", "setPermission", "initState"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProvisionFixture(false)
			tt.setup(f)

			out, err := f.provisioner().Provision(context.Background(), f.req)
			var provErr *ProvisioningError
			require.True(t, errors.As(err, &provErr))
			assert.Equal(t, tt.phase, provErr.Phase)
			assert.True(t, errors.Is(err, cause))
			assert.Equal(t, tt.calls, f.log.list())
			assert.True(t, out.ClientState.IsZero())
		})
	}
}

func TestProvision_UnauthorizedQueue(t *testing.T) {
	f := newProvisionFixture(false)
	f.req.Queue.Authority = ledger.NewKeypair().PublicKey()

	out, err := f.provisioner().Provision(context.Background(), f.req)
	var provErr *ProvisioningError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, PhasePermission, provErr.Phase)
	var unauthorized *UnauthorizedQueueError
	assert.True(t, errors.As(err, &unauthorized))

	// the randomness account is left in place
	assert.Equal(t, f.req.Randomness.PublicKey(), out.Randomness.Address)
	assert.Empty(t, f.requester.initState)
}

func submitFixture(t *testing.T) (*provisionFixture, Provisioned, *RequestSubmitter, fakeTokens) {
	t.Helper()
	f := newProvisionFixture(true)
	out, err := f.provisioner().Provision(context.Background(), f.req)
	require.NoError(t, err)
	tokens := fakeTokens{wallet: ledger.NewKeypair().PublicKey()}
	return f, out, NewRequestSubmitter(f.oracle, f.requester, tokens, f.payer.PublicKey()), tokens
}

func TestSubmit(t *testing.T) {
	f, out, submitter, tokens := submitFixture(t)

	sig, err := submitter.Submit(context.Background(), out.ClientState, out.Randomness, out.Permission, f.queue)
	require.NoError(t, err)
	assert.False(t, sig.IsZero())

	require.Len(t, f.requester.requests, 1)
	got := f.requester.requests[0]
	assert.Equal(t, out.ClientState, got.State)
	assert.Equal(t, switchboard.ProgramID, got.SwitchboardProgram)
	assert.Equal(t, out.Randomness.Address, got.Vrf)
	assert.Equal(t, f.queue.Address, got.OracleQueue)
	assert.Equal(t, f.queue.Authority, got.QueueAuthority)
	assert.Equal(t, f.queue.DataBuffer, got.DataBuffer)
	assert.Equal(t, out.Permission.Address, got.Permission)
	assert.Equal(t, f.oracle.escrow, got.Escrow)
	assert.Equal(t, tokens.wallet, got.PayerWallet)
	assert.Equal(t, f.oracle.state.Address, got.ProgramState)
}

func TestSubmit_PermissionMismatch(t *testing.T) {
	f, out, submitter, _ := submitFixture(t)
	out.Permission.Address = ledger.NewKeypair().PublicKey()

	_, err := submitter.Submit(context.Background(), out.ClientState, out.Randomness, out.Permission, f.queue)
	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, StagePermission, subErr.Stage)
	assert.True(t, errors.Is(err, ErrPermissionMismatch))
	assert.Empty(t, f.requester.requests)
}

func TestSubmit_Failures(t *testing.T) {
	cause := errors.New("node is behind")

	f, out, _, _ := submitFixture(t)
	submitter := NewRequestSubmitter(f.oracle, f.requester, fakeTokens{err: cause}, f.payer.PublicKey())
	_, err := submitter.Submit(context.Background(), out.ClientState, out.Randomness, out.Permission, f.queue)
	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, StagePayerWallet, subErr.Stage)
	assert.True(t, errors.Is(err, cause))

	f, out, submitter, _ = submitFixture(t)
	f.requester.requestErr = cause
	_, err = submitter.Submit(context.Background(), out.ClientState, out.Randomness, out.Permission, f.queue)
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, StageRequest, subErr.Stage)
}
