package vrf

import (
	"context"
	"sync"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/requester"
	"github.com/ori-shem-tov/vrf-requester/switchboard"
	"github.com/pkg/errors"
)

// callLog records the order in which fakes are invoked.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeOracle struct {
	log       *callLog
	programID ledger.Pubkey
	state     switchboard.ProgramState
	escrow    ledger.Pubkey

	existing map[ledger.Pubkey]bool
	grants   []switchboard.SetPermissionParams

	createRandomnessErr error
	createPermissionErr error
	setPermissionErr    error
}

func newFakeOracle(log *callLog) *fakeOracle {
	return &fakeOracle{
		log:       log,
		programID: switchboard.ProgramID,
		state:     switchboard.ProgramState{Address: ledger.NewKeypair().PublicKey(), Bump: 255, TokenMint: ledger.NativeMint},
		escrow:    ledger.NewKeypair().PublicKey(),
		existing:  make(map[ledger.Pubkey]bool),
	}
}

func (o *fakeOracle) ProgramID() ledger.Pubkey { return o.programID }

func (o *fakeOracle) LoadQueue(ctx context.Context, address ledger.Pubkey) (switchboard.Queue, error) {
	return switchboard.Queue{Address: address}, nil
}

func (o *fakeOracle) LoadProgramState(ctx context.Context) (switchboard.ProgramState, error) {
	return o.state, nil
}

func (o *fakeOracle) LoadRandomness(ctx context.Context, address ledger.Pubkey) (switchboard.RandomnessAccount, error) {
	return switchboard.RandomnessAccount{Address: address, Escrow: o.escrow}, nil
}

func (o *fakeOracle) CreateRandomness(ctx context.Context, params switchboard.CreateRandomnessParams) (switchboard.RandomnessAccount, error) {
	o.log.add("createRandomness")
	if o.createRandomnessErr != nil {
		return switchboard.RandomnessAccount{}, o.createRandomnessErr
	}
	return switchboard.RandomnessAccount{
		Address:   params.Keypair.PublicKey(),
		Authority: params.Authority,
		Queue:     params.Queue.Address,
		Escrow:    o.escrow,
	}, nil
}

func (o *fakeOracle) CreatePermission(ctx context.Context, params switchboard.CreatePermissionParams) error {
	o.log.add("createPermission")
	if o.createPermissionErr != nil {
		return o.createPermissionErr
	}
	if o.existing[params.Permission] {
		return errors.Wrapf(ledger.ErrAccountInUse, "could not create permission %s", params.Permission)
	}
	o.existing[params.Permission] = true
	return nil
}

func (o *fakeOracle) SetPermission(ctx context.Context, params switchboard.SetPermissionParams) error {
	o.log.add("setPermission")
	if o.setPermissionErr != nil {
		return o.setPermissionErr
	}
	o.grants = append(o.grants, params)
	return nil
}

type fakeRequester struct {
	log       *callLog
	programID ledger.Pubkey
	*requester.Client

	initState    []requester.InitStateAccounts
	requests     []requester.RequestResultAccounts
	initStateErr error
	requestErr   error
}

func newFakeRequester(log *callLog) *fakeRequester {
	programID := ledger.NewKeypair().PublicKey()
	return &fakeRequester{
		log:       log,
		programID: programID,
		Client:    requester.NewClient(programID, nil, nil),
	}
}

func (r *fakeRequester) ProgramID() ledger.Pubkey { return r.programID }

func (r *fakeRequester) InitState(ctx context.Context, accounts requester.InitStateAccounts, params requester.InitStateParams) error {
	r.log.add("initState")
	if r.initStateErr != nil {
		return r.initStateErr
	}
	r.initState = append(r.initState, accounts)
	return nil
}

func (r *fakeRequester) RequestResult(ctx context.Context, accounts requester.RequestResultAccounts, params requester.RequestResultParams) (ledger.Signature, error) {
	r.log.add("requestResult")
	if r.requestErr != nil {
		return ledger.Signature{}, r.requestErr
	}
	r.requests = append(r.requests, accounts)
	return ledger.Signature{1}, nil
}

type fakeTokens struct {
	wallet ledger.Pubkey
	err    error
}

func (f fakeTokens) ResolveTokenAccount(ctx context.Context, owner, mint ledger.Pubkey) (ledger.Pubkey, error) {
	return f.wallet, f.err
}
