// Package requester is a client for the VRF requester program: it owns the
// client-state account the oracle writes the fulfilled value into.
package requester

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/schema"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	ClientStateSeed = "STATE"

	UpdateResultInstruction = "update_result"
	accountVrfClient        = "VrfClient"
)

// ClientStateSeeds are the seeds of the client-state account of one request.
func ClientStateSeeds(randomness, payer ledger.Pubkey) [][]byte {
	return [][]byte{[]byte(ClientStateSeed), randomness.Bytes(), payer.Bytes()}
}

type InitStateParams struct {
	MaxResult uint64
}

type RequestResultParams struct {
	SwitchboardStateBump uint8
	PermissionBump       uint8
}

// VrfClient is the borsh layout of the client-state account.
type VrfClient struct {
	Bump         uint8
	MaxResult    uint64
	ResultBuffer [32]uint8
	Result       [16]uint8
	Timestamp    int64
	Vrf          [32]uint8
	Authority    [32]uint8
}

var IDL = schema.IDL{
	Name:    "switchboardv2_vrf_example",
	Version: "0.1.0",
	Instructions: []schema.InstructionDef{
		{Name: "initState", Args: InitStateParams{}},
		{Name: "requestResult", Args: RequestResultParams{}},
		{Name: "updateResult"},
	},
	Accounts: []schema.AccountDef{{Name: accountVrfClient, Type: VrfClient{}}},
}

// ClientState is the decoded client-state account.
type ClientState struct {
	MaxResult uint64
	Result    uint64
	Timestamp int64
	Vrf       ledger.Pubkey
	Authority ledger.Pubkey
}

type InitStateAccounts struct {
	State     ledger.Pubkey
	Vrf       ledger.Pubkey
	Authority ledger.Pubkey
}

type RequestResultAccounts struct {
	State              ledger.Pubkey
	SwitchboardProgram ledger.Pubkey
	Vrf                ledger.Pubkey
	OracleQueue        ledger.Pubkey
	QueueAuthority     ledger.Pubkey
	DataBuffer         ledger.Pubkey
	Permission         ledger.Pubkey
	Escrow             ledger.Pubkey
	PayerWallet        ledger.Pubkey
	ProgramState       ledger.Pubkey
}

type Client struct {
	programID ledger.Pubkey
	coder     schema.Coder
	sender    ledger.TxSender
}

// NewClient uses coder for every instruction and account; pass nil for the
// built-in schema.
func NewClient(programID ledger.Pubkey, coder schema.Coder, sender ledger.TxSender) *Client {
	if coder == nil {
		coder = schema.MustAnchorCoder(IDL)
	}
	return &Client{programID: programID, coder: coder, sender: sender}
}

func (c *Client) ProgramID() ledger.Pubkey { return c.programID }

func (c *Client) Coder() schema.Coder { return c.coder }

// InitState creates the client-state account; the sender's payer pays and
// signs as authority.
func (c *Client) InitState(ctx context.Context, accounts InitStateAccounts, params InitStateParams) error {
	data, err := c.coder.EncodeInstruction("initState", params)
	if err != nil {
		return err
	}
	payer := c.sender.Payer()
	ix := ledger.Instruction{
		ProgramID: c.programID,
		Accounts: []ledger.AccountMeta{
			ledger.Writable(accounts.State),
			ledger.Readonly(accounts.Vrf),
			ledger.WritableSigner(payer),
			ledger.ReadonlySigner(accounts.Authority),
			ledger.Readonly(ledger.SystemProgramID),
		},
		Data: data,
	}
	sig, err := c.sender.Send(ctx, []ledger.Instruction{ix})
	if err != nil {
		return errors.Wrapf(err, "could not init client state %s", accounts.State)
	}
	log.WithFields(log.Fields{"state": accounts.State.String(), "tx": sig.String()}).Info("created client state account")
	return nil
}

func (c *Client) RequestResult(ctx context.Context, accounts RequestResultAccounts, params RequestResultParams) (ledger.Signature, error) {
	data, err := c.coder.EncodeInstruction("requestResult", params)
	if err != nil {
		return ledger.Signature{}, err
	}
	payer := c.sender.Payer()
	ix := ledger.Instruction{
		ProgramID: c.programID,
		Accounts: []ledger.AccountMeta{
			ledger.Writable(accounts.State),
			ledger.ReadonlySigner(payer),
			ledger.Readonly(accounts.SwitchboardProgram),
			ledger.Writable(accounts.Vrf),
			ledger.Writable(accounts.OracleQueue),
			ledger.Readonly(accounts.QueueAuthority),
			ledger.Readonly(accounts.DataBuffer),
			ledger.Writable(accounts.Permission),
			ledger.Writable(accounts.Escrow),
			ledger.Writable(accounts.PayerWallet),
			ledger.ReadonlySigner(payer),
			ledger.Readonly(ledger.SysvarRecentBlockhashesID),
			ledger.Readonly(accounts.ProgramState),
			ledger.Readonly(ledger.TokenProgramID),
		},
		Data: data,
	}
	sig, err := c.sender.Send(ctx, []ledger.Instruction{ix})
	if err != nil {
		return ledger.Signature{}, errors.Wrap(err, "could not request result")
	}
	log.WithFields(log.Fields{"state": accounts.State.String(), "tx": sig.String()}).Info("requested randomness")
	return sig, nil
}

// DecodeClientState reads a client-state account. Results that do not fit in
// 64 bits are rejected since they exceed any max_result.
func (c *Client) DecodeClientState(data []byte) (ClientState, error) {
	var raw VrfClient
	if err := c.coder.DecodeAccount(accountVrfClient, data, &raw); err != nil {
		return ClientState{}, err
	}
	if binary.LittleEndian.Uint64(raw.Result[8:]) != 0 {
		return ClientState{}, fmt.Errorf("client state result overflows u64")
	}
	return ClientState{
		MaxResult: raw.MaxResult,
		Result:    binary.LittleEndian.Uint64(raw.Result[:8]),
		Timestamp: raw.Timestamp,
		Vrf:       ledger.Pubkey(raw.Vrf),
		Authority: ledger.Pubkey(raw.Authority),
	}, nil
}

// EncodeClientState writes the account layout; used to seed local ledgers.
func EncodeClientState(s ClientState) ([]byte, error) {
	raw := VrfClient{
		MaxResult: s.MaxResult,
		Timestamp: s.Timestamp,
		Vrf:       s.Vrf,
		Authority: s.Authority,
	}
	binary.LittleEndian.PutUint64(raw.Result[:8], s.Result)
	return schema.MustAnchorCoder(IDL).EncodeAccount(accountVrfClient, raw)
}
