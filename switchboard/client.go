package switchboard

import (
	"context"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/schema"
	"github.com/ori-shem-tov/vrf-requester/token"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type CreateRandomnessParams struct {
	Keypair   ledger.Signer
	Queue     Queue
	Callback  Callback
	Authority ledger.Pubkey
}

type CreatePermissionParams struct {
	Permission ledger.Pubkey
	Authority  ledger.Pubkey
	Granter    ledger.Pubkey
	Grantee    ledger.Pubkey
}

type SetPermissionParams struct {
	Permission ledger.Pubkey
	Authority  ledger.Signer
	Kind       Permission
	Enable     bool
}

// Client reads oracle accounts and submits oracle instructions paid by the
// sender's payer.
type Client struct {
	programID ledger.Pubkey
	coder     *schema.AnchorCoder
	reader    ledger.AccountReader
	sender    ledger.TxSender
	rent      ledger.RentCalculator
}

func NewClient(programID ledger.Pubkey, reader ledger.AccountReader, sender ledger.TxSender, rent ledger.RentCalculator) *Client {
	return &Client{
		programID: programID,
		coder:     schema.MustAnchorCoder(IDL),
		reader:    reader,
		sender:    sender,
		rent:      rent,
	}
}

func (c *Client) ProgramID() ledger.Pubkey { return c.programID }

func (c *Client) load(ctx context.Context, address ledger.Pubkey, name string, v interface{}) error {
	acct, err := c.reader.GetAccount(ctx, address)
	if err != nil {
		return errors.Wrapf(err, "could not load %s %s", name, address)
	}
	if acct.Owner != c.programID {
		return errors.Errorf("%s %s is owned by %s, not %s", name, address, acct.Owner, c.programID)
	}
	return errors.Wrapf(c.coder.DecodeAccount(name, acct.Data, v), "could not decode %s %s", name, address)
}

func (c *Client) LoadQueue(ctx context.Context, address ledger.Pubkey) (Queue, error) {
	var data oracleQueueAccountData
	if err := c.load(ctx, address, accountQueue, &data); err != nil {
		return Queue{}, err
	}
	return Queue{
		Address:                  address,
		Authority:                ledger.Pubkey(data.Authority),
		DataBuffer:               ledger.Pubkey(data.DataBuffer),
		Mint:                     ledger.Pubkey(data.Mint),
		UnpermissionedVrfEnabled: data.UnpermissionedVrfEnabled,
	}, nil
}

func (c *Client) ProgramStateAddress() (ledger.Pubkey, uint8, error) {
	return ledger.FindProgramAddress(ProgramStateSeeds(), c.programID)
}

func (c *Client) LoadProgramState(ctx context.Context) (ProgramState, error) {
	address, bump, err := c.ProgramStateAddress()
	if err != nil {
		return ProgramState{}, err
	}
	var data sbState
	if err := c.load(ctx, address, accountState, &data); err != nil {
		return ProgramState{}, err
	}
	return ProgramState{
		Address:   address,
		Bump:      bump,
		Authority: ledger.Pubkey(data.Authority),
		TokenMint: ledger.Pubkey(data.TokenMint),
	}, nil
}

func (c *Client) LoadRandomness(ctx context.Context, address ledger.Pubkey) (RandomnessAccount, error) {
	var data vrfAccountData
	if err := c.load(ctx, address, accountVrf, &data); err != nil {
		return RandomnessAccount{}, err
	}
	return RandomnessAccount{
		Address:   address,
		Authority: ledger.Pubkey(data.Authority),
		Queue:     ledger.Pubkey(data.OracleQueue),
		Escrow:    ledger.Pubkey(data.Escrow),
		Counter:   data.Counter,
		Status:    data.Status,
	}, nil
}

// CreateRandomness allocates the VRF account for the fresh keypair, creates
// its escrow token account owned by the program state and initialises it with
// the callback.
func (c *Client) CreateRandomness(ctx context.Context, params CreateRandomnessParams) (RandomnessAccount, error) {
	state, err := c.LoadProgramState(ctx)
	if err != nil {
		return RandomnessAccount{}, err
	}
	vrf := params.Keypair.PublicKey()
	escrow, err := token.AssociatedTokenAddress(vrf, state.TokenMint)
	if err != nil {
		return RandomnessAccount{}, errors.Wrap(err, "could not derive escrow")
	}
	lamports, err := c.rent.MinimumBalanceForRentExemption(ctx, VrfAccountSize)
	if err != nil {
		return RandomnessAccount{}, errors.Wrap(err, "could not get rent exemption")
	}

	data, err := c.coder.EncodeInstruction("vrfInit", vrfInitParams{Callback: params.Callback, StateBump: state.Bump})
	if err != nil {
		return RandomnessAccount{}, err
	}
	payer := c.sender.Payer()
	ixs := []ledger.Instruction{
		token.CreateAssociatedAccountIdempotent(payer, escrow, vrf, state.TokenMint),
		token.SetAuthority(escrow, vrf, state.Address, token.AuthorityAccountOwner),
		ledger.CreateAccountInstruction(payer, vrf, lamports, VrfAccountSize, c.programID),
		{
			ProgramID: c.programID,
			Accounts: []ledger.AccountMeta{
				ledger.Writable(vrf),
				ledger.Readonly(params.Authority),
				ledger.Readonly(params.Queue.Address),
				ledger.Writable(escrow),
				ledger.Readonly(state.Address),
				ledger.Readonly(ledger.TokenProgramID),
			},
			Data: data,
		},
	}

	sig, err := c.sender.Send(ctx, ixs, params.Keypair)
	if err != nil {
		return RandomnessAccount{}, errors.Wrap(err, "could not create randomness account")
	}
	log.WithFields(log.Fields{"vrf": vrf.String(), "tx": sig.String()}).Info("created randomness account")

	return RandomnessAccount{
		Address:   vrf,
		Authority: params.Authority,
		Queue:     params.Queue.Address,
		Escrow:    escrow,
	}, nil
}

// CreatePermission may fail with ledger.ErrAccountInUse when the permission
// already exists.
func (c *Client) CreatePermission(ctx context.Context, params CreatePermissionParams) error {
	data, err := c.coder.EncodeInstruction("permissionInit", permissionInitParams{})
	if err != nil {
		return err
	}
	payer := c.sender.Payer()
	ix := ledger.Instruction{
		ProgramID: c.programID,
		Accounts: []ledger.AccountMeta{
			ledger.Writable(params.Permission),
			ledger.Readonly(params.Authority),
			ledger.Readonly(params.Granter),
			ledger.Readonly(params.Grantee),
			ledger.WritableSigner(payer),
			ledger.Readonly(ledger.SystemProgramID),
		},
		Data: data,
	}
	sig, err := c.sender.Send(ctx, []ledger.Instruction{ix})
	if err != nil {
		return errors.Wrapf(err, "could not create permission %s", params.Permission)
	}
	log.WithFields(log.Fields{"permission": params.Permission.String(), "tx": sig.String()}).Info("created permission account")
	return nil
}

func (c *Client) SetPermission(ctx context.Context, params SetPermissionParams) error {
	data, err := c.coder.EncodeInstruction("permissionSet", permissionSetParams{
		Permission: uint8(params.Kind),
		Enable:     params.Enable,
	})
	if err != nil {
		return err
	}
	ix := ledger.Instruction{
		ProgramID: c.programID,
		Accounts: []ledger.AccountMeta{
			ledger.Writable(params.Permission),
			ledger.ReadonlySigner(params.Authority.PublicKey()),
		},
		Data: data,
	}
	sig, err := c.sender.Send(ctx, []ledger.Instruction{ix}, params.Authority)
	if err != nil {
		return errors.Wrapf(err, "could not set %s on %s", params.Kind, params.Permission)
	}
	log.WithFields(log.Fields{"permission": params.Permission.String(), "tx": sig.String()}).Info("set vrf permission")
	return nil
}
