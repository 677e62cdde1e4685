// Package switchboard is a client for the Switchboard v2 oracle program: seeds,
// account layouts and the randomness/permission instructions.
package switchboard

import (
	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/schema"
)

var (
	// ProgramID is the Switchboard v2 program on devnet and mainnet.
	ProgramID = ledger.MustPubkey("2TfB33aLaneQb5TNVwyDz3jSZXS6jdW2ARw1Dgf84XCG")
	// DevnetQueue is the permissionless devnet oracle queue.
	DevnetQueue = ledger.MustPubkey("F8ce7MsckeZAbAGmxjJNetxYXQa9mKr9nnrC3qKubyYy")
)

const (
	// VrfAccountSize is the space of a VrfAccountData account.
	VrfAccountSize = 29058

	programStateSeed = "STATE"
	permissionSeed   = "PermissionAccountData"
)

// Permission is the borsh variant index of SwitchboardPermission.
type Permission uint8

const (
	PermitOracleHeartbeat Permission = iota
	PermitOracleQueueUsage
	PermitVrfRequests
)

func (p Permission) String() string {
	switch p {
	case PermitOracleHeartbeat:
		return "PERMIT_ORACLE_HEARTBEAT"
	case PermitOracleQueueUsage:
		return "PERMIT_ORACLE_QUEUE_USAGE"
	case PermitVrfRequests:
		return "PERMIT_VRF_REQUESTS"
	}
	return "UNKNOWN"
}

// ProgramStateSeeds are the seeds of the program-wide state account.
func ProgramStateSeeds() [][]byte {
	return [][]byte{[]byte(programStateSeed)}
}

// PermissionSeeds are the seeds of the (authority, granter, grantee) permission.
func PermissionSeeds(authority, granter, grantee ledger.Pubkey) [][]byte {
	return [][]byte{[]byte(permissionSeed), authority.Bytes(), granter.Bytes(), grantee.Bytes()}
}

// AccountMeta is the borsh form of an account reference inside a Callback.
type AccountMeta struct {
	Pubkey     ledger.Pubkey
	IsSigner   bool
	IsWritable bool
}

// Callback tells the oracle which instruction to invoke once the randomness
// is fulfilled.
type Callback struct {
	ProgramID ledger.Pubkey
	Accounts  []AccountMeta
	IxData    []byte
}

// Queue is the part of an oracle queue this client reads.
type Queue struct {
	Address                  ledger.Pubkey
	Authority                ledger.Pubkey
	DataBuffer               ledger.Pubkey
	Mint                     ledger.Pubkey
	UnpermissionedVrfEnabled bool
}

type ProgramState struct {
	Address   ledger.Pubkey
	Bump      uint8
	Authority ledger.Pubkey
	TokenMint ledger.Pubkey
}

// RandomnessAccount is a VRF request slot owned by the oracle program.
type RandomnessAccount struct {
	Address   ledger.Pubkey
	Authority ledger.Pubkey
	Queue     ledger.Pubkey
	Escrow    ledger.Pubkey
	Counter   [16]uint8
	Status    uint8
}

type vrfInitParams struct {
	Callback  Callback
	StateBump uint8
}

type permissionInitParams struct{}

type permissionSetParams struct {
	Permission uint8
	Enable     bool
}

type switchboardDecimal struct {
	Mantissa [16]uint8
	Scale    uint32
}

// oracleQueueAccountData mirrors the packed on-chain layout up to data_buffer.
type oracleQueueAccountData struct {
	Name                          [32]uint8
	Metadata                      [64]uint8
	Authority                     [32]uint8
	OracleTimeout                 uint32
	Reward                        uint64
	MinStake                      uint64
	SlashingEnabled               bool
	VarianceToleranceMultiplier   switchboardDecimal
	FeedProbationPeriod           uint32
	CurrIdx                       uint32
	Size                          uint32
	GcIdx                         uint32
	ConsecutiveFeedFailureLimit   uint64
	ConsecutiveOracleFailureLimit uint64
	UnpermissionedFeedsEnabled    bool
	UnpermissionedVrfEnabled      bool
	CuratorRewardCut              switchboardDecimal
	LockLeaseFunding              bool
	Mint                          [32]uint8
	EnableBufferRelayers          bool
	Ebuf                          [968]uint8
	MaxSize                       uint32
	DataBuffer                    [32]uint8
}

type sbState struct {
	Authority  [32]uint8
	TokenMint  [32]uint8
	TokenVault [32]uint8
}

type vrfAccountData struct {
	Status      uint8
	Counter     [16]uint8
	Authority   [32]uint8
	OracleQueue [32]uint8
	Escrow      [32]uint8
}

const (
	accountQueue = "OracleQueueAccountData"
	accountState = "SbState"
	accountVrf   = "VrfAccountData"
)

// IDL is the subset of the oracle program schema this client uses.
var IDL = schema.IDL{
	Name:    "switchboard_v2",
	Version: "0.1.0",
	Instructions: []schema.InstructionDef{
		{Name: "vrfInit", Args: vrfInitParams{}},
		{Name: "permissionInit", Args: permissionInitParams{}},
		{Name: "permissionSet", Args: permissionSetParams{}},
	},
	Accounts: []schema.AccountDef{
		{Name: accountQueue, Type: oracleQueueAccountData{}},
		{Name: accountState, Type: sbState{}},
		{Name: accountVrf, Type: vrfAccountData{}},
	},
}
