// Package ledger holds the account-model primitives shared by the program
// clients: addresses, derived addresses, instructions and signed transactions.
package ledger

import (
	"context"
	"encoding/binary"
	"errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountInUse is returned when a create instruction targets an address
	// that already holds an account.
	ErrAccountInUse = errors.New("account already in use")
)

type Account struct {
	Address    Pubkey
	Owner      Pubkey
	Lamports   uint64
	Data       []byte
	Executable bool
}

type AccountReader interface {
	GetAccount(ctx context.Context, address Pubkey) (*Account, error)
}

// TxSender submits instructions in one transaction paid for and signed by its
// payer, waiting for confirmation.
type TxSender interface {
	Payer() Pubkey
	Send(ctx context.Context, ixs []Instruction, extraSigners ...Signer) (Signature, error)
}

type RentCalculator interface {
	MinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
}

// CreateAccountInstruction is the system program's create_account.
func CreateAccountInstruction(from, newAccount Pubkey, lamports, space uint64, owner Pubkey) Instruction {
	data := make([]byte, 52)
	binary.LittleEndian.PutUint32(data[0:4], 0)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	binary.LittleEndian.PutUint64(data[12:20], space)
	copy(data[20:], owner[:])
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts:  []AccountMeta{WritableSigner(from), WritableSigner(newAccount)},
		Data:      data,
	}
}

// TransferInstruction is the system program's transfer.
func TransferInstruction(from, to Pubkey, lamports uint64) Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts:  []AccountMeta{WritableSigner(from), Writable(to)},
		Data:      data,
	}
}

// Subscription delivers raw account data on every change until Unsubscribe.
type Subscription interface {
	Updates() <-chan []byte
	// Err yields at most one error when the stream itself fails.
	Err() <-chan error
	Unsubscribe() error
}

type AccountWatcher interface {
	SubscribeAccount(ctx context.Context, address Pubkey) (Subscription, error)
}
