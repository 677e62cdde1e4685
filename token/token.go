// Package token resolves associated token accounts and funds wrapped-SOL
// wallets.
package token

import (
	"context"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	createIdempotentIx = 1
	setAuthorityIx     = 6
	syncNativeIx       = 17
)

// AuthorityType selects which authority SetAuthority replaces.
type AuthorityType uint8

const (
	AuthorityMintTokens AuthorityType = iota
	AuthorityFreezeAccount
	AuthorityAccountOwner
	AuthorityCloseAccount
)

func AssociatedTokenAddress(owner, mint ledger.Pubkey) (ledger.Pubkey, error) {
	addr, _, err := ledger.FindProgramAddress(
		[][]byte{owner.Bytes(), ledger.TokenProgramID.Bytes(), mint.Bytes()},
		ledger.AssociatedTokenProgramID,
	)
	return addr, err
}

// CreateAssociatedAccountIdempotent succeeds when the account already exists.
func CreateAssociatedAccountIdempotent(payer, account, owner, mint ledger.Pubkey) ledger.Instruction {
	return ledger.Instruction{
		ProgramID: ledger.AssociatedTokenProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.WritableSigner(payer),
			ledger.Writable(account),
			ledger.Readonly(owner),
			ledger.Readonly(mint),
			ledger.Readonly(ledger.SystemProgramID),
			ledger.Readonly(ledger.TokenProgramID),
		},
		Data: []byte{createIdempotentIx},
	}
}

// SetAuthority hands kind over account from currentAuthority, which must sign,
// to newAuthority.
func SetAuthority(account, currentAuthority, newAuthority ledger.Pubkey, kind AuthorityType) ledger.Instruction {
	data := make([]byte, 0, 3+ledger.PubkeyLength)
	data = append(data, setAuthorityIx, byte(kind), 1)
	data = append(data, newAuthority.Bytes()...)
	return ledger.Instruction{
		ProgramID: ledger.TokenProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.Writable(account),
			ledger.ReadonlySigner(currentAuthority),
		},
		Data: data,
	}
}

func SyncNative(account ledger.Pubkey) ledger.Instruction {
	return ledger.Instruction{
		ProgramID: ledger.TokenProgramID,
		Accounts:  []ledger.AccountMeta{ledger.Writable(account)},
		Data:      []byte{syncNativeIx},
	}
}

// Accounts resolves the payer's token wallet, creating it on first use.
type Accounts struct {
	reader ledger.AccountReader
	sender ledger.TxSender

	// FundLamports, when set and the mint is the native mint, is wrapped into
	// the wallet while resolving it.
	FundLamports uint64
}

func NewAccounts(reader ledger.AccountReader, sender ledger.TxSender) *Accounts {
	return &Accounts{reader: reader, sender: sender}
}

func (a *Accounts) ResolveTokenAccount(ctx context.Context, owner, mint ledger.Pubkey) (ledger.Pubkey, error) {
	wallet, err := AssociatedTokenAddress(owner, mint)
	if err != nil {
		return ledger.Pubkey{}, errors.Wrap(err, "could not derive token account")
	}

	var ixs []ledger.Instruction
	_, err = a.reader.GetAccount(ctx, wallet)
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		ixs = append(ixs, CreateAssociatedAccountIdempotent(a.sender.Payer(), wallet, owner, mint))
	case err != nil:
		return ledger.Pubkey{}, errors.Wrapf(err, "could not read token account %s", wallet)
	}

	if a.FundLamports > 0 && mint == ledger.NativeMint {
		ixs = append(ixs,
			ledger.TransferInstruction(a.sender.Payer(), wallet, a.FundLamports),
			SyncNative(wallet),
		)
	}
	if len(ixs) == 0 {
		return wallet, nil
	}

	sig, err := a.sender.Send(ctx, ixs)
	if err != nil {
		return ledger.Pubkey{}, errors.Wrapf(err, "could not prepare token account %s", wallet)
	}
	log.WithFields(log.Fields{"wallet": wallet.String(), "tx": sig.String()}).Info("prepared payer token account")
	return wallet, nil
}
