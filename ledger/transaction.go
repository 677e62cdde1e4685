package ledger

import (
	"fmt"
	"sort"

	"github.com/mr-tron/base58"
)

type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

func Writable(p Pubkey) AccountMeta { return AccountMeta{Pubkey: p, IsWritable: true} }

func Readonly(p Pubkey) AccountMeta { return AccountMeta{Pubkey: p} }

func WritableSigner(p Pubkey) AccountMeta {
	return AccountMeta{Pubkey: p, IsSigner: true, IsWritable: true}
}

func ReadonlySigner(p Pubkey) AccountMeta { return AccountMeta{Pubkey: p, IsSigner: true} }

type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// Hash is a recent blockhash.
type Hash [32]byte

func HashFromString(s string) (Hash, error) {
	var h Hash
	b, err := base58.Decode(s)
	if err != nil || len(b) != len(h) {
		return h, fmt.Errorf("invalid blockhash %q", s)
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash) String() string { return base58.Encode(h[:]) }

type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}

type Message struct {
	Header          MessageHeader
	AccountKeys     []Pubkey
	RecentBlockhash Hash
	Instructions    []CompiledInstruction
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

type keyMeta struct {
	key      Pubkey
	signer   bool
	writable bool
	order    int
}

func (k keyMeta) class() int {
	switch {
	case k.signer && k.writable:
		return 0
	case k.signer:
		return 1
	case k.writable:
		return 2
	default:
		return 3
	}
}

// CompileMessage orders the account keys the way the runtime expects: the fee
// payer, writable signers, readonly signers, writable and then readonly others.
func CompileMessage(payer Pubkey, ixs []Instruction, blockhash Hash) (Message, error) {
	metas := map[Pubkey]*keyMeta{}
	add := func(k Pubkey, signer, writable bool) {
		m, ok := metas[k]
		if !ok {
			m = &keyMeta{key: k, order: len(metas)}
			metas[k] = m
		}
		m.signer = m.signer || signer
		m.writable = m.writable || writable
	}

	add(payer, true, true)
	for _, ix := range ixs {
		for _, a := range ix.Accounts {
			add(a.Pubkey, a.IsSigner, a.IsWritable)
		}
		add(ix.ProgramID, false, false)
	}
	if len(metas) > 256 {
		return Message{}, fmt.Errorf("too many accounts in transaction: %d", len(metas))
	}

	ordered := make([]*keyMeta, 0, len(metas))
	for _, m := range metas {
		ordered = append(ordered, m)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].key == payer {
			return true
		}
		if ordered[j].key == payer {
			return false
		}
		ci, cj := ordered[i].class(), ordered[j].class()
		if ci != cj {
			return ci < cj
		}
		return ordered[i].order < ordered[j].order
	})

	msg := Message{RecentBlockhash: blockhash}
	index := make(map[Pubkey]uint8, len(ordered))
	for i, m := range ordered {
		index[m.key] = uint8(i)
		msg.AccountKeys = append(msg.AccountKeys, m.key)
		switch m.class() {
		case 0:
			msg.Header.NumRequiredSignatures++
		case 1:
			msg.Header.NumRequiredSignatures++
			msg.Header.NumReadonlySignedAccounts++
		case 3:
			msg.Header.NumReadonlyUnsignedAccounts++
		}
	}

	for _, ix := range ixs {
		ci := CompiledInstruction{ProgramIDIndex: index[ix.ProgramID], Data: ix.Data}
		for _, a := range ix.Accounts {
			ci.Accounts = append(ci.Accounts, index[a.Pubkey])
		}
		msg.Instructions = append(msg.Instructions, ci)
	}
	return msg, nil
}

func (m Message) Serialize() []byte {
	b := []byte{m.Header.NumRequiredSignatures, m.Header.NumReadonlySignedAccounts, m.Header.NumReadonlyUnsignedAccounts}
	b = appendCompactU16(b, len(m.AccountKeys))
	for _, k := range m.AccountKeys {
		b = append(b, k[:]...)
	}
	b = append(b, m.RecentBlockhash[:]...)
	b = appendCompactU16(b, len(m.Instructions))
	for _, ix := range m.Instructions {
		b = append(b, ix.ProgramIDIndex)
		b = appendCompactU16(b, len(ix.Accounts))
		b = append(b, ix.Accounts...)
		b = appendCompactU16(b, len(ix.Data))
		b = append(b, ix.Data...)
	}
	return b
}

// NewTransaction compiles and signs. Every required signer must be among signers.
func NewTransaction(ixs []Instruction, blockhash Hash, payer Signer, signers ...Signer) (*Transaction, error) {
	msg, err := CompileMessage(payer.PublicKey(), ixs, blockhash)
	if err != nil {
		return nil, err
	}

	byKey := map[Pubkey]Signer{payer.PublicKey(): payer}
	for _, s := range signers {
		byKey[s.PublicKey()] = s
	}

	payload := msg.Serialize()
	tx := &Transaction{Message: msg}
	for _, k := range msg.AccountKeys[:msg.Header.NumRequiredSignatures] {
		s, ok := byKey[k]
		if !ok {
			return nil, fmt.Errorf("missing signer for %s", k)
		}
		tx.Signatures = append(tx.Signatures, s.Sign(payload))
	}
	return tx, nil
}

func (t *Transaction) Serialize() []byte {
	b := appendCompactU16(nil, len(t.Signatures))
	for _, s := range t.Signatures {
		b = append(b, s[:]...)
	}
	return append(b, t.Message.Serialize()...)
}

func appendCompactU16(b []byte, n int) []byte {
	for {
		elem := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			return append(b, elem)
		}
		b = append(b, elem|0x80)
	}
}
