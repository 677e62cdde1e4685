package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

const PubkeyLength = 32

// Pubkey is a 32 byte ledger address, rendered in base58.
type Pubkey [PubkeyLength]byte

var (
	SystemProgramID           = MustPubkey("11111111111111111111111111111111")
	TokenProgramID            = MustPubkey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID  = MustPubkey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	SysvarRecentBlockhashesID = MustPubkey("SysvarRecentB1ockHashes11111111111111111111")
	NativeMint                = MustPubkey("So11111111111111111111111111111111111111112")
)

func PubkeyFromString(s string) (Pubkey, error) {
	var p Pubkey
	b, err := base58.Decode(s)
	if err != nil {
		return p, fmt.Errorf("invalid base58 pubkey %q: %v", s, err)
	}
	if len(b) != PubkeyLength {
		return p, fmt.Errorf("invalid pubkey %q: got %d bytes, want %d", s, len(b), PubkeyLength)
	}
	copy(p[:], b)
	return p, nil
}

func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var p Pubkey
	if len(b) != PubkeyLength {
		return p, fmt.Errorf("invalid pubkey length %d", len(b))
	}
	copy(p[:], b)
	return p, nil
}

// MustPubkey panics on malformed input; meant for constants.
func MustPubkey(s string) Pubkey {
	p, err := PubkeyFromString(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pubkey) String() string { return base58.Encode(p[:]) }

func (p Pubkey) Bytes() []byte { return p[:] }

func (p Pubkey) IsZero() bool { return p == Pubkey{} }

func (p Pubkey) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Pubkey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := PubkeyFromString(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Signature is an ed25519 transaction signature.
type Signature [64]byte

func (s Signature) String() string { return base58.Encode(s[:]) }

func (s Signature) IsZero() bool { return s == Signature{} }

func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
