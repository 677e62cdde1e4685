package ledger

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/algorand/go-algorand-sdk/crypto"
	"github.com/algorand/go-algorand-sdk/mnemonic"
)

// Signer signs transaction messages on behalf of an address.
type Signer interface {
	PublicKey() Pubkey
	Sign(message []byte) Signature
}

// Keypair is an ed25519 identity. The private half is only used to sign.
type Keypair struct {
	account crypto.Account
}

func NewKeypair() Keypair {
	return Keypair{account: crypto.GenerateAccount()}
}

func KeypairFromPrivateKey(sk ed25519.PrivateKey) (Keypair, error) {
	if len(sk) != ed25519.PrivateKeySize {
		return Keypair{}, fmt.Errorf("invalid private key length %d", len(sk))
	}
	acct, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{account: acct}, nil
}

// KeypairFromMnemonic reads a 25-word mnemonic.
func KeypairFromMnemonic(mn string) (Keypair, error) {
	sk, err := mnemonic.ToPrivateKey(mn)
	if err != nil {
		return Keypair{}, err
	}
	return KeypairFromPrivateKey(sk)
}

// KeypairFromFile reads a JSON array of the 64 secret key bytes.
func KeypairFromFile(path string) (Keypair, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return Keypair{}, err
	}
	var secret []byte
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return Keypair{}, fmt.Errorf("invalid keypair file %s: %v", path, err)
	}
	for _, v := range ints {
		if v < 0 || v > 255 {
			return Keypair{}, fmt.Errorf("invalid keypair file %s: byte %d out of range", path, v)
		}
		secret = append(secret, byte(v))
	}
	return KeypairFromPrivateKey(ed25519.PrivateKey(secret))
}

func (k Keypair) PublicKey() Pubkey {
	var p Pubkey
	copy(p[:], k.account.PublicKey)
	return p
}

func (k Keypair) Sign(message []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(k.account.PrivateKey, message))
	return sig
}
