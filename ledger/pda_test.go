package ledger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProgram = MustPubkey("2TfB33aLaneQb5TNVwyDz3jSZXS6jdW2ARw1Dgf84XCG")

func TestFindProgramAddress_Deterministic(t *testing.T) {
	seeds := [][]byte{[]byte("STATE"), bytes.Repeat([]byte{7}, 32), bytes.Repeat([]byte{9}, 32)}

	addr1, bump1, err := FindProgramAddress(seeds, testProgram)
	require.NoError(t, err)
	addr2, bump2, err := FindProgramAddress(seeds, testProgram)
	require.NoError(t, err)

	assert.Equal(t, addr1, addr2)
	assert.Equal(t, bump1, bump2)
	assert.False(t, IsOnCurve(addr1[:]))
}

func TestFindProgramAddress_MatchesCreate(t *testing.T) {
	seeds := [][]byte{[]byte("STATE")}
	addr, bump, err := FindProgramAddress(seeds, testProgram)
	require.NoError(t, err)

	again, err := CreateProgramAddress([][]byte{[]byte("STATE"), {bump}}, testProgram)
	require.NoError(t, err)
	assert.Equal(t, addr, again)

	// every bump above the found one must have landed on the curve
	for b := 255; b > int(bump); b-- {
		_, err := CreateProgramAddress([][]byte{[]byte("STATE"), {uint8(b)}}, testProgram)
		assert.ErrorIs(t, err, ErrInvalidSeeds)
	}
}

func TestCreateProgramAddress_KnownVectors(t *testing.T) {
	loader := MustPubkey("BPFLoaderUpgradeab1e11111111111111111111111")
	seedKey := MustPubkey("SeedPubey1111111111111111111111111111111111")

	tests := []struct {
		name  string
		seeds [][]byte
		want  string
	}{
		{"empty seed", [][]byte{{}, {1}}, "BwqrghZA2htAcqq8dzP1WDAhTXYTYWj7CHxF5j7TDBAe"},
		{"utf8 seed", [][]byte{[]byte("☉"), {0}}, "13yWmRpaTR4r5nAktwLqMpRNr28tnVUZw26rTvPSSB19"},
		{"two words", [][]byte{[]byte("Talking"), []byte("Squirrels")}, "2fnQrngrQT4SeLcdToJAD96phoEjNL2man2kfRLCASVk"},
		{"pubkey seed", [][]byte{seedKey.Bytes(), {1}}, "976ymqVnfE32QFe6NfGDctSvVa36LWnvYxhU6G2232YL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateProgramAddress(tt.seeds, loader)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFindProgramAddress_OrderMatters(t *testing.T) {
	a, _, err := FindProgramAddress([][]byte{[]byte("a"), []byte("b")}, testProgram)
	require.NoError(t, err)
	b, _, err := FindProgramAddress([][]byte{[]byte("b"), []byte("a")}, testProgram)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestFindProgramAddress_SeedLimits(t *testing.T) {
	_, _, err := FindProgramAddress([][]byte{make([]byte, 33)}, testProgram)
	assert.True(t, errors.Is(err, ErrMaxSeedLengthExceeded))

	many := make([][]byte, MaxSeeds)
	for i := range many {
		many[i] = []byte{byte(i)}
	}
	_, _, err = FindProgramAddress(many, testProgram)
	assert.ErrorIs(t, err, ErrTooManySeeds)
}

func TestIsOnCurve(t *testing.T) {
	kp := NewKeypair()
	pub := kp.PublicKey()
	assert.True(t, IsOnCurve(pub[:]))
}

func TestPubkey_RoundTrip(t *testing.T) {
	p := MustPubkey("F8ce7MsckeZAbAGmxjJNetxYXQa9mKr9nnrC3qKubyYy")
	assert.Equal(t, "F8ce7MsckeZAbAGmxjJNetxYXQa9mKr9nnrC3qKubyYy", p.String())

	_, err := PubkeyFromString("not-base58-0OIl")
	assert.Error(t, err)
	_, err = PubkeyFromString("abc")
	assert.Error(t, err)

	raw, err := p.MarshalJSON()
	require.NoError(t, err)
	var back Pubkey
	require.NoError(t, back.UnmarshalJSON(raw))
	assert.Equal(t, p, back)
}
