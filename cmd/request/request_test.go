package request

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ori-shem-tov/vrf-requester/config"
	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/requester"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	t.Setenv(config.EnvRPCURL, "")
	t.Setenv(config.EnvWSURL, "")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rpc-url": "http://file:8899", "max-result": 5}`), 0600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addConfigFlags(flags)
	addPayerFlags(flags)
	flags.Uint64Var(&maxResult, "max-result", 0, "")
	require.NoError(t, flags.Parse([]string{
		"--config", path,
		"--ws-url", "ws://flag:8900",
		"--payer-mnemonic", "  some words  ",
	}))

	conf, err := resolveConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, "http://file:8899", conf.RPCURL)
	assert.Equal(t, "ws://flag:8900", conf.WSURL)
	assert.Equal(t, uint64(5), conf.MaxResult)
	assert.Equal(t, "some words", conf.PayerMnemonic)
	assert.Equal(t, config.DefaultCommitment, conf.Commitment)
}

func TestDeriveCmd(t *testing.T) {
	configFile = ""
	program := ledger.NewKeypair().PublicKey()
	vrfKey := ledger.NewKeypair().PublicKey()
	payer := ledger.NewKeypair().PublicKey()

	var out bytes.Buffer
	DeriveCmd.SetOut(&out)
	DeriveCmd.SetArgs([]string{})
	require.NoError(t, DeriveCmd.Flags().Parse([]string{
		"--program-id", program.String(),
		"--vrf", vrfKey.String(),
		"--payer", payer.String(),
		"--queue-authority", ledger.NewKeypair().PublicKey().String(),
	}))
	DeriveCmd.Run(DeriveCmd, nil)

	var got struct {
		State      struct{ Address ledger.Pubkey }
		Permission *struct{ Address ledger.Pubkey }
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	want, _, err := ledger.FindProgramAddress(requester.ClientStateSeeds(vrfKey, payer), program)
	require.NoError(t, err)
	assert.Equal(t, want, got.State.Address)
	require.NotNil(t, got.Permission)
	assert.False(t, got.Permission.Address.IsZero())
}
