// Package config holds the requester settings: a JSON file, overridden by
// VRF_* environment variables and command line flags.
package config

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/switchboard"
	"github.com/pkg/errors"
)

const (
	DefaultRPCURL     = "https://api.devnet.solana.com"
	DefaultWSURL      = "wss://api.devnet.solana.com"
	DefaultCommitment = "confirmed"
	DefaultMaxResult  = 1337000
	DefaultTimeoutMS  = 55000

	EnvRPCURL   = "VRF_RPC_URL"
	EnvWSURL    = "VRF_WS_URL"
	EnvLogLevel = "VRF_LOG_LEVEL"
)

type Config struct {
	RPCURL     string `json:"rpc-url"`
	WSURL      string `json:"ws-url"`
	Commitment string `json:"commitment"`

	ProgramID            string `json:"program-id"`
	SwitchboardProgramID string `json:"switchboard-program-id"`
	Queue                string `json:"queue"`

	MaxResult uint64 `json:"max-result"`
	TimeoutMS int64  `json:"timeout-ms"`

	PayerKeypair  string `json:"payer-keypair"`
	PayerMnemonic string `json:"payer-mnemonic"`
	FundLamports  uint64 `json:"fund-lamports"`
}

func Default() Config {
	return Config{
		RPCURL:               DefaultRPCURL,
		WSURL:                DefaultWSURL,
		Commitment:           DefaultCommitment,
		SwitchboardProgramID: switchboard.ProgramID.String(),
		Queue:                switchboard.DevnetQueue.String(),
		MaxResult:            DefaultMaxResult,
		TimeoutMS:            DefaultTimeoutMS,
	}
}

// LoadDotEnv reads .env style files into the environment. Missing files are
// skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "could not load %s", p)
		}
	}
	return nil
}

// Load starts from Default, applies the JSON file at path (if any) and then
// the environment.
func Load(path string) (Config, error) {
	conf := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return conf, errors.Wrapf(err, "failed to read config %s", path)
		}
		if err := json.Unmarshal(b, &conf); err != nil {
			return conf, errors.Wrapf(err, "failed to unmarshal config %s", path)
		}
	}
	conf.ApplyEnv()
	return conf, nil
}

func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvRPCURL); v != "" {
		c.RPCURL = v
	}
	if v := os.Getenv(EnvWSURL); v != "" {
		c.WSURL = v
	}
}

// LogLevel is the lower-cased VRF_LOG_LEVEL.
func LogLevel() string {
	return strings.ToLower(os.Getenv(EnvLogLevel))
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.RPCURL == "" {
		result = multierror.Append(result, errors.New("rpc-url is required"))
	}
	if c.WSURL == "" {
		result = multierror.Append(result, errors.New("ws-url is required"))
	}
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		result = multierror.Append(result, errors.Errorf("unknown commitment %q", c.Commitment))
	}
	for _, key := range []struct{ name, value string }{
		{"program-id", c.ProgramID},
		{"switchboard-program-id", c.SwitchboardProgramID},
		{"queue", c.Queue},
	} {
		if _, err := ledger.PubkeyFromString(key.value); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "invalid %s", key.name))
		}
	}
	if c.MaxResult == 0 {
		result = multierror.Append(result, errors.New("max-result must be positive"))
	}
	if c.TimeoutMS <= 0 {
		result = multierror.Append(result, errors.New("timeout-ms must be positive"))
	}
	if c.PayerKeypair == "" && c.PayerMnemonic == "" {
		result = multierror.Append(result, errors.New("one of payer-keypair or payer-mnemonic is required"))
	}
	if c.PayerKeypair != "" && c.PayerMnemonic != "" {
		result = multierror.Append(result, errors.New("payer-keypair and payer-mnemonic are mutually exclusive"))
	}
	return result.ErrorOrNil()
}

// Payer loads the payer key from the keypair file or the mnemonic.
func (c Config) Payer() (ledger.Keypair, error) {
	if c.PayerMnemonic != "" {
		return ledger.KeypairFromMnemonic(c.PayerMnemonic)
	}
	return ledger.KeypairFromFile(c.PayerKeypair)
}

func (c Config) Programs() (program, oracle, queue ledger.Pubkey, err error) {
	if program, err = ledger.PubkeyFromString(c.ProgramID); err != nil {
		return
	}
	if oracle, err = ledger.PubkeyFromString(c.SwitchboardProgramID); err != nil {
		return
	}
	queue, err = ledger.PubkeyFromString(c.Queue)
	return
}
