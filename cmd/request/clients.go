package request

import (
	"context"
	"strings"

	"github.com/ori-shem-tov/vrf-requester/config"
	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/requester"
	"github.com/ori-shem-tov/vrf-requester/rpc"
	"github.com/ori-shem-tov/vrf-requester/switchboard"
	"github.com/ori-shem-tov/vrf-requester/token"
	"github.com/ori-shem-tov/vrf-requester/vrf"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

var (
	configFile    string
	rpcURL        string
	wsURL         string
	commitment    string
	programID     string
	oracleID      string
	queueAddress  string
	keypairFile   string
	payerMnemonic string
	maxResult     uint64
	timeoutMS     int64
	fundLamports  uint64
)

func addConfigFlags(flags *pflag.FlagSet) {
	flags.StringVar(&configFile, "config", "", "JSON config file to use")
	flags.StringVar(&rpcURL, "rpc-url", "", "JSON-RPC endpoint (env "+config.EnvRPCURL+")")
	flags.StringVar(&wsURL, "ws-url", "", "websocket endpoint (env "+config.EnvWSURL+")")
	flags.StringVar(&commitment, "commitment", "", "processed, confirmed or finalized")
	flags.StringVar(&programID, "program-id", "", "requester program id")
	flags.StringVar(&oracleID, "switchboard-program-id", "", "switchboard program id")
	flags.StringVar(&queueAddress, "queue", "", "oracle queue address")
}

func addPayerFlags(flags *pflag.FlagSet) {
	flags.StringVar(&keypairFile, "payer-keypair", "", "JSON keypair file of the payer")
	flags.StringVar(&payerMnemonic, "payer-mnemonic", "", "25-word mnemonic of the payer")
}

// resolveConfig layers the flags that were set on top of the config file and
// the environment.
func resolveConfig(flags *pflag.FlagSet) (config.Config, error) {
	conf, err := config.Load(configFile)
	if err != nil {
		return conf, err
	}
	strs := map[string]*string{
		"rpc-url":                &conf.RPCURL,
		"ws-url":                 &conf.WSURL,
		"commitment":             &conf.Commitment,
		"program-id":             &conf.ProgramID,
		"switchboard-program-id": &conf.SwitchboardProgramID,
		"queue":                  &conf.Queue,
		"payer-keypair":          &conf.PayerKeypair,
		"payer-mnemonic":         &conf.PayerMnemonic,
	}
	for name, field := range strs {
		if flags.Changed(name) {
			*field, _ = flags.GetString(name)
		}
	}
	if flags.Changed("max-result") {
		conf.MaxResult = maxResult
	}
	if flags.Changed("timeout-ms") {
		conf.TimeoutMS = timeoutMS
	}
	if flags.Changed("fund-lamports") {
		conf.FundLamports = fundLamports
	}
	conf.PayerMnemonic = strings.TrimSpace(conf.PayerMnemonic)
	return conf, nil
}

// InitClients connects to the node and wires the program clients for payer.
// The returned close func releases the websocket connection.
func InitClients(ctx context.Context, conf config.Config, payer ledger.Signer) (*vrf.Runner, func(), error) {
	program, oracle, queue, err := conf.Programs()
	if err != nil {
		return nil, nil, err
	}

	client := rpc.NewClient(conf.RPCURL, conf.Commitment)
	sender := rpc.NewSender(client, payer)
	pubsub, err := rpc.DialPubSub(ctx, conf.WSURL, conf.Commitment)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to connect to %s", conf.WSURL)
	}

	tokens := token.NewAccounts(client, sender)
	tokens.FundLamports = conf.FundLamports
	requesterClient := requester.NewClient(program, nil, sender)

	runner := &vrf.Runner{
		Oracle:    switchboard.NewClient(oracle, client, sender, client),
		Requester: requesterClient,
		Tokens:    tokens,
		Watcher:   pubsub,
		Schema:    requesterClient.Coder(),
		Queue:     queue,
		MaxResult: conf.MaxResult,
	}
	closer := func() {
		if err := pubsub.Close(); err != nil {
			log.WithError(err).Debug("closing websocket")
		}
	}
	return runner, closer, nil
}
