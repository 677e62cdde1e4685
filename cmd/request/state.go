package request

import (
	"context"

	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/requester"
	"github.com/ori-shem-tov/vrf-requester/rpc"
	"github.com/ori-shem-tov/vrf-requester/tools"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var stateAddress string

func init() {
	addConfigFlags(StateCmd.Flags())
	StateCmd.Flags().StringVar(&stateAddress, "address", "", "client state account (required)")
	tools.MarkFlagRequired(StateCmd.Flags(), "address")
}

var StateCmd = &cobra.Command{
	Use:   "state",
	Short: "reads a vrf client state account",
	Run: func(cmd *cobra.Command, args []string) {
		conf, err := resolveConfig(cmd.Flags())
		if err != nil {
			log.Fatalf("failed to read config: %+v", err)
		}
		program, _, _, err := conf.Programs()
		if err != nil {
			log.Fatalf("invalid config: %v", err)
		}
		address, err := ledger.PubkeyFromString(stateAddress)
		if err != nil {
			log.Fatalf("invalid address: %v", err)
		}

		acct, err := rpc.NewClient(conf.RPCURL, conf.Commitment).GetAccount(context.Background(), address)
		if err != nil {
			log.Fatalf("failed to read %s: %+v", address, err)
		}
		if acct.Owner != program {
			log.Fatalf("%s is owned by %s, not the requester program %s", address, acct.Owner, program)
		}
		state, err := requester.NewClient(program, nil, nil).DecodeClientState(acct.Data)
		if err != nil {
			log.Fatalf("failed to decode %s: %v", address, err)
		}
		if err := tools.PrintJSON(cmd.OutOrStdout(), state); err != nil {
			log.Error(err)
		}
	},
}
