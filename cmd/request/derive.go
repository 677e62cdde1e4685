package request

import (
	"github.com/ori-shem-tov/vrf-requester/ledger"
	"github.com/ori-shem-tov/vrf-requester/requester"
	"github.com/ori-shem-tov/vrf-requester/switchboard"
	"github.com/ori-shem-tov/vrf-requester/tools"
	"github.com/ori-shem-tov/vrf-requester/vrf"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	vrfAddress     string
	payerAddress   string
	queueAuthority string
)

func init() {
	addConfigFlags(DeriveCmd.Flags())
	DeriveCmd.Flags().StringVar(&vrfAddress, "vrf", "", "randomness account address (required)")
	tools.MarkFlagRequired(DeriveCmd.Flags(), "vrf")
	DeriveCmd.Flags().StringVar(&payerAddress, "payer", "", "payer address (required)")
	tools.MarkFlagRequired(DeriveCmd.Flags(), "payer")
	DeriveCmd.Flags().StringVar(&queueAuthority, "queue-authority", "",
		"authority of the queue, also derives the permission account when set")
}

type derived struct {
	ClientState  vrf.DerivedAddress  `json:"state"`
	ProgramState vrf.DerivedAddress  `json:"program-state"`
	Permission   *vrf.DerivedAddress `json:"permission,omitempty"`
}

// DeriveCmd prints the accounts of a request without touching the network.
var DeriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "derives the client state and switchboard accounts of a request",
	Run: func(cmd *cobra.Command, args []string) {
		conf, err := resolveConfig(cmd.Flags())
		if err != nil {
			log.Fatalf("failed to read config: %+v", err)
		}
		program, oracle, queue, err := conf.Programs()
		if err != nil {
			log.Fatalf("invalid config: %v", err)
		}
		vrfKey, err := ledger.PubkeyFromString(vrfAddress)
		if err != nil {
			log.Fatalf("invalid vrf: %v", err)
		}
		payerKey, err := ledger.PubkeyFromString(payerAddress)
		if err != nil {
			log.Fatalf("invalid payer: %v", err)
		}

		var out derived
		out.ClientState, err = vrf.NewAddressDeriver(program).Derive(requester.ClientStateSeeds(vrfKey, payerKey)...)
		if err != nil {
			log.Fatal(err)
		}
		sb := vrf.NewAddressDeriver(oracle)
		out.ProgramState, err = sb.Derive(switchboard.ProgramStateSeeds()...)
		if err != nil {
			log.Fatal(err)
		}
		if queueAuthority != "" {
			authority, err := ledger.PubkeyFromString(queueAuthority)
			if err != nil {
				log.Fatalf("invalid queue authority: %v", err)
			}
			permission, err := sb.Derive(switchboard.PermissionSeeds(authority, queue, vrfKey)...)
			if err != nil {
				log.Fatal(err)
			}
			out.Permission = &permission
		}

		if err := tools.PrintJSON(cmd.OutOrStdout(), out); err != nil {
			log.Error(err)
		}
	},
}
