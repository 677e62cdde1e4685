package request

import (
	"context"
	"os"
	"os/signal"

	"github.com/ori-shem-tov/vrf-requester/tools"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	addConfigFlags(RequestCmd.Flags())
	addPayerFlags(RequestCmd.Flags())
	RequestCmd.Flags().Uint64Var(&maxResult, "max-result", 0, "upper bound of the random value")
	RequestCmd.Flags().Int64Var(&timeoutMS, "timeout-ms", 0, "how long to wait for the oracle callback")
	RequestCmd.Flags().Uint64Var(&fundLamports, "fund-lamports", 0,
		"wrap this many lamports into the payer token account before requesting")
}

var RequestCmd = &cobra.Command{
	Use:   "request",
	Short: "requests a random value from the oracle queue and waits for it",
	Run: func(cmd *cobra.Command, args []string) {
		conf, err := resolveConfig(cmd.Flags())
		if err != nil {
			log.Fatalf("failed to read config: %+v", err)
		}
		if err := conf.Validate(); err != nil {
			log.Fatalf("invalid config: %v", err)
		}

		payer, err := conf.Payer()
		if err != nil {
			log.Fatalf("failed to load payer: %v", err)
		}
		log.Infof("payer is %s", payer.PublicKey())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		runner, closeClients, err := InitClients(ctx, conf, payer)
		if err != nil {
			log.Fatalf("failed to initialize clients: %+v", err)
		}
		defer closeClients()

		req, err := runner.Run(ctx, payer, conf.Timeout())
		if err != nil {
			closeClients()
			log.WithFields(req.Fields()).Fatalf("vrf request failed: %v", err)
		}
		if err := tools.PrintJSON(cmd.OutOrStdout(), req); err != nil {
			log.Error(err)
		}
	},
}
