package main

import (
	"github.com/ori-shem-tov/vrf-requester/cmd/request"
	"github.com/ori-shem-tov/vrf-requester/config"
	"github.com/ori-shem-tov/vrf-requester/tools"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	cobra.OnInitialize(func() {
		if err := config.LoadDotEnv(); err != nil {
			log.Warn(err)
		}
		tools.SetLogger(config.LogLevel())
	})
	rootCmd.AddCommand(request.RequestCmd)
	rootCmd.AddCommand(request.DeriveCmd)
	rootCmd.AddCommand(request.StateCmd)
}

var rootCmd = &cobra.Command{
	Use:   "vrf-requester",
	Short: "requests verifiable randomness from a switchboard oracle queue and waits for the callback",
	Run: func(cmd *cobra.Command, args []string) {
		//If no arguments passed, we should fallback to help
		cmd.HelpFunc()(cmd, args)
	},
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		panic(err)
	}
}
