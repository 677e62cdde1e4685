package tools

import (
	"encoding/json"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func MarkFlagRequired(flag *pflag.FlagSet, name string) {
	err := cobra.MarkFlagRequired(flag, name)
	if err != nil {
		panic(err)
	}
}

// SetLogger sets the global log level from VRF_LOG_LEVEL. Empty or unknown
// levels fall back to warn.
func SetLogger(logLevelEnv string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logLevel, err := log.ParseLevel(logLevelEnv)
	if err != nil {
		logLevel = log.WarnLevel
	}
	log.SetLevel(logLevel)
}

// PrintJSON writes v indented, for command output.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
