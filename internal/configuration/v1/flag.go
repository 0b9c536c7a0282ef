package v1

import (
	"fmt"

	"github.com/spf13/cobra"
)

const FlagConfig = "config"

// RegisterConfigFlag adds the persistent --config flag to the root command.
func RegisterConfigFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String(FlagConfig, DefaultPath(), "path to the groupsync configuration file")
}

// GetConfigForCommand loads the configuration selected by the command's
// --config flag. A file explicitly named on the command line must exist.
func GetConfigForCommand(cmd *cobra.Command) (*Config, error) {
	flag := cmd.Flags().Lookup(FlagConfig)
	if flag == nil {
		return nil, fmt.Errorf("flag accessed but not defined: %s", FlagConfig)
	}
	return Load(flag.Value.String(), flag.Changed)
}
