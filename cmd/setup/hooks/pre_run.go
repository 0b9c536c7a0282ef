// Package hooks holds the persistent pre-run wiring shared by all commands.
package hooks

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	v1 "groupsync.dev/cli/internal/configuration/v1"
	gsctx "groupsync.dev/cli/internal/context"
	"groupsync.dev/cli/internal/flags/log"
)

// PreRunE installs the logger selected by the logging flags, loads the
// configuration file and binds it to the command context.
func PreRunE(cmd *cobra.Command, _ []string) error {
	logger, err := log.GetBaseLogger(cmd)
	if err != nil {
		return fmt.Errorf("could not retrieve logger: %w", err)
	}
	slog.SetDefault(logger)

	cfg, err := v1.GetConfigForCommand(cmd)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	gsctx.Register(cmd, cfg)

	if parent := cmd.Parent(); parent != nil {
		cmd.SetOut(parent.OutOrStdout())
		cmd.SetErr(parent.ErrOrStderr())
	}

	return nil
}
