package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"groupsync.dev/cli/cmd/get"
	"groupsync.dev/cli/cmd/setup/hooks"
	"groupsync.dev/cli/cmd/sync"
	"groupsync.dev/cli/cmd/version"
	v1 "groupsync.dev/cli/internal/configuration/v1"
	"groupsync.dev/cli/internal/flags/log"
)

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := New().Execute(); err != nil {
		os.Exit(1)
	}
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groupsync [sub-command]",
		Short: "Reconcile directory group membership against declarative queries",
		Long: `groupsync keeps directory group membership in sync with a per-group
membership query stored in one of the group's attribute slots. Each run
computes the desired member set from the query, diffs it against current
membership by stable identifier, and applies the minimal additions and
removals.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: hooks.PreRunE,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	v1.RegisterConfigFlag(cmd)
	log.RegisterLoggingFlags(cmd.PersistentFlags())

	cmd.AddCommand(sync.New())
	cmd.AddCommand(get.New())
	cmd.AddCommand(version.New())
	return cmd
}
