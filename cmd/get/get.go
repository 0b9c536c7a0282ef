// Package get groups the read-only listing commands.
package get

import (
	"github.com/spf13/cobra"

	"groupsync.dev/cli/cmd/get/groups"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get {groups}",
		Short: "Get objects from the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		DisableAutoGenTag: true,
	}
	cmd.AddCommand(groups.New())
	return cmd
}
