// Package version implements `groupsync version`.
package version

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"groupsync.dev/cli/internal/flags/enum"
	"groupsync.dev/cli/internal/version"
)

const FlagFormat = "format"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the groupsync version",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := enum.Get(cmd.Flags(), FlagFormat)
			if err != nil {
				return err
			}
			info, err := version.Get()
			if err != nil {
				return err
			}
			switch format {
			case "json":
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			default:
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "groupsync %s (%s, %s)\n",
					info.GitVersion, info.GoVersion, info.Platform)
				return err
			}
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	enum.VarP(cmd.Flags(), FlagFormat, "f", []string{"text", "json"}, "output format of the version info")
	return cmd
}
