// Package groups implements `groupsync get groups`, the eligible-group
// listing.
package groups

import (
	"fmt"

	"github.com/spf13/cobra"

	ocmd "groupsync.dev/cli/cmd/internal/cmd"
	"groupsync.dev/cli/internal/engine"
	"groupsync.dev/cli/internal/flags/enum"
	"groupsync.dev/cli/internal/render"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group", "g"},
		Short:   "List the groups eligible for reconciliation and their queries",
		Long: `List every group whose query slot is populated, together with the
membership query and, when the respective slots are selected, the secondary
filter and user-search-scope override. Nothing is modified.`,
		RunE:              run,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	ocmd.RegisterDirectoryFlags(cmd.Flags())
	enum.VarP(cmd.Flags(), ocmd.FlagOutput, "o", []string{
		render.OutputFormatTable.String(),
		render.OutputFormatJSON.String(),
		render.OutputFormatNDJSON.String(),
		render.OutputFormatYAML.String(),
	}, "output format of the group listing")

	_ = cmd.MarkFlagRequired(ocmd.FlagQuerySlot)

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	runtime, err := ocmd.NewRuntime(cmd)
	if err != nil {
		return err
	}
	output, err := enum.Get(cmd.Flags(), ocmd.FlagOutput)
	if err != nil {
		return fmt.Errorf("getting %s flag failed: %w", ocmd.FlagOutput, err)
	}

	client, err := runtime.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connecting to the directory failed: %w", err)
	}
	defer client.Close()

	format, err := render.ParseOutputFormat(output,
		render.OutputFormatTable, render.OutputFormatJSON,
		render.OutputFormatNDJSON, render.OutputFormatYAML)
	if err != nil {
		return err
	}

	groups, err := client.SearchGroups(ctx, runtime.GroupBase, runtime.GroupsFilter, runtime.SlotAttributes())
	if err != nil {
		return fmt.Errorf("enumerating groups failed: %w", err)
	}

	rows := make([]render.GroupRow, 0, len(groups))
	for _, group := range groups {
		resolution, err := engine.Resolve(group, runtime.Slots)
		if err != nil {
			// An empty query slot here means the group changed between
			// enumeration and read; surface it instead of hiding the row.
			rows = append(rows, render.GroupRow{Name: group.Name})
			continue
		}
		rows = append(rows, render.GroupRow{
			Name:   group.Name,
			Query:  resolution.Query,
			Filter: resolution.Filter,
			Scope:  resolution.Scope,
		})
	}

	return render.Groups(cmd.OutOrStdout(), format, rows)
}
