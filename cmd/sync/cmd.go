// Package sync implements `groupsync sync`, the reconciliation batch.
package sync

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	ocmd "groupsync.dev/cli/cmd/internal/cmd"
	"groupsync.dev/cli/internal/engine"
	"groupsync.dev/cli/internal/flags/enum"
	"groupsync.dev/cli/internal/render"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile group membership against each group's membership query",
		Long: `Reconcile every eligible group: read its membership query (and the
optional secondary filter and user-search-scope override), compute the
desired member set, diff it against current membership by stable unique
identifier, and apply the minimal set of additions and removals. Adds are
applied before removes. A failing group is logged and skipped; the rest of
the batch continues.

With --dry-run no mutation reaches the directory, but the computed changes
(and pass-through output, if requested with --output) are identical to a
real run.`,
		Example: strings.TrimSpace(`
Reconcile all groups whose extensionAttribute1 holds a query:

  groupsync sync --query-slot 1

Preview what a run would change, as NDJSON records:

  groupsync sync --query-slot 1 --dry-run --output ndjson

Reconcile a single group with a secondary filter in slot 2:

  groupsync sync --query-slot 1 --filter-slot 2 --group role-department-sales
`),
		RunE:              run,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	ocmd.RegisterDirectoryFlags(cmd.Flags())
	cmd.Flags().Bool(ocmd.FlagDryRun, false, "compute and report changes without applying them")
	cmd.Flags().Bool(ocmd.FlagConfirm, false, "ask for confirmation before every individual change")
	cmd.Flags().Int(ocmd.FlagConcurrency, 1, "number of groups reconciled in parallel")
	cmd.Flags().Bool(ocmd.FlagStrict, false, "exit non-zero if any group failed to reconcile")
	enum.VarP(cmd.Flags(), ocmd.FlagOutput, "o", []string{
		render.OutputFormatNone.String(),
		render.OutputFormatTable.String(),
		render.OutputFormatJSON.String(),
		render.OutputFormatNDJSON.String(),
		render.OutputFormatYAML.String(),
	}, "pass-through output: one record per applied or simulated change")

	_ = cmd.MarkFlagRequired(ocmd.FlagQuerySlot)

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	runtime, err := ocmd.NewRuntime(cmd)
	if err != nil {
		return err
	}

	dryRun, err := cmd.Flags().GetBool(ocmd.FlagDryRun)
	if err != nil {
		return fmt.Errorf("getting %s flag failed: %w", ocmd.FlagDryRun, err)
	}
	confirm, err := cmd.Flags().GetBool(ocmd.FlagConfirm)
	if err != nil {
		return fmt.Errorf("getting %s flag failed: %w", ocmd.FlagConfirm, err)
	}
	concurrency, err := cmd.Flags().GetInt(ocmd.FlagConcurrency)
	if err != nil {
		return fmt.Errorf("getting %s flag failed: %w", ocmd.FlagConcurrency, err)
	}
	strict, err := cmd.Flags().GetBool(ocmd.FlagStrict)
	if err != nil {
		return fmt.Errorf("getting %s flag failed: %w", ocmd.FlagStrict, err)
	}
	output, err := enum.Get(cmd.Flags(), ocmd.FlagOutput)
	if err != nil {
		return fmt.Errorf("getting %s flag failed: %w", ocmd.FlagOutput, err)
	}
	format, err := render.ParseOutputFormat(output,
		render.OutputFormatNone, render.OutputFormatTable, render.OutputFormatJSON,
		render.OutputFormatNDJSON, render.OutputFormatYAML)
	if err != nil {
		return err
	}

	client, err := runtime.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connecting to the directory failed: %w", err)
	}
	defer client.Close()

	opts := engine.Options{
		GroupBase:    runtime.GroupBase,
		UserBase:     runtime.UserBase,
		GroupsFilter: runtime.GroupsFilter,
		Slots:        runtime.Slots,
		Schema:       runtime.Schema,
		DryRun:       dryRun,
		Concurrency:  concurrency,
	}
	if confirm {
		opts.Confirm = promptConfirm(cmd.InOrStdin(), cmd.ErrOrStderr())
		// Prompting per member does not mix with parallel groups.
		opts.Concurrency = 1
	}

	results, err := engine.New(client, opts).Run(ctx)
	if err != nil {
		return err
	}

	var failed int
	var changes []engine.Change
	for _, result := range results {
		if !result.OK() {
			failed++
		}
		changes = append(changes, result.Changes...)
	}

	if err := render.Changes(cmd.OutOrStdout(), format, changes); err != nil {
		return err
	}

	slog.InfoContext(ctx, "sync finished",
		slog.Int("groups", len(results)),
		slog.Int("failed", failed),
		slog.Int("changes", len(changes)),
		slog.Bool("dry_run", dryRun),
	)

	if strict && failed > 0 {
		return fmt.Errorf("%d of %d groups failed to reconcile", failed, len(results))
	}
	return nil
}

// promptConfirm asks on the terminal before each mutation. Anything but an
// explicit yes declines.
func promptConfirm(in io.Reader, out io.Writer) engine.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(change engine.Change) (bool, error) {
		verb := "add"
		preposition := "to"
		if change.Action == engine.ActionRemove {
			verb = "remove"
			preposition = "from"
		}
		fmt.Fprintf(out, "%s %q %s group %q? [y/N]: ", verb, change.User, preposition, change.Group)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false, fmt.Errorf("reading confirmation failed: %w", err)
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}
