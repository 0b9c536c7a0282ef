// Package engine implements the group membership reconciliation core:
// resolving each group's declared membership query, fetching the candidate
// user set, diffing it against current membership by stable identifier, and
// applying the minimal additions and removals. Groups are isolated from each
// other; one group's failure never aborts the batch.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"groupsync.dev/cli/internal/directory"
)

// Options is the immutable per-run configuration of the engine, established
// once before the batch begins.
type Options struct {
	// GroupBase is the subtree searched for eligible groups.
	GroupBase string

	// UserBase is the default subtree searched for candidate users; a
	// per-group scope override replaces it for that group only.
	UserBase string

	// GroupsFilter selects the groups to reconcile: the eligibility filter,
	// or a single-group filter when one group was named.
	GroupsFilter string

	// Slots names the group attributes carrying query, secondary filter and
	// scope override.
	Slots Slots

	// Schema is the attribute mapping of the directory being reconciled.
	Schema directory.Schema

	// DryRun computes and records changes without any mutation call.
	DryRun bool

	// Confirm, when non-nil, gates every individual mutation.
	Confirm ConfirmFunc

	// Concurrency bounds how many groups reconcile in parallel. Values
	// below 2 keep the sequential baseline. Within a group, mutations are
	// always applied one member at a time.
	Concurrency int
}

// GroupResult is the outcome of reconciling one group.
type GroupResult struct {
	Group   string
	Query   string
	Changes []Change
	Added   int
	Removed int
	Skipped int
	Failed  int

	// Err is a group-level failure (unresolvable query, malformed filter,
	// failed search). The group was skipped or only partially processed.
	Err error

	// MemberErr aggregates individual mutation failures. The group itself
	// completed; only the counted members failed.
	MemberErr error

	Elapsed time.Duration
}

// OK reports whether the group reconciled without any failure.
func (r GroupResult) OK() bool {
	return r.Err == nil && r.MemberErr == nil
}

// Engine reconciles directory groups against their membership queries.
type Engine struct {
	client directory.Client
	opts   Options

	attrOnce  sync.Once
	attrNames []string
	attrErr   error
}

// New builds an engine for one reconciliation run.
func New(client directory.Client, opts Options) *Engine {
	return &Engine{client: client, opts: opts}
}

// Run enumerates the eligible groups and reconciles each independently, in
// deterministic name order. The returned error covers enumeration only; all
// per-group failures live in the results.
func (e *Engine) Run(ctx context.Context) ([]GroupResult, error) {
	attrs := []string{e.opts.Slots.Query}
	if e.opts.Slots.Filter != "" {
		attrs = append(attrs, e.opts.Slots.Filter)
	}
	if e.opts.Slots.Scope != "" {
		attrs = append(attrs, e.opts.Slots.Scope)
	}

	groups, err := e.client.SearchGroups(ctx, e.opts.GroupBase, e.opts.GroupsFilter, attrs)
	if err != nil {
		return nil, fmt.Errorf("enumerating groups failed: %w", err)
	}
	sort.Slice(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].Name) < strings.ToLower(groups[j].Name)
	})

	results := make([]GroupResult, len(groups))
	if e.opts.Concurrency > 1 {
		var eg errgroup.Group
		eg.SetLimit(e.opts.Concurrency)
		for i, group := range groups {
			i, group := i, group
			eg.Go(func() error {
				results[i] = e.reconcileGroup(ctx, group)
				return nil
			})
		}
		// Workers never return errors; failures are captured per result.
		_ = eg.Wait()
		return results, nil
	}
	for i, group := range groups {
		results[i] = e.reconcileGroup(ctx, group)
	}
	return results, nil
}

// reconcileGroup runs one group through resolve, fetch, diff and apply. All
// failures end up in the result, never escaping to sibling groups.
func (e *Engine) reconcileGroup(ctx context.Context, group directory.Group) (result GroupResult) {
	start := time.Now()
	result.Group = group.Name
	defer func() {
		result.Elapsed = time.Since(start)
		slog.InfoContext(ctx, "group reconciled",
			slog.String("group", result.Group),
			slog.Int("added", result.Added),
			slog.Int("removed", result.Removed),
			slog.Int("failed", result.Failed),
			slog.Duration("elapsed", result.Elapsed),
		)
	}()

	res, err := Resolve(group, e.opts.Slots)
	if err != nil {
		result.Err = err
		slog.ErrorContext(ctx, "group reconciliation failed",
			slog.String("group", group.Name), slog.String("error", err.Error()))
		return result
	}
	result.Query = res.Query

	slog.InfoContext(ctx, "reconciling group",
		slog.String("group", group.Name), slog.String("query", res.Query))

	candidates, err := e.fetchCandidates(ctx, res)
	if err != nil {
		result.Err = err
		slog.ErrorContext(ctx, "group reconciliation failed",
			slog.String("group", group.Name), slog.String("error", err.Error()))
		return result
	}

	current, err := e.client.GroupMembers(ctx, group)
	if err != nil {
		result.Err = fmt.Errorf("reading members of %q failed: %w", group.Name, err)
		slog.ErrorContext(ctx, "group reconciliation failed",
			slog.String("group", group.Name), slog.String("error", err.Error()))
		return result
	}
	sortByAccountName(current)

	toAdd, toRemove := Diff(current, candidates)
	e.apply(ctx, group, res, toAdd, toRemove, &result)
	return result
}
