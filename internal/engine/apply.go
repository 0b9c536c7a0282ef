package engine

import (
	"context"
	"errors"
	"log/slog"

	"groupsync.dev/cli/internal/directory"
)

// Action is the direction of a membership change.
type Action string

const (
	ActionAdd    Action = "Add"
	ActionRemove Action = "Remove"
)

// Change is one applied or simulated membership mutation, the unit of
// pass-through output.
type Change struct {
	Group  string `json:"group"`
	Query  string `json:"query"`
	User   string `json:"user"`
	Action Action `json:"action"`
}

// ConfirmFunc is asked before every individual mutation when interactive
// confirmation is enabled. Returning false skips the member.
type ConfirmFunc func(Change) (bool, error)

// apply walks the add list and then the remove list. Adds run first so a
// one-to-one replacement never leaves the group transiently empty. Every
// member is independent: a failed mutation is logged and counted, the
// remaining members are still attempted.
func (e *Engine) apply(ctx context.Context, group directory.Group, res Resolution, toAdd, toRemove []directory.User, result *GroupResult) {
	for _, user := range toAdd {
		e.applyOne(ctx, group, res, user, ActionAdd, result)
	}
	for _, user := range toRemove {
		e.applyOne(ctx, group, res, user, ActionRemove, result)
	}
}

func (e *Engine) applyOne(ctx context.Context, group directory.Group, res Resolution, user directory.User, action Action, result *GroupResult) {
	change := Change{Group: group.Name, Query: res.Query, User: user.AccountName, Action: action}

	slog.InfoContext(ctx, "membership change",
		slog.String("group", group.Name),
		slog.String("user", user.AccountName),
		slog.String("action", string(action)),
		slog.Bool("dry_run", e.opts.DryRun),
	)

	if e.opts.Confirm != nil {
		ok, err := e.opts.Confirm(change)
		if err != nil {
			e.recordFailure(ctx, result, change, err)
			return
		}
		if !ok {
			result.Skipped++
			slog.InfoContext(ctx, "membership change declined",
				slog.String("group", group.Name), slog.String("user", user.AccountName))
			return
		}
	}

	if e.opts.DryRun {
		e.recordChange(result, change)
		return
	}

	var err error
	switch action {
	case ActionAdd:
		err = e.client.AddMember(ctx, group, user)
	case ActionRemove:
		err = e.client.RemoveMember(ctx, group, user)
	}
	if err != nil {
		e.recordFailure(ctx, result, change, err)
		return
	}
	e.recordChange(result, change)
}

func (e *Engine) recordChange(result *GroupResult, change Change) {
	result.Changes = append(result.Changes, change)
	switch change.Action {
	case ActionAdd:
		result.Added++
	case ActionRemove:
		result.Removed++
	}
}

func (e *Engine) recordFailure(ctx context.Context, result *GroupResult, change Change, err error) {
	result.Failed++
	result.MemberErr = errors.Join(result.MemberErr, err)
	slog.ErrorContext(ctx, "membership change failed",
		slog.String("group", change.Group),
		slog.String("user", change.User),
		slog.String("action", string(change.Action)),
		slog.String("error", err.Error()),
	)
}
