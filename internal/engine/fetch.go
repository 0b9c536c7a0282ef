package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"groupsync.dev/cli/internal/directory"
)

// fetchCandidates executes a group's primary query and applies the compiled
// secondary predicate. Only the attributes the predicate references are
// requested beyond the identity attributes. Results come back sorted by
// account name so diffs and logs are reproducible across runs.
func (e *Engine) fetchCandidates(ctx context.Context, res Resolution) ([]directory.User, error) {
	scope := e.opts.UserBase
	if res.Scope != "" {
		scope = res.Scope
	}

	var predicate Predicate
	var needed []string
	if res.Filter != "" {
		known, err := e.knownAttributes(ctx)
		if err != nil {
			return nil, err
		}
		needed = referencedAttributes(res.Filter, known)
		if predicate, err = CompileFilter(res.Filter, known); err != nil {
			return nil, err
		}
	}

	filter := e.opts.Schema.UserQueryFilter(res.Query)
	users, err := e.client.SearchUsers(ctx, scope, filter, needed)
	if err != nil {
		return nil, fmt.Errorf("searching candidates with query %q failed: %w", res.Query, err)
	}
	sortByAccountName(users)

	if predicate == nil {
		return users, nil
	}
	matched := make([]directory.User, 0, len(users))
	for _, user := range users {
		ok, err := predicate(user)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, user)
		}
	}
	return matched, nil
}

// knownAttributes samples the attribute superset once per run and caches it.
func (e *Engine) knownAttributes(ctx context.Context) ([]string, error) {
	e.attrOnce.Do(func() {
		e.attrNames, e.attrErr = e.client.AttributeNames(ctx, e.opts.UserBase)
	})
	if e.attrErr != nil {
		return nil, fmt.Errorf("sampling user attribute names failed: %w", e.attrErr)
	}
	return e.attrNames, nil
}

func sortByAccountName(users []directory.User) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := strings.ToLower(users[i].AccountName), strings.ToLower(users[j].AccountName)
		if a != b {
			return a < b
		}
		return users[i].DN < users[j].DN
	})
}
