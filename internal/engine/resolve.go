package engine

import (
	"fmt"
	"strings"

	"groupsync.dev/cli/internal/directory"
)

// Slots names the group attributes holding the membership query and its
// optional overrides. Filter and Scope may be empty when the respective
// slot was not selected for the run.
type Slots struct {
	Query  string
	Filter string
	Scope  string
}

// Resolution is the per-group outcome of reading the slot attributes.
// Filter and Scope are "" when unset; an empty and an absent value are
// deliberately treated the same (no secondary filtering, no scope override).
type Resolution struct {
	Query  string
	Filter string
	Scope  string
}

// Resolve reads the membership query and the optional secondary filter and
// user-scope override from the group's attributes. Enumeration only yields
// groups with a populated query slot, so an empty query here means the group
// changed under us mid-run.
func Resolve(group directory.Group, slots Slots) (Resolution, error) {
	query := strings.TrimSpace(group.Attributes.First(slots.Query))
	if query == "" {
		return Resolution{}, fmt.Errorf("group %q carries no membership query in attribute %q", group.Name, slots.Query)
	}
	res := Resolution{Query: query}
	if slots.Filter != "" {
		res.Filter = strings.TrimSpace(group.Attributes.First(slots.Filter))
	}
	if slots.Scope != "" {
		res.Scope = strings.TrimSpace(group.Attributes.First(slots.Scope))
	}
	return res, nil
}
