// Package directory defines the data model and the client contract for the
// directory service groupsync reconciles against. The reconciliation engine
// only ever talks to the directory through the Client interface, so the
// protocol implementation (LDAP, a fake in tests) stays swappable.
package directory

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidQuery marks a search filter the directory rejected as malformed.
// The engine treats it as a per-group failure, never as a batch abort.
var ErrInvalidQuery = errors.New("invalid directory query")

// Attributes is the open-ended attribute bag of a directory entry. Attribute
// names are case-insensitive per LDAP semantics; values keep server order.
type Attributes map[string][]string

// Values returns all values of the named attribute, matching the name
// case-insensitively.
func (a Attributes) Values(name string) []string {
	if vals, ok := a[name]; ok {
		return vals
	}
	for key, vals := range a {
		if strings.EqualFold(key, name) {
			return vals
		}
	}
	return nil
}

// First returns the first value of the named attribute, or "" if unset.
func (a Attributes) First(name string) string {
	if vals := a.Values(name); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// Has reports whether the named attribute carries at least one value.
func (a Attributes) Has(name string) bool {
	return len(a.Values(name)) > 0
}

// Names returns the attribute names present in the bag.
func (a Attributes) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	return names
}

// User is a directory user entry. ID is the stable unique identifier
// (objectGUID on Active Directory) and is the only field membership
// comparison may use; AccountName is mutable display data.
type User struct {
	DN          string
	ID          string
	AccountName string
	Attributes  Attributes
}

// Group is an immutable snapshot of a directory group taken at the start of
// a reconciliation pass. The membership query and its optional overrides are
// read from the attribute bag by the engine's resolver.
type Group struct {
	DN         string
	Name       string
	Attributes Attributes
}

// Client is the narrow directory-service collaborator the engine calls.
// All operations are bound to the context; implementations must enforce a
// per-call timeout so no reconciliation step blocks indefinitely.
type Client interface {
	// SearchGroups returns the groups under base matching filter, with the
	// requested attributes loaded in addition to the identity attributes.
	SearchGroups(ctx context.Context, base, filter string, attrs []string) ([]Group, error)

	// SearchUsers returns the users under base matching filter, with the
	// requested attributes loaded in addition to the identity attributes.
	SearchUsers(ctx context.Context, base, filter string, attrs []string) ([]User, error)

	// GroupMembers returns the current members of the group.
	GroupMembers(ctx context.Context, group Group) ([]User, error)

	// AddMember adds the user to the group.
	AddMember(ctx context.Context, group Group, user User) error

	// RemoveMember removes the user from the group.
	RemoveMember(ctx context.Context, group Group, user User) error

	// AttributeNames samples one representative user entry and returns the
	// attribute names it carries. The engine uses this superset to decide
	// which names a secondary filter expression may reference.
	AttributeNames(ctx context.Context, base string) ([]string, error)
}
