package directory

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Slot bounds for the query/filter/scope attribute slots. Active Directory
// ships exactly fifteen free-form extension attributes.
const (
	MinSlot = 1
	MaxSlot = 15
)

// Schema maps the abstract roles groupsync needs (membership query slot,
// stable user identifier, account name) onto concrete attribute names. The
// zero value is not usable; start from DefaultSchema and override fields for
// non-Active-Directory servers.
type Schema struct {
	// QueryAttributeFormat is the printf format producing the attribute name
	// for a slot number, e.g. "extensionAttribute%d".
	QueryAttributeFormat string

	// GroupNameAttribute holds the group's human-readable name.
	GroupNameAttribute string

	// UserIDAttribute holds the stable unique identifier of a user.
	UserIDAttribute string

	// UserAccountAttribute holds the user's account name.
	UserAccountAttribute string

	// GroupClassFilter and UserClassFilter restrict searches to group and
	// user entries respectively. Both must be complete filter expressions.
	GroupClassFilter string
	UserClassFilter  string

	// MemberAttribute is the group attribute listing member DNs.
	MemberAttribute string

	// MemberOfAttribute is the user attribute listing group DNs.
	MemberOfAttribute string
}

// DefaultSchema returns the Active Directory attribute mapping.
func DefaultSchema() Schema {
	return Schema{
		QueryAttributeFormat: "extensionAttribute%d",
		GroupNameAttribute:   "sAMAccountName",
		UserIDAttribute:      "objectGUID",
		UserAccountAttribute: "sAMAccountName",
		GroupClassFilter:     "(objectClass=group)",
		UserClassFilter:      "(objectClass=user)",
		MemberAttribute:      "member",
		MemberOfAttribute:    "memberOf",
	}
}

// SlotAttribute returns the attribute name backing the given slot.
func (s Schema) SlotAttribute(slot int) (string, error) {
	if slot < MinSlot || slot > MaxSlot {
		return "", fmt.Errorf("attribute slot %d out of range [%d, %d]", slot, MinSlot, MaxSlot)
	}
	return fmt.Sprintf(s.QueryAttributeFormat, slot), nil
}

// EligibleGroupsFilter matches every group whose query slot is populated.
// Groups without a membership query are excluded from reconciliation here,
// at enumeration time.
func (s Schema) EligibleGroupsFilter(queryAttr string) string {
	return fmt.Sprintf("(&%s(%s=*))", s.GroupClassFilter, queryAttr)
}

// GroupByNameFilter matches the single group with the given name. The name
// is escaped, it is operator input, not a filter expression.
func (s Schema) GroupByNameFilter(queryAttr, name string) string {
	return fmt.Sprintf("(&%s(%s=*)(%s=%s))",
		s.GroupClassFilter, queryAttr, s.GroupNameAttribute, ldap.EscapeFilter(name))
}

// MembersFilter matches the users that are members of the group at the
// given DN.
func (s Schema) MembersFilter(groupDN string) string {
	return fmt.Sprintf("(&%s(%s=%s))",
		s.UserClassFilter, s.MemberOfAttribute, ldap.EscapeFilter(groupDN))
}

// UserQueryFilter combines the user class restriction with a group's primary
// membership query. The query is used verbatim apart from wrapping bare
// expressions in parentheses; validating its syntax is the directory client's
// job so a malformed query stays a per-group failure.
func (s Schema) UserQueryFilter(query string) string {
	if !strings.HasPrefix(query, "(") {
		query = "(" + query + ")"
	}
	return fmt.Sprintf("(&%s%s)", s.UserClassFilter, query)
}

// IdentityAttributes lists the attributes every user search must load.
func (s Schema) IdentityAttributes() []string {
	return []string{s.UserIDAttribute, s.UserAccountAttribute}
}
