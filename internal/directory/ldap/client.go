// Package ldap implements directory.Client on top of go-ldap. One client
// holds one authenticated connection for the lifetime of a run; the
// connection is mutex-guarded so the engine may process groups concurrently.
package ldap

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"

	"groupsync.dev/cli/internal/directory"
)

const defaultTimeout = 30 * time.Second

// Options configures the connection to one directory server.
type Options struct {
	// Server is the directory server URL, e.g. "ldaps://dc1.example.com:636".
	Server string

	// BindDN and BindPassword authenticate the run. Empty BindDN performs an
	// anonymous bind.
	BindDN       string
	BindPassword string

	// StartTLS upgrades a plain ldap:// connection before binding.
	StartTLS bool

	// Timeout bounds every directory call. Zero means 30s.
	Timeout time.Duration

	// Schema maps groupsync's attribute roles onto server attribute names.
	Schema directory.Schema
}

// Client is a directory.Client backed by a single LDAP connection.
type Client struct {
	mu      sync.Mutex
	conn    *ldap.Conn
	schema  directory.Schema
	timeout time.Duration
}

var _ directory.Client = (*Client)(nil)

// Connect dials the server and binds. Any failure here is a setup failure:
// the caller aborts the whole run, no group has been touched yet.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	if opts.Server == "" {
		return nil, fmt.Errorf("no directory server configured")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	conn, err := ldap.DialURL(opts.Server, ldap.DialWithDialer(dialerFromContext(ctx, timeout)))
	if err != nil {
		return nil, fmt.Errorf("dialing directory server %q failed: %w", opts.Server, err)
	}
	conn.SetTimeout(timeout)

	if opts.StartTLS {
		if err := conn.StartTLS(&tls.Config{MinVersion: tls.VersionTLS12}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("STARTTLS negotiation with %q failed: %w", opts.Server, err)
		}
	}

	if opts.BindDN != "" {
		if err := conn.Bind(opts.BindDN, opts.BindPassword); err != nil {
			conn.Close()
			return nil, fmt.Errorf("binding as %q failed: %w", opts.BindDN, err)
		}
	} else if err := conn.UnauthenticatedBind(""); err != nil {
		conn.Close()
		return nil, fmt.Errorf("anonymous bind failed: %w", err)
	}

	return &Client{conn: conn, schema: opts.Schema, timeout: timeout}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) SearchGroups(ctx context.Context, base, filter string, attrs []string) ([]directory.Group, error) {
	loaded := append([]string{c.schema.GroupNameAttribute}, attrs...)
	entries, err := c.search(ctx, base, filter, loaded)
	if err != nil {
		return nil, err
	}
	groups := make([]directory.Group, 0, len(entries))
	for _, entry := range entries {
		groups = append(groups, directory.Group{
			DN:         entry.DN,
			Name:       entry.GetAttributeValue(c.schema.GroupNameAttribute),
			Attributes: attributeBag(entry),
		})
	}
	return groups, nil
}

func (c *Client) SearchUsers(ctx context.Context, base, filter string, attrs []string) ([]directory.User, error) {
	loaded := append(c.schema.IdentityAttributes(), attrs...)
	entries, err := c.search(ctx, base, filter, loaded)
	if err != nil {
		return nil, err
	}
	users := make([]directory.User, 0, len(entries))
	for _, entry := range entries {
		users = append(users, c.userFromEntry(entry))
	}
	return users, nil
}

func (c *Client) GroupMembers(ctx context.Context, group directory.Group) ([]directory.User, error) {
	// Members are resolved through the memberOf back-link so one search
	// yields fully populated user entries instead of bare DNs. The search
	// runs from the domain root because members may live outside the
	// default user subtree.
	base, err := domainRoot(group.DN)
	if err != nil {
		return nil, fmt.Errorf("determining search base for members of %q failed: %w", group.Name, err)
	}
	return c.SearchUsers(ctx, base, c.schema.MembersFilter(group.DN), nil)
}

func (c *Client) AddMember(ctx context.Context, group directory.Group, user directory.User) error {
	req := ldap.NewModifyRequest(group.DN, nil)
	req.Add(c.schema.MemberAttribute, []string{user.DN})
	if err := c.modify(ctx, req); err != nil {
		return fmt.Errorf("adding %q to %q failed: %w", user.AccountName, group.Name, err)
	}
	return nil
}

func (c *Client) RemoveMember(ctx context.Context, group directory.Group, user directory.User) error {
	req := ldap.NewModifyRequest(group.DN, nil)
	req.Delete(c.schema.MemberAttribute, []string{user.DN})
	if err := c.modify(ctx, req); err != nil {
		return fmt.Errorf("removing %q from %q failed: %w", user.AccountName, group.Name, err)
	}
	return nil
}

func (c *Client) AttributeNames(ctx context.Context, base string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := ldap.NewSearchRequest(
		base, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		1, int(c.timeout.Seconds()), false,
		c.schema.UserClassFilter, []string{"*"}, nil,
	)
	c.mu.Lock()
	res, err := c.conn.Search(req)
	c.mu.Unlock()
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return nil, fmt.Errorf("sampling user attributes under %q failed: %w", base, err)
	}
	if res == nil || len(res.Entries) == 0 {
		return nil, fmt.Errorf("no user entry found under %q to sample attributes from", base)
	}
	entry := res.Entries[0]
	names := make([]string, 0, len(entry.Attributes))
	for _, attr := range entry.Attributes {
		names = append(names, attr.Name)
	}
	return names, nil
}

// search runs one subtree search. A filter go-ldap cannot compile is reported
// as directory.ErrInvalidQuery so the engine can classify it per group.
func (c *Client) search(ctx context.Context, base, filter string, attrs []string) ([]*ldap.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := ldap.CompileFilter(filter); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", directory.ErrInvalidQuery, filter, err)
	}
	req := ldap.NewSearchRequest(
		base, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		0, int(c.timeout.Seconds()), false,
		filter, attrs, nil,
	)
	c.mu.Lock()
	res, err := c.conn.Search(req)
	c.mu.Unlock()
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.ErrorFilterCompile) {
			return nil, fmt.Errorf("%w: %q: %v", directory.ErrInvalidQuery, filter, err)
		}
		return nil, fmt.Errorf("searching %q under %q failed: %w", filter, base, err)
	}
	return res.Entries, nil
}

func (c *Client) modify(ctx context.Context, req *ldap.ModifyRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Modify(req)
}

func (c *Client) userFromEntry(entry *ldap.Entry) directory.User {
	id := entry.GetAttributeValue(c.schema.UserIDAttribute)
	if raw := entry.GetRawAttributeValue(c.schema.UserIDAttribute); len(raw) == 16 {
		id = guidString(raw)
	}
	return directory.User{
		DN:          entry.DN,
		ID:          id,
		AccountName: entry.GetAttributeValue(c.schema.UserAccountAttribute),
		Attributes:  attributeBag(entry),
	}
}

func attributeBag(entry *ldap.Entry) directory.Attributes {
	bag := make(directory.Attributes, len(entry.Attributes))
	for _, attr := range entry.Attributes {
		bag[attr.Name] = attr.Values
	}
	return bag
}
