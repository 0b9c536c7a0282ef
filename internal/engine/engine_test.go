package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupsync.dev/cli/internal/directory"
)

// fakeClient implements directory.Client against in-memory fixtures. Filters
// are matched literally against the fixture keys; group mutations update the
// member map so reruns observe applied changes.
type fakeClient struct {
	mu sync.Mutex

	groups        []directory.Group
	usersByFilter map[string][]directory.User
	members       map[string][]directory.User
	attrNames     []string

	failAdd    map[string]error // keyed by account name
	failRemove map[string]error

	addCalls    []string
	removeCalls []string
	searchAttrs [][]string
}

func (f *fakeClient) SearchGroups(_ context.Context, _, filter string, _ []string) ([]directory.Group, error) {
	return f.groups, nil
}

func (f *fakeClient) SearchUsers(_ context.Context, base, filter string, attrs []string) ([]directory.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchAttrs = append(f.searchAttrs, attrs)
	users, ok := f.usersByFilter[filter]
	if !ok {
		return nil, fmt.Errorf("%w: %q", directory.ErrInvalidQuery, filter)
	}
	return append([]directory.User(nil), users...), nil
}

func (f *fakeClient) GroupMembers(_ context.Context, group directory.Group) ([]directory.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]directory.User(nil), f.members[group.DN]...), nil
}

func (f *fakeClient) AddMember(_ context.Context, group directory.Group, user directory.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls = append(f.addCalls, user.AccountName)
	if err := f.failAdd[user.AccountName]; err != nil {
		return err
	}
	f.members[group.DN] = append(f.members[group.DN], user)
	return nil
}

func (f *fakeClient) RemoveMember(_ context.Context, group directory.Group, user directory.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls = append(f.removeCalls, user.AccountName)
	if err := f.failRemove[user.AccountName]; err != nil {
		return err
	}
	members := f.members[group.DN]
	kept := members[:0]
	for _, member := range members {
		if member.ID != user.ID {
			kept = append(kept, member)
		}
	}
	f.members[group.DN] = kept
	return nil
}

func (f *fakeClient) AttributeNames(_ context.Context, _ string) ([]string, error) {
	return f.attrNames, nil
}

var testSchema = directory.DefaultSchema()

func salesGroup() directory.Group {
	return directory.Group{
		DN:   "CN=role-department-sales,OU=Groups,DC=example,DC=com",
		Name: "role-department-sales",
		Attributes: directory.Attributes{
			"extensionAttribute1": {"(department=sales)"},
		},
	}
}

func salesFixture() *fakeClient {
	group := salesGroup()
	johnDoe := directory.User{DN: "CN=john.doe,OU=Users,DC=example,DC=com", ID: "guid-john", AccountName: "john.doe"}
	samSmith := directory.User{DN: "CN=sam.smith,OU=Users,DC=example,DC=com", ID: "guid-sam", AccountName: "sam.smith"}
	tomTonkins := directory.User{DN: "CN=tom.tonkins,OU=Users,DC=example,DC=com", ID: "guid-tom", AccountName: "tom.tonkins"}

	return &fakeClient{
		groups: []directory.Group{group},
		usersByFilter: map[string][]directory.User{
			testSchema.UserQueryFilter("(department=sales)"): {samSmith, johnDoe},
		},
		members: map[string][]directory.User{
			group.DN: {tomTonkins},
		},
	}
}

func defaultOptions() Options {
	return Options{
		GroupBase:    "OU=Groups,DC=example,DC=com",
		UserBase:     "OU=Users,DC=example,DC=com",
		GroupsFilter: testSchema.EligibleGroupsFilter("extensionAttribute1"),
		Slots:        Slots{Query: "extensionAttribute1"},
		Schema:       testSchema,
	}
}

func TestRunReconcilesScenario(t *testing.T) {
	client := salesFixture()
	results, err := New(client, defaultOptions()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	require.NoError(t, result.Err)
	require.NoError(t, result.MemberErr)
	assert.Equal(t, "role-department-sales", result.Group)
	assert.Equal(t, "(department=sales)", result.Query)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 1, result.Removed)

	// Adds sorted by account name, before removes.
	require.Len(t, result.Changes, 3)
	assert.Equal(t, Change{Group: "role-department-sales", Query: "(department=sales)", User: "john.doe", Action: ActionAdd}, result.Changes[0])
	assert.Equal(t, Change{Group: "role-department-sales", Query: "(department=sales)", User: "sam.smith", Action: ActionAdd}, result.Changes[1])
	assert.Equal(t, Change{Group: "role-department-sales", Query: "(department=sales)", User: "tom.tonkins", Action: ActionRemove}, result.Changes[2])

	assert.Equal(t, []string{"john.doe", "sam.smith"}, client.addCalls)
	assert.Equal(t, []string{"tom.tonkins"}, client.removeCalls)
}

func TestRunIsIdempotent(t *testing.T) {
	client := salesFixture()
	engine := New(client, defaultOptions())

	first, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first[0].Changes, 3)

	second, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second[0].Changes, "second run with no external changes must be a no-op")
	assert.Zero(t, second[0].Added)
	assert.Zero(t, second[0].Removed)
}

func TestRunSetEquivalenceAfterReconciliation(t *testing.T) {
	client := salesFixture()
	_, err := New(client, defaultOptions()).Run(context.Background())
	require.NoError(t, err)

	memberIDs := map[string]struct{}{}
	for _, member := range client.members[salesGroup().DN] {
		memberIDs[member.ID] = struct{}{}
	}
	assert.Equal(t, map[string]struct{}{"guid-john": {}, "guid-sam": {}}, memberIDs)
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	client := salesFixture()
	opts := defaultOptions()
	opts.DryRun = true

	results, err := New(client, opts).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, client.addCalls, "dry-run must not call the directory")
	assert.Empty(t, client.removeCalls, "dry-run must not call the directory")

	// The computed changes are identical to a real run.
	require.Len(t, results[0].Changes, 3)
	assert.Equal(t, 2, results[0].Added)
	assert.Equal(t, 1, results[0].Removed)
}

func TestRunIsolatesFailingGroups(t *testing.T) {
	broken := directory.Group{
		DN:   "CN=role-broken,OU=Groups,DC=example,DC=com",
		Name: "role-broken",
		Attributes: directory.Attributes{
			"extensionAttribute1": {"(department=sales"}, // unbalanced
		},
	}
	client := salesFixture()
	client.groups = append(client.groups, broken)

	results, err := New(client, defaultOptions()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Deterministic order: sorted by group name.
	require.Equal(t, "role-broken", results[0].Group)
	require.Equal(t, "role-department-sales", results[1].Group)

	assert.ErrorIs(t, results[0].Err, directory.ErrInvalidQuery)
	assert.True(t, results[1].OK(), "sibling group must still reconcile")
	assert.Len(t, results[1].Changes, 3)
}

func TestRunIsolatesMemberFailures(t *testing.T) {
	client := salesFixture()
	client.failAdd = map[string]error{"john.doe": fmt.Errorf("insufficient access rights")}

	results, err := New(client, defaultOptions()).Run(context.Background())
	require.NoError(t, err)

	result := results[0]
	assert.NoError(t, result.Err, "a member failure is not a group failure")
	assert.Error(t, result.MemberErr)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Added, "sibling mutations in the same group still attempt")
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, []string{"john.doe", "sam.smith"}, client.addCalls)
	assert.Equal(t, []string{"tom.tonkins"}, client.removeCalls)
}

func TestRunAppliesSecondaryFilter(t *testing.T) {
	group := salesGroup()
	group.Attributes["extensionAttribute2"] = []string{`office == 'Berlin'`}

	berlin := directory.User{ID: "guid-berlin", AccountName: "berlin.user",
		Attributes: directory.Attributes{"office": {"Berlin"}}}
	hamburg := directory.User{ID: "guid-hamburg", AccountName: "hamburg.user",
		Attributes: directory.Attributes{"office": {"Hamburg"}}}
	noOffice := directory.User{ID: "guid-nooffice", AccountName: "no.office",
		Attributes: directory.Attributes{}}

	client := &fakeClient{
		groups: []directory.Group{group},
		usersByFilter: map[string][]directory.User{
			testSchema.UserQueryFilter("(department=sales)"): {berlin, hamburg, noOffice},
		},
		members:   map[string][]directory.User{group.DN: {}},
		attrNames: []string{"department", "office", "sAMAccountName"},
	}

	opts := defaultOptions()
	opts.Slots.Filter = "extensionAttribute2"

	results, err := New(client, opts).Run(context.Background())
	require.NoError(t, err)

	result := results[0]
	require.NoError(t, result.Err)
	require.Len(t, result.Changes, 1, "users without the attribute are excluded, not errors")
	assert.Equal(t, "berlin.user", result.Changes[0].User)

	// Only the attributes the filter references are requested.
	require.NotEmpty(t, client.searchAttrs)
	assert.Equal(t, []string{"office"}, client.searchAttrs[0])
}

func TestRunMalformedSecondaryFilterFailsGroupOnly(t *testing.T) {
	group := salesGroup()
	group.Attributes["extensionAttribute2"] = []string{`office == `}

	client := salesFixture()
	client.groups = []directory.Group{group}
	client.attrNames = []string{"office"}

	opts := defaultOptions()
	opts.Slots.Filter = "extensionAttribute2"

	results, err := New(client, opts).Run(context.Background())
	require.NoError(t, err, "a malformed filter must not abort the batch")
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Empty(t, client.addCalls)
}

func TestRunScopeOverrideReplacesDefaultBase(t *testing.T) {
	group := salesGroup()
	group.Attributes["extensionAttribute3"] = []string{"OU=Sales,DC=example,DC=com"}

	var gotBase string
	client := salesFixture()
	client.groups = []directory.Group{group}

	// Wrap SearchUsers base capture through a probe client.
	probe := &baseCapturingClient{fakeClient: client, gotBase: &gotBase}

	opts := defaultOptions()
	opts.Slots.Scope = "extensionAttribute3"

	_, err := New(probe, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OU=Sales,DC=example,DC=com", gotBase)
}

type baseCapturingClient struct {
	*fakeClient
	gotBase *string
}

func (b *baseCapturingClient) SearchUsers(ctx context.Context, base, filter string, attrs []string) ([]directory.User, error) {
	*b.gotBase = base
	return b.fakeClient.SearchUsers(ctx, base, filter, attrs)
}

func TestRunConfirmDecline(t *testing.T) {
	client := salesFixture()
	opts := defaultOptions()

	var asked []Change
	opts.Confirm = func(change Change) (bool, error) {
		asked = append(asked, change)
		return change.Action == ActionRemove, nil
	}

	results, err := New(client, opts).Run(context.Background())
	require.NoError(t, err)

	result := results[0]
	assert.Len(t, asked, 3, "every mutation is confirmed individually")
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 1, result.Removed)
	assert.Empty(t, client.addCalls)
	assert.Equal(t, []string{"tom.tonkins"}, client.removeCalls)
}

func TestRunConcurrentGroupsKeepPerGroupResults(t *testing.T) {
	var groups []directory.Group
	usersByFilter := map[string][]directory.User{}
	members := map[string][]directory.User{}
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("role-%02d", i)
		group := directory.Group{
			DN:   fmt.Sprintf("CN=%s,OU=Groups,DC=example,DC=com", name),
			Name: name,
			Attributes: directory.Attributes{
				"extensionAttribute1": {fmt.Sprintf("(department=d%02d)", i)},
			},
		}
		groups = append(groups, group)
		usersByFilter[testSchema.UserQueryFilter(fmt.Sprintf("(department=d%02d)", i))] = []directory.User{
			{ID: fmt.Sprintf("guid-%02d", i), AccountName: fmt.Sprintf("user-%02d", i)},
		}
		members[group.DN] = nil
	}
	client := &fakeClient{groups: groups, usersByFilter: usersByFilter, members: members}

	opts := defaultOptions()
	opts.Concurrency = 4

	results, err := New(client, opts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 8)
	for i, result := range results {
		assert.Equal(t, fmt.Sprintf("role-%02d", i), result.Group, "results stay in deterministic group order")
		assert.Equal(t, 1, result.Added)
		assert.NotZero(t, result.Elapsed)
	}
}
