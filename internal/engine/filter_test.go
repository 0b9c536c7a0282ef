package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupsync.dev/cli/internal/directory"
)

var knownAttrs = []string{"department", "office", "title", "proxyAddresses"}

func userWithAttrs(attrs directory.Attributes) directory.User {
	return directory.User{ID: "1", AccountName: "john.doe", Attributes: attrs}
}

func TestCompileFilter(t *testing.T) {
	t.Run("equality match", func(t *testing.T) {
		pred, err := CompileFilter(`office == 'Berlin'`, knownAttrs)
		require.NoError(t, err)

		ok, err := pred(userWithAttrs(directory.Attributes{"office": {"Berlin"}}))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = pred(userWithAttrs(directory.Attributes{"office": {"Hamburg"}}))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing attribute evaluates false, not error", func(t *testing.T) {
		pred, err := CompileFilter(`office == 'Berlin'`, knownAttrs)
		require.NoError(t, err)

		ok, err := pred(userWithAttrs(directory.Attributes{}))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("logical operators short-circuit over bindings", func(t *testing.T) {
		pred, err := CompileFilter(`department == 'sales' && office != 'Berlin'`, knownAttrs)
		require.NoError(t, err)

		ok, err := pred(userWithAttrs(directory.Attributes{"department": {"sales"}, "office": {"Hamburg"}}))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = pred(userWithAttrs(directory.Attributes{"department": {"support"}}))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("negation", func(t *testing.T) {
		pred, err := CompileFilter(`!(department == 'sales')`, knownAttrs)
		require.NoError(t, err)

		ok, err := pred(userWithAttrs(directory.Attributes{"department": {"support"}}))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("multi-valued attribute binds as list", func(t *testing.T) {
		pred, err := CompileFilter(`'smtp:jd@example.com' in proxyAddresses`, knownAttrs)
		require.NoError(t, err)

		ok, err := pred(userWithAttrs(directory.Attributes{
			"proxyAddresses": {"smtp:jd@example.com", "smtp:john.doe@example.com"},
		}))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("attribute name matching is case-insensitive at lookup", func(t *testing.T) {
		pred, err := CompileFilter(`office == 'Berlin'`, knownAttrs)
		require.NoError(t, err)

		ok, err := pred(userWithAttrs(directory.Attributes{"Office": {"Berlin"}}))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("malformed expression fails to compile", func(t *testing.T) {
		_, err := CompileFilter(`office == `, knownAttrs)
		require.Error(t, err)
	})

	t.Run("unknown attribute reference fails to compile", func(t *testing.T) {
		_, err := CompileFilter(`badge == '42'`, knownAttrs)
		require.Error(t, err)
	})

	t.Run("non-boolean expression is rejected", func(t *testing.T) {
		_, err := CompileFilter(`'just a string'`, knownAttrs)
		require.Error(t, err)
	})
}

func TestReferencedAttributes(t *testing.T) {
	refs := referencedAttributes(`department == 'sales' && (office == 'Berlin' || office == 'Hamburg')`, knownAttrs)
	assert.Equal(t, []string{"department", "office"}, refs)

	refs = referencedAttributes(`true`, knownAttrs)
	assert.Empty(t, refs)
}
