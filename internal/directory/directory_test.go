package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributes(t *testing.T) {
	attrs := Attributes{
		"department":     {"sales"},
		"proxyAddresses": {"smtp:a@example.com", "smtp:b@example.com"},
	}

	t.Run("exact name", func(t *testing.T) {
		assert.Equal(t, "sales", attrs.First("department"))
		assert.Equal(t, []string{"smtp:a@example.com", "smtp:b@example.com"}, attrs.Values("proxyAddresses"))
	})

	t.Run("case-insensitive fallback", func(t *testing.T) {
		assert.Equal(t, "sales", attrs.First("Department"))
		assert.True(t, attrs.Has("PROXYADDRESSES"))
	})

	t.Run("absent attribute", func(t *testing.T) {
		assert.Empty(t, attrs.First("office"))
		assert.Nil(t, attrs.Values("office"))
		assert.False(t, attrs.Has("office"))
	})
}
