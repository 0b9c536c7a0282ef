package ldap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuidString(t *testing.T) {
	// The first three fields are stored little-endian on the wire.
	raw := []byte{
		0x04, 0x03, 0x02, 0x01,
		0x06, 0x05,
		0x08, 0x07,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
	}
	assert.Equal(t, "01020304-0506-0708-090a-0b0c0d0e0f10", guidString(raw))
}

func TestDomainRoot(t *testing.T) {
	root, err := domainRoot("CN=role-sales,OU=Groups,DC=example,DC=com")
	require.NoError(t, err)
	assert.Equal(t, "DC=example,DC=com", root)

	_, err = domainRoot("CN=role-sales,OU=Groups")
	assert.Error(t, err, "a DN without domain components has no root")
}
