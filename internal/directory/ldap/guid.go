package ldap

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
)

// guidString renders a raw 16-byte objectGUID in its canonical textual form.
// Active Directory stores the first three GUID fields little-endian, so the
// bytes have to be swapped before the standard rendering applies.
func guidString(raw []byte) string {
	var b [16]byte
	copy(b[:], raw)
	b[0], b[1], b[2], b[3] = raw[3], raw[2], raw[1], raw[0]
	b[4], b[5] = raw[5], raw[4]
	b[6], b[7] = raw[7], raw[6]
	id, err := uuid.FromBytes(b[:])
	if err != nil {
		// Unreachable for 16-byte input, but keep the raw form rather
		// than an empty identifier.
		return fmt.Sprintf("%x", raw)
	}
	return id.String()
}

// domainRoot reduces a DN to its domain components, e.g.
// "CN=g,OU=Groups,DC=example,DC=com" to "DC=example,DC=com".
func domainRoot(dn string) (string, error) {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("parsing DN %q failed: %w", dn, err)
	}
	var parts []string
	for _, rdn := range parsed.RDNs {
		for _, attr := range rdn.Attributes {
			if strings.EqualFold(attr.Type, "DC") {
				parts = append(parts, fmt.Sprintf("DC=%s", attr.Value))
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("DN %q has no domain components", dn)
	}
	return strings.Join(parts, ","), nil
}

// dialerFromContext builds a net.Dialer honoring both the per-call timeout
// and any earlier context deadline.
func dialerFromContext(ctx context.Context, timeout time.Duration) *net.Dialer {
	dialer := &net.Dialer{Timeout: timeout}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			dialer.Timeout = remaining
		}
	}
	return dialer
}
