// Package render encodes groupsync command output in the supported formats.
package render

import (
	"fmt"
	"slices"
)

// OutputFormat selects how command output is encoded.
type OutputFormat string

const (
	// OutputFormatNone suppresses output entirely. It is the sync command's
	// default: change records are pass-through output and opt-in.
	OutputFormatNone   OutputFormat = "none"
	OutputFormatTable  OutputFormat = "table"
	OutputFormatJSON   OutputFormat = "json"
	OutputFormatNDJSON OutputFormat = "ndjson"
	OutputFormatYAML   OutputFormat = "yaml"
)

func (f OutputFormat) String() string {
	return string(f)
}

// ParseOutputFormat validates a flag value against the given formats.
func ParseOutputFormat(value string, allowed ...OutputFormat) (OutputFormat, error) {
	if slices.Contains(allowed, OutputFormat(value)) {
		return OutputFormat(value), nil
	}
	return "", fmt.Errorf("invalid output format %q", value)
}
