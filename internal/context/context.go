// Package context carries the per-invocation runtime bindings (resolved
// configuration) on the cobra command context, so commands never reach for
// globals.
package context

import (
	"context"

	"github.com/spf13/cobra"

	v1 "groupsync.dev/cli/internal/configuration/v1"
)

type key struct{}

// Bindings is the immutable runtime state established by the pre-run hook.
type Bindings struct {
	config *v1.Config
}

func (b *Bindings) Configuration() *v1.Config {
	if b == nil {
		return nil
	}
	return b.config
}

// Register attaches the bindings to the command's context.
func Register(cmd *cobra.Command, cfg *v1.Config) {
	cmd.SetContext(context.WithValue(cmd.Context(), key{}, &Bindings{config: cfg}))
}

// FromContext returns the bindings, or nil when the pre-run hook did not run.
func FromContext(ctx context.Context) *Bindings {
	bindings, _ := ctx.Value(key{}).(*Bindings)
	return bindings
}
