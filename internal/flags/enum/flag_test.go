package enum

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Var(flags, "output", []string{"none", "table", "json"}, "output format")

	t.Run("defaults to first value", func(t *testing.T) {
		value, err := Get(flags, "output")
		require.NoError(t, err)
		assert.Equal(t, "none", value)
	})

	t.Run("accepts allowed value", func(t *testing.T) {
		require.NoError(t, flags.Set("output", "json"))
		value, err := Get(flags, "output")
		require.NoError(t, err)
		assert.Equal(t, "json", value)
	})

	t.Run("rejects unknown value", func(t *testing.T) {
		err := flags.Set("output", "xml")
		assert.ErrorContains(t, err, "must be one of")
	})

	t.Run("undefined flag", func(t *testing.T) {
		_, err := Get(flags, "missing")
		assert.Error(t, err)
	})
}
