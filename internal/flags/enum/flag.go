// Package enum provides a pflag.Value restricted to a fixed set of values.
// The first listed value is the default.
package enum

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const Type = "enum"

// Flag is a pflag.Value accepting only one of its allowed values.
type Flag struct {
	value   string
	allowed []string
}

func (f *Flag) String() string {
	return f.value
}

func (f *Flag) Set(value string) error {
	for _, candidate := range f.allowed {
		if candidate == value {
			f.value = value
			return nil
		}
	}
	return fmt.Errorf("must be one of [%s], got %q", strings.Join(f.allowed, "|"), value)
}

func (f *Flag) Type() string {
	return Type
}

// Var registers an enum flag whose default is the first allowed value.
func Var(f *pflag.FlagSet, name string, values []string, usage string) {
	VarP(f, name, "", values, usage)
}

// VarP registers an enum flag with a shorthand.
func VarP(f *pflag.FlagSet, name, shorthand string, values []string, usage string) {
	flag := &Flag{value: values[0], allowed: values}
	f.VarP(flag, name, shorthand, fmt.Sprintf("%s (must be one of [%s])", usage, strings.Join(values, "|")))
}

// Get returns the current value of a registered enum flag.
func Get(f *pflag.FlagSet, name string) (string, error) {
	flag := f.Lookup(name)
	if flag == nil {
		return "", fmt.Errorf("flag accessed but not defined: %s", name)
	}
	if flag.Value.Type() != Type {
		return "", fmt.Errorf("trying to get %s value of flag of type %s", Type, flag.Value.Type())
	}
	return flag.Value.String(), nil
}
