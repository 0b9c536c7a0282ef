package engine

import (
	"fmt"
	"regexp"

	"github.com/google/cel-go/cel"

	"groupsync.dev/cli/internal/directory"
)

// Predicate decides whether a fetched user passes the secondary filter.
// Predicates never mutate the user and short-circuit the way the underlying
// CEL program does.
type Predicate func(directory.User) (bool, error)

var identTokens = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// CompileFilter turns an admin-authored boolean expression into a Predicate.
// The expression is CEL restricted to the attribute names in known: every
// token matching a known attribute name becomes a variable bound to that
// attribute's value at evaluation time. Attributes the user lacks bind to
// the empty string, so comparisons against them are false rather than
// errors. Single-valued attributes bind as string, multi-valued as a list
// of strings.
//
// A malformed expression is a compile error; the caller scopes it to the
// owning group.
func CompileFilter(expr string, known []string) (Predicate, error) {
	refs := referencedAttributes(expr, known)

	opts := make([]cel.EnvOption, 0, len(refs))
	for _, name := range refs {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("building filter environment failed: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compiling secondary filter %q failed: %w", expr, issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("secondary filter %q evaluates to %s, want bool", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building filter program for %q failed: %w", expr, err)
	}

	return func(user directory.User) (bool, error) {
		bindings := make(map[string]any, len(refs))
		for _, name := range refs {
			values := user.Attributes.Values(name)
			switch len(values) {
			case 0:
				bindings[name] = ""
			case 1:
				bindings[name] = values[0]
			default:
				bindings[name] = values
			}
		}
		result, _, err := program.Eval(bindings)
		if err != nil {
			return false, fmt.Errorf("evaluating secondary filter for %q failed: %w", user.AccountName, err)
		}
		matched, ok := result.Value().(bool)
		if !ok {
			return false, fmt.Errorf("secondary filter returned %T for %q, want bool", result.Value(), user.AccountName)
		}
		return matched, nil
	}, nil
}

// referencedAttributes scans the expression text for tokens that name known
// attributes. Scanning the text instead of the parsed AST matches how the
// attribute superset is sampled: names not present on the representative
// user are simply not bindable.
func referencedAttributes(expr string, known []string) []string {
	knownSet := make(map[string]struct{}, len(known))
	for _, name := range known {
		knownSet[name] = struct{}{}
	}
	seen := make(map[string]struct{})
	var refs []string
	for _, token := range identTokens.FindAllString(expr, -1) {
		if _, ok := knownSet[token]; !ok {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		refs = append(refs, token)
	}
	return refs
}
