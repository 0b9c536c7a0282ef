package cmd

import (
	"github.com/spf13/pflag"
)

const (
	// FlagQuerySlot Flag selecting which attribute slot (1-15) holds a group's membership query.
	FlagQuerySlot = "query-slot"
	// FlagFilterSlot Flag selecting the attribute slot holding the optional secondary filter.
	FlagFilterSlot = "filter-slot"
	// FlagScopeSlot Flag selecting the attribute slot holding the optional user-search-scope override.
	FlagScopeSlot = "scope-slot"
	// FlagGroupBase Flag overriding the subtree searched for groups.
	FlagGroupBase = "group-base"
	// FlagUserBase Flag overriding the default subtree searched for candidate users.
	FlagUserBase = "user-base"
	// FlagGroup Flag restricting the run to a single named group.
	FlagGroup = "group"
	// FlagServer Flag overriding the directory server URL from the config file.
	FlagServer = "server"
	// FlagTimeout Flag overriding the per-call directory timeout.
	FlagTimeout = "timeout"
	// FlagOutput Flag selecting the output format.
	FlagOutput = "output"
	// FlagDryRun Flag computing changes without applying any mutation.
	FlagDryRun = "dry-run"
	// FlagConfirm Flag asking for confirmation before every individual mutation.
	FlagConfirm = "confirm"
	// FlagConcurrency Flag bounding how many groups reconcile in parallel.
	FlagConcurrency = "concurrency"
	// FlagStrict Flag failing the command when any group failed to reconcile.
	FlagStrict = "strict"
)

// RegisterDirectoryFlags adds the flags shared by every command that talks
// to the directory.
func RegisterDirectoryFlags(flags *pflag.FlagSet) {
	flags.Int(FlagQuerySlot, 0, "attribute slot (1-15) holding the membership query (required)")
	flags.Int(FlagFilterSlot, 0, "attribute slot (1-15) holding the optional secondary filter")
	flags.Int(FlagScopeSlot, 0, "attribute slot (1-15) holding the optional user-search-scope override")
	flags.String(FlagGroupBase, "", "subtree searched for groups (overrides the config file)")
	flags.String(FlagUserBase, "", "default subtree searched for candidate users (overrides the config file)")
	flags.String(FlagGroup, "", "restrict the run to the group with this name")
	flags.String(FlagServer, "", "directory server URL (overrides the config file)")
	flags.Duration(FlagTimeout, 0, "per-call directory timeout (overrides the config file)")
}
