package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	gsctx "groupsync.dev/cli/internal/context"
	"groupsync.dev/cli/internal/directory"
	ldapdir "groupsync.dev/cli/internal/directory/ldap"
	"groupsync.dev/cli/internal/engine"
)

// Runtime is the merged result of the config file and the directory flags,
// resolved once per command invocation and immutable afterwards.
type Runtime struct {
	Schema       directory.Schema
	Slots        engine.Slots
	GroupBase    string
	UserBase     string
	GroupsFilter string

	connect ldapdir.Options
}

// NewRuntime resolves flags against the loaded configuration. Flags win.
func NewRuntime(cmd *cobra.Command) (*Runtime, error) {
	bindings := gsctx.FromContext(cmd.Context())
	cfg := bindings.Configuration()
	if cfg == nil {
		return nil, fmt.Errorf("configuration was not initialized")
	}
	schema := cfg.DirectorySchema()

	querySlot, err := cmd.Flags().GetInt(FlagQuerySlot)
	if err != nil {
		return nil, fmt.Errorf("getting %s flag failed: %w", FlagQuerySlot, err)
	}
	queryAttr, err := schema.SlotAttribute(querySlot)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", FlagQuerySlot, err)
	}
	slots := engine.Slots{Query: queryAttr}

	if slots.Filter, err = optionalSlotAttribute(cmd, schema, FlagFilterSlot); err != nil {
		return nil, err
	}
	if slots.Scope, err = optionalSlotAttribute(cmd, schema, FlagScopeSlot); err != nil {
		return nil, err
	}

	groupBase, err := flagOrConfig(cmd, FlagGroupBase, cfg.Directory.GroupBase)
	if err != nil {
		return nil, err
	}
	if groupBase == "" {
		return nil, fmt.Errorf("no group search base configured, set --%s or directory.groupBase", FlagGroupBase)
	}
	userBase, err := flagOrConfig(cmd, FlagUserBase, cfg.Directory.UserBase)
	if err != nil {
		return nil, err
	}
	if userBase == "" {
		return nil, fmt.Errorf("no user search base configured, set --%s or directory.userBase", FlagUserBase)
	}

	groupName, err := cmd.Flags().GetString(FlagGroup)
	if err != nil {
		return nil, fmt.Errorf("getting %s flag failed: %w", FlagGroup, err)
	}
	groupsFilter := schema.EligibleGroupsFilter(queryAttr)
	if groupName != "" {
		groupsFilter = schema.GroupByNameFilter(queryAttr, groupName)
	}

	server, err := flagOrConfig(cmd, FlagServer, cfg.Directory.Server)
	if err != nil {
		return nil, err
	}
	timeout, err := cmd.Flags().GetDuration(FlagTimeout)
	if err != nil {
		return nil, fmt.Errorf("getting %s flag failed: %w", FlagTimeout, err)
	}
	if timeout <= 0 {
		timeout = time.Duration(cfg.Directory.RequestTimeout)
	}
	password, err := cfg.BindPassword()
	if err != nil {
		return nil, err
	}

	return &Runtime{
		Schema:       schema,
		Slots:        slots,
		GroupBase:    groupBase,
		UserBase:     userBase,
		GroupsFilter: groupsFilter,
		connect: ldapdir.Options{
			Server:       server,
			BindDN:       cfg.Directory.BindDN,
			BindPassword: password,
			StartTLS:     cfg.Directory.StartTLS,
			Timeout:      timeout,
			Schema:       schema,
		},
	}, nil
}

// Connect establishes the directory session for the run. Failures here are
// setup failures: the command aborts before any group is processed.
func (r *Runtime) Connect(ctx context.Context) (*ldapdir.Client, error) {
	return ldapdir.Connect(ctx, r.connect)
}

// SlotAttributes lists the group attributes the run needs loaded.
func (r *Runtime) SlotAttributes() []string {
	attrs := []string{r.Slots.Query}
	if r.Slots.Filter != "" {
		attrs = append(attrs, r.Slots.Filter)
	}
	if r.Slots.Scope != "" {
		attrs = append(attrs, r.Slots.Scope)
	}
	return attrs
}

func optionalSlotAttribute(cmd *cobra.Command, schema directory.Schema, flagName string) (string, error) {
	slot, err := cmd.Flags().GetInt(flagName)
	if err != nil {
		return "", fmt.Errorf("getting %s flag failed: %w", flagName, err)
	}
	if slot == 0 {
		return "", nil
	}
	attr, err := schema.SlotAttribute(slot)
	if err != nil {
		return "", fmt.Errorf("--%s: %w", flagName, err)
	}
	return attr, nil
}

func flagOrConfig(cmd *cobra.Command, flagName, configValue string) (string, error) {
	value, err := cmd.Flags().GetString(flagName)
	if err != nil {
		return "", fmt.Errorf("getting %s flag failed: %w", flagName, err)
	}
	if value != "" {
		return value, nil
	}
	return configValue, nil
}
