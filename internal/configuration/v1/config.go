// Package v1 holds the groupsync configuration file format.
package v1

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"

	"groupsync.dev/cli/internal/directory"
)

const (
	// ConfigType identifies this configuration format.
	ConfigType = "config.groupsync.dev/v1"
)

// Config is the groupsync configuration file.
type Config struct {
	Type      string    `json:"type"`
	Directory Directory `json:"directory"`
	Schema    Schema    `json:"schema,omitempty"`
}

// Directory configures the connection to the directory server and the
// default search bases.
type Directory struct {
	// Server is the directory server URL, e.g. "ldaps://dc1.example.com:636".
	Server string `json:"server,omitempty"`

	// BindDN authenticates the run. Empty means anonymous bind.
	BindDN string `json:"bindDN,omitempty"`

	// BindPasswordEnv names the environment variable holding the bind
	// password. Passwords never live in the file itself.
	BindPasswordEnv string `json:"bindPasswordEnv,omitempty"`

	// StartTLS upgrades a plain ldap:// connection before binding.
	StartTLS bool `json:"startTLS,omitempty"`

	// RequestTimeout bounds every directory call.
	RequestTimeout Duration `json:"requestTimeout,omitempty"`

	// GroupBase and UserBase are the default search subtrees.
	GroupBase string `json:"groupBase,omitempty"`
	UserBase  string `json:"userBase,omitempty"`
}

// Schema overrides the Active Directory attribute mapping defaults. Empty
// fields keep the default.
type Schema struct {
	QueryAttributeFormat string `json:"queryAttributeFormat,omitempty"`
	GroupNameAttribute   string `json:"groupNameAttribute,omitempty"`
	UserIDAttribute      string `json:"userIDAttribute,omitempty"`
	UserAccountAttribute string `json:"userAccountAttribute,omitempty"`
	GroupClassFilter     string `json:"groupClassFilter,omitempty"`
	UserClassFilter      string `json:"userClassFilter,omitempty"`
	MemberAttribute      string `json:"memberAttribute,omitempty"`
	MemberOfAttribute    string `json:"memberOfAttribute,omitempty"`
}

// Duration is a time.Duration that unmarshals from its string form.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// DefaultPath is the config location used when --config is not given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "groupsync", "config.yaml")
}

// Load reads and validates a config file. A missing file at the default
// location yields an empty config; a missing explicitly named file is an
// error.
func Load(path string, explicit bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{Type: ConfigType}, nil
		}
		return nil, fmt.Errorf("reading config %q failed: %w", path, err)
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q failed: %w", path, err)
	}
	if cfg.Type != "" && cfg.Type != ConfigType {
		return nil, fmt.Errorf("config %q has unsupported type %q, want %q", path, cfg.Type, ConfigType)
	}
	return &cfg, nil
}

// BindPassword resolves the bind password from the configured environment
// variable.
func (c *Config) BindPassword() (string, error) {
	if c.Directory.BindPasswordEnv == "" {
		return "", nil
	}
	password, ok := os.LookupEnv(c.Directory.BindPasswordEnv)
	if !ok {
		return "", fmt.Errorf("environment variable %q named by bindPasswordEnv is not set", c.Directory.BindPasswordEnv)
	}
	return password, nil
}

// DirectorySchema merges the file's schema overrides over the Active
// Directory defaults.
func (c *Config) DirectorySchema() directory.Schema {
	schema := directory.DefaultSchema()
	if c.Schema.QueryAttributeFormat != "" {
		schema.QueryAttributeFormat = c.Schema.QueryAttributeFormat
	}
	if c.Schema.GroupNameAttribute != "" {
		schema.GroupNameAttribute = c.Schema.GroupNameAttribute
	}
	if c.Schema.UserIDAttribute != "" {
		schema.UserIDAttribute = c.Schema.UserIDAttribute
	}
	if c.Schema.UserAccountAttribute != "" {
		schema.UserAccountAttribute = c.Schema.UserAccountAttribute
	}
	if c.Schema.GroupClassFilter != "" {
		schema.GroupClassFilter = c.Schema.GroupClassFilter
	}
	if c.Schema.UserClassFilter != "" {
		schema.UserClassFilter = c.Schema.UserClassFilter
	}
	if c.Schema.MemberAttribute != "" {
		schema.MemberAttribute = c.Schema.MemberAttribute
	}
	if c.Schema.MemberOfAttribute != "" {
		schema.MemberOfAttribute = c.Schema.MemberOfAttribute
	}
	return schema
}
