package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/smith-xyz/cairo-flowscan/pkg/models"
	"github.com/smith-xyz/cairo-flowscan/pkg/utils"
)

// Embedded default configuration
// Use 'go generate ./pkg/config' to update from root config.toml
//
//go:generate cp ../../config.toml default_config.toml
//go:embed default_config.toml
var embeddedConfigData []byte

// Style table roles that are not decorators
const (
	RoleDefault    = "default"
	RoleEntryPoint = "entrypoint"
	RoleImport     = "import"
)

// Decorators recognized by the call-flow graph, in no particular order
var Decorators = []string{
	"constructor",
	"l1_handler",
	"external",
	"view",
	"raw_input",
	"raw_output",
	"known_ap_change",
}

// ErrMissingStyle is returned when the style table lacks a required role
var ErrMissingStyle = errors.New("missing call-flow style")

// Config holds the application configuration.
type Config struct {
	CallFlow  CallFlowConfig `toml:"callflow"`
	Detectors DetectorConfig `toml:"detectors"`
	Neo4j     Neo4jConfig    `toml:"neo4j"`
}

// CallFlowConfig holds rendering options and the node style table.
type CallFlowConfig struct {
	Format    string                      `toml:"format"`
	Directory string                      `toml:"directory"`
	GraphAttr map[string]string           `toml:"graph_attr"`
	NodeAttr  map[string]string           `toml:"node_attr"`
	EdgeAttr  map[string]string           `toml:"edge_attr"`
	Styles    map[string]models.NodeStyle `toml:"styles"`
}

// DetectorConfig selects detectors by argument key.
type DetectorConfig struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// Neo4jConfig holds connection settings for graph export.
type Neo4jConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// DefaultConfig returns the default configuration with optional local overrides.
// It always starts with the embedded config, then optionally replaces it with a local file.
func DefaultConfig() (*Config, error) {
	var config Config
	if err := toml.Unmarshal(embeddedConfigData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedded config: %w", err)
	}

	localConfigPaths := []string{
		"cairo-flowscan.toml",
		"config.toml",
	}

	for _, path := range localConfigPaths {
		if utils.FileExists(path) {
			localConfig, err := LoadFromFile(path)
			if err != nil {
				// Log warning but continue with embedded config
				fmt.Fprintf(os.Stderr, "Warning: failed to load local config %s: %v\n", path, err)
				break
			}
			return localConfig, nil
		}
	}

	config.applyEnv()
	return &config, nil
}

// LoadFromFile loads configuration from a TOML file and validates it.
func LoadFromFile(filepath string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(filepath, &config); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", filepath, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filepath, err)
	}
	config.applyEnv()
	return &config, nil
}

// Validate checks that every style role the call-flow builder may look up is present.
func (c *Config) Validate() error {
	for _, role := range StyleRoles() {
		if _, ok := c.CallFlow.Styles[role]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingStyle, role)
		}
	}
	return nil
}

// StyleRoles lists every key the style table must define.
func StyleRoles() []string {
	roles := []string{RoleDefault, RoleEntryPoint, RoleImport}
	return append(roles, Decorators...)
}

// IsRecognizedDecorator checks if a decorator has a configurable style.
func IsRecognizedDecorator(decorator string) bool {
	for _, d := range Decorators {
		if d == decorator {
			return true
		}
	}
	return false
}

func (c *Config) applyEnv() {
	if password := os.Getenv("NEO4J_PASSWORD"); password != "" {
		c.Neo4j.Password = password
	}
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		c.Neo4j.URI = uri
	}
}
