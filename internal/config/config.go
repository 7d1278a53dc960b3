// Package config provides configuration management for the node:
// database locations, enabled optional features, log level, the trust
// anchor a node delegates from, this node's own key material, and the
// ports it serves on.
package config

import "github.com/nilnode/nildb/internal/identity"

// Config is the root configuration structure for a node.
type Config struct {
	DB              DBConfig    `mapstructure:"db"`
	EnabledFeatures []string    `mapstructure:"enabled_features"`
	LogLevel        string      `mapstructure:"log_level"`
	TrustAnchor     TrustAnchor `mapstructure:"trust_anchor"`
	Node            NodeConfig  `mapstructure:"node"`
	Ports           PortsConfig `mapstructure:"ports"`
	// Admins lists the "did:key:..." identifiers treated as node operators
	// for requireAdmin routes (maintenance mode, log level).
	Admins []string `mapstructure:"admins"`
}

// DBConfig holds the SQLite locations for the primary (entity) and data
// (document) namespaces.
type DBConfig struct {
	// URI is the base connection string; NamePrimary/NameData are appended
	// to select the primary-namespace and data-namespace database files.
	URI         string `mapstructure:"uri"`
	NamePrimary string `mapstructure:"name_primary"`
	NameData    string `mapstructure:"name_data"`
}

// TrustAnchor identifies the root of the delegation chain this node
// accepts capability tokens from.
type TrustAnchor struct {
	BaseURL string `mapstructure:"base_url"`
	// PublicKey is 64 hex characters: a raw Ed25519 public key, the same
	// key material embedded in a "did:key:" identifier.
	PublicKey string `mapstructure:"public_key"`
}

// NodeConfig holds this node's own identity and advertised address.
type NodeConfig struct {
	// SecretKey is 64 hex characters: a 32-byte Ed25519 seed.
	SecretKey      string `mapstructure:"secret_key"`
	PublicEndpoint string `mapstructure:"public_endpoint"`
}

// PortsConfig holds the listen ports for the two HTTP surfaces a node
// exposes.
type PortsConfig struct {
	Metrics int `mapstructure:"metrics_port"`
	Web     int `mapstructure:"web_port"`
}

// Optional feature names recognised in EnabledFeatures.
const (
	FeatureOpenAPI    = "openapi"
	FeatureMetrics    = "metrics"
	FeatureMigrations = "migrations"
)

// HasFeature reports whether name is present in EnabledFeatures.
func (c *Config) HasFeature(name string) bool {
	for _, f := range c.EnabledFeatures {
		if f == name {
			return true
		}
	}
	return false
}

// AdminDIDs parses Admins into identity.DID values. Validate has already
// confirmed each entry parses, so callers in the serve path can treat the
// error here as unreachable in practice.
func (c *Config) AdminDIDs() ([]identity.DID, error) {
	dids := make([]identity.DID, 0, len(c.Admins))
	for _, a := range c.Admins {
		d, err := identity.ParseDID(a)
		if err != nil {
			return nil, err
		}
		dids = append(dids, d)
	}
	return dids, nil
}
