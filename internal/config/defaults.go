package config

// Default configuration values.
const (
	DefaultDBURI         = "file:"
	DefaultDBNamePrimary = "primary"
	DefaultDBNameData    = "data"

	DefaultLogLevel = "info"

	DefaultMetricsPort = 9090
	DefaultWebPort     = 8080
)

// Default returns a Config with sensible defaults. TrustAnchor.PublicKey
// and Node.SecretKey have no safe default and are left empty; Validate
// will reject a Config that still carries them empty.
func Default() *Config {
	return &Config{
		DB: DBConfig{
			URI:         DefaultDBURI,
			NamePrimary: DefaultDBNamePrimary,
			NameData:    DefaultDBNameData,
		},
		EnabledFeatures: []string{FeatureMetrics},
		LogLevel:        DefaultLogLevel,
		Ports: PortsConfig{
			Metrics: DefaultMetricsPort,
			Web:     DefaultWebPort,
		},
	}
}
