package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nilnode/nildb/internal/identity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Both the trust anchor's public key and this node's own secret key are
// raw Ed25519 key material (32 bytes), hex-encoded: 64 characters either way.
var hex64Pattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

var validFeatures = map[string]bool{
	FeatureOpenAPI:    true,
	FeatureMetrics:    true,
	FeatureMigrations: true,
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

func Validate(cfg *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateDB(&cfg.DB)...)
	errs = append(errs, validateFeatures(cfg.EnabledFeatures)...)
	errs = append(errs, validateLogLevel(cfg.LogLevel)...)
	errs = append(errs, validateTrustAnchor(&cfg.TrustAnchor)...)
	errs = append(errs, validateNode(&cfg.Node)...)
	errs = append(errs, validatePorts(&cfg.Ports)...)
	errs = append(errs, validateAdmins(cfg.Admins)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateDB(cfg *DBConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.URI == "" {
		errs = append(errs, ValidationError{Field: "db.uri", Message: "required"})
	}
	if cfg.NamePrimary == "" {
		errs = append(errs, ValidationError{Field: "db.name_primary", Message: "required"})
	}
	if cfg.NameData == "" {
		errs = append(errs, ValidationError{Field: "db.name_data", Message: "required"})
	}
	if cfg.NamePrimary != "" && cfg.NamePrimary == cfg.NameData {
		errs = append(errs, ValidationError{
			Field:   "db.name_data",
			Message: "must differ from db.name_primary",
		})
	}

	return errs
}

func validateFeatures(features []string) ValidationErrors {
	var errs ValidationErrors
	for _, f := range features {
		if !validFeatures[f] {
			errs = append(errs, ValidationError{
				Field:   "enabled_features",
				Message: fmt.Sprintf("unknown feature %q, must be one of: openapi, metrics, migrations", f),
			})
		}
	}
	return errs
}

func validateLogLevel(level string) ValidationErrors {
	var errs ValidationErrors
	if !validLogLevels[level] {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: "must be one of: debug, info, warn, error",
		})
	}
	return errs
}

func validateTrustAnchor(cfg *TrustAnchor) ValidationErrors {
	var errs ValidationErrors

	if cfg.BaseURL == "" {
		errs = append(errs, ValidationError{Field: "trust_anchor.base_url", Message: "required"})
	}
	if !hex64Pattern.MatchString(cfg.PublicKey) {
		errs = append(errs, ValidationError{
			Field:   "trust_anchor.public_key",
			Message: "must be 64 hex characters",
		})
	}

	return errs
}

func validateNode(cfg *NodeConfig) ValidationErrors {
	var errs ValidationErrors

	if !hex64Pattern.MatchString(cfg.SecretKey) {
		errs = append(errs, ValidationError{
			Field:   "node.secret_key",
			Message: "must be 64 hex characters",
		})
	}
	if cfg.PublicEndpoint == "" {
		errs = append(errs, ValidationError{Field: "node.public_endpoint", Message: "required"})
	}

	return errs
}

func validateAdmins(admins []string) ValidationErrors {
	var errs ValidationErrors
	for _, a := range admins {
		if _, err := identity.ParseDID(a); err != nil {
			errs = append(errs, ValidationError{
				Field:   "admins",
				Message: fmt.Sprintf("%q is not a valid did:key: %v", a, err),
			})
		}
	}
	return errs
}

func validatePorts(cfg *PortsConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Metrics < 1 || cfg.Metrics > 65535 {
		errs = append(errs, ValidationError{Field: "ports.metrics_port", Message: "must be between 1 and 65535"})
	}
	if cfg.Web < 1 || cfg.Web > 65535 {
		errs = append(errs, ValidationError{Field: "ports.web_port", Message: "must be between 1 and 65535"})
	}
	if cfg.Metrics == cfg.Web {
		errs = append(errs, ValidationError{Field: "ports.metrics_port", Message: "must differ from ports.web_port"})
	}

	return errs
}
