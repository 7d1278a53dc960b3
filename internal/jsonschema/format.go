package jsonschema

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// validateFormat checks the handful of string formats collections actually
// use: RFC3339 timestamps and UUIDs. Unknown format names are
// accepted without error, per the JSON Schema spec's "format is an
// annotation unless the implementation chooses to assert it" stance —
// here we assert only the formats the node's own data model depends on.
func validateFormat(format, value string) error {
	switch format {
	case "date-time":
		if _, err := time.Parse(time.RFC3339Nano, value); err != nil {
			return fmt.Errorf("not a valid date-time: %w", err)
		}
	case "uuid":
		if _, err := uuid.Parse(value); err != nil {
			return fmt.Errorf("not a valid uuid: %w", err)
		}
	}
	return nil
}
