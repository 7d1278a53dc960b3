package queryengine

import (
	"fmt"

	"github.com/nilnode/nildb/internal/database"
	"github.com/nilnode/nildb/internal/nilerrors"
	"github.com/nilnode/nildb/internal/store"
)

// ValidateRegistration checks every declared variable's path against the
// pipeline it names: paths must be absolute, dot-addressed into the
// pipeline, and resolve to an existing position.
func ValidateRegistration(pipeline []map[string]any, vars map[string]store.Variable) error {
	if err := validatePipelineShape(pipeline); err != nil {
		return nilerrors.Wrap(nilerrors.QueryValidation, "pipeline validation failed", err)
	}
	for name, v := range vars {
		segs, err := parsePath(v.Path)
		if err != nil {
			return nilerrors.Wrap(nilerrors.QueryValidation, fmt.Sprintf("variable %q", name), err)
		}
		if err := walk(pipeline, segs); err != nil {
			return nilerrors.Wrap(nilerrors.QueryValidation, fmt.Sprintf("variable %q", name), err)
		}
	}
	return nil
}

// ValidateProvided checks a caller-supplied variable map against the
// query's declared template:
// every non-optional key must be present, no unknown keys are allowed, and
// every value must be a primitive or a homogeneous array of primitives.
// An optional "$coerce" map inside provided is honoured and stripped
// before validation.
func ValidateProvided(vars map[string]store.Variable, provided map[string]any) (map[string]any, error) {
	doc := database.Doc{}
	for k, v := range provided {
		doc[k] = v
	}
	if _, err := database.CoerceFilter(doc); err != nil {
		return nil, nilerrors.Wrap(nilerrors.VariableInjection, "coercing variables", err)
	}

	for name, v := range vars {
		if _, ok := doc[name]; !ok && !v.Optional {
			return nil, nilerrors.Newf(nilerrors.VariableInjection, "missing required variable %q", name)
		}
	}
	for name := range doc {
		if _, declared := vars[name]; !declared {
			return nil, nilerrors.Newf(nilerrors.VariableInjection, "unexpected variable %q", name)
		}
	}
	for name, val := range doc {
		if err := validatePrimitiveOrHomogeneousArray(val); err != nil {
			return nil, nilerrors.Wrap(nilerrors.VariableInjection, fmt.Sprintf("variable %q", name), err)
		}
	}

	return map[string]any(doc), nil
}

func validatePrimitiveOrHomogeneousArray(v any) error {
	if isPrimitive(v) {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("value must be a primitive or an array of primitives")
	}
	if len(items) == 0 {
		return nil
	}
	first := jsonKind(items[0])
	for _, item := range items {
		if !isPrimitive(item) {
			return fmt.Errorf("array elements must be primitives")
		}
		if jsonKind(item) != first {
			return fmt.Errorf("array elements must share the same type")
		}
	}
	return nil
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case string, float64, bool:
		return true
	default:
		return false
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return "unknown"
	}
}
