package database

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// CoerceKind names the target types the "$coerce" interpreter understands.
type CoerceKind string

const (
	CoerceString  CoerceKind = "string"
	CoerceNumber  CoerceKind = "number"
	CoerceBoolean CoerceKind = "boolean"
	CoerceDate    CoerceKind = "date"
	CoerceUUID    CoerceKind = "uuid"
)

// CoerceFilter rewrites the scalar leaves named by doc["$coerce"] (a map of
// field path -> CoerceKind) to their target type, then strips the "$coerce"
// key, per design note "Filter coercion ($coerce)". It mutates and returns
// the same document for convenient call-site chaining.
func CoerceFilter(doc Doc) (Doc, error) {
	raw, ok := doc["$coerce"]
	if !ok {
		return doc, nil
	}
	delete(doc, "$coerce")

	spec, ok := toDoc(raw)
	if !ok {
		return nil, fmt.Errorf("database: $coerce must be an object")
	}

	for path, kindRaw := range spec {
		kind, ok := kindRaw.(string)
		if !ok {
			return nil, fmt.Errorf("database: $coerce target for %q must be a string", path)
		}
		current := lookup(doc, path)
		if current == nil {
			continue
		}
		coerced, err := CoerceValue(current, CoerceKind(kind))
		if err != nil {
			return nil, fmt.Errorf("database: coercing %q: %w", path, err)
		}
		setPath(doc, path, coerced)
	}

	return doc, nil
}

// CoerceValue converts v to the requested kind, accepting the loose string
// representations the wire format carries.
func CoerceValue(v any, kind CoerceKind) (any, error) {
	switch kind {
	case CoerceString:
		return fmt.Sprint(v), nil
	case CoerceNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case string:
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, err
			}
			return f, nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to number", v)
		}
	case CoerceBoolean:
		switch n := v.(type) {
		case bool:
			return n, nil
		case string:
			b, err := strconv.ParseBool(n)
			if err != nil {
				return nil, err
			}
			return b, nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to boolean", v)
		}
	case CoerceDate:
		switch n := v.(type) {
		case string:
			t, err := time.Parse(time.RFC3339, n)
			if err != nil {
				return nil, err
			}
			return t.Format(time.RFC3339), nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to date", v)
		}
	case CoerceUUID:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("cannot coerce %T to uuid", v)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	default:
		return nil, fmt.Errorf("unknown coerce kind %q", kind)
	}
}
