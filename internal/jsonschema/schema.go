// Package jsonschema implements the subset of JSON Schema (draft 2020-12
// vocabulary) needed to validate documents against a collection's
// registered schema: object/array/string/number/integer/
// boolean/null types, properties/required/additionalProperties, items,
// enum, const, a handful of string formats, and the numeric/string/array
// size keywords. No third-party JSON Schema validator appears anywhere in
// the retrieved corpus (see DESIGN.md), so this is a from-scratch stdlib
// implementation rather than an adaptation of an ecosystem library.
package jsonschema

import (
	"fmt"
	"regexp"
	"strings"
)

// Schema is a compiled JSON Schema node, ready for repeated Validate calls
// without re-parsing the raw document each time.
type Schema struct {
	raw map[string]any

	typ                  []string
	properties           map[string]*Schema
	required             map[string]struct{}
	additionalProperties *Schema // nil means "not allowed" only if additionalPropsFalse
	additionalPropsFalse bool
	items                *Schema
	enum                 []any
	hasConst             bool
	constVal             any
	format               string
	pattern              *regexp.Regexp
	minLength, maxLength *int
	minimum, maximum     *float64
	minItems, maxItems   *int
}

// Compile parses a raw JSON-Schema document (already decoded into
// map[string]any, e.g. from a Collection's Schema field) into a Schema
// ready for Validate.
func Compile(raw map[string]any) (*Schema, error) {
	return compileNode(raw)
}

func compileNode(raw map[string]any) (*Schema, error) {
	s := &Schema{raw: raw}

	switch t := raw["type"].(type) {
	case string:
		s.typ = []string{t}
	case []any:
		for _, v := range t {
			str, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("jsonschema: non-string entry in \"type\" array")
			}
			s.typ = append(s.typ, str)
		}
	}

	if props, ok := raw["properties"].(map[string]any); ok {
		s.properties = make(map[string]*Schema, len(props))
		for name, def := range props {
			defMap, ok := def.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("jsonschema: property %q schema must be an object", name)
			}
			child, err := compileNode(defMap)
			if err != nil {
				return nil, fmt.Errorf("jsonschema: property %q: %w", name, err)
			}
			s.properties[name] = child
		}
	}

	if req, ok := raw["required"].([]any); ok {
		s.required = make(map[string]struct{}, len(req))
		for _, v := range req {
			name, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("jsonschema: non-string entry in \"required\"")
			}
			s.required[name] = struct{}{}
		}
	}

	switch ap := raw["additionalProperties"].(type) {
	case bool:
		s.additionalPropsFalse = !ap
	case map[string]any:
		child, err := compileNode(ap)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: additionalProperties: %w", err)
		}
		s.additionalProperties = child
	}

	if items, ok := raw["items"].(map[string]any); ok {
		child, err := compileNode(items)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: items: %w", err)
		}
		s.items = child
	}

	if enum, ok := raw["enum"].([]any); ok {
		s.enum = enum
	}

	if v, ok := raw["const"]; ok {
		s.hasConst = true
		s.constVal = v
	}

	if f, ok := raw["format"].(string); ok {
		s.format = f
	}

	if p, ok := raw["pattern"].(string); ok {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: pattern: %w", err)
		}
		s.pattern = re
	}

	s.minLength = intPtr(raw["minLength"])
	s.maxLength = intPtr(raw["maxLength"])
	s.minItems = intPtr(raw["minItems"])
	s.maxItems = intPtr(raw["maxItems"])
	s.minimum = floatPtr(raw["minimum"])
	s.maximum = floatPtr(raw["maximum"])

	return s, nil
}

func intPtr(v any) *int {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	i := int(f)
	return &i
}

func floatPtr(v any) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}

// Validate reports every violation of s found in value. An empty slice
// means value conforms.
func (s *Schema) Validate(value any) []string {
	return s.validateAt("$", value)
}

func (s *Schema) validateAt(path string, value any) []string {
	var errs []string

	if len(s.typ) > 0 && !typeMatches(s.typ, value) {
		errs = append(errs, fmt.Sprintf("%s: expected type %s, got %s", path, strings.Join(s.typ, "|"), jsonTypeName(value)))
	}

	if s.hasConst && !equalJSON(value, s.constVal) {
		errs = append(errs, fmt.Sprintf("%s: does not match const", path))
	}

	if len(s.enum) > 0 {
		matched := false
		for _, opt := range s.enum {
			if equalJSON(value, opt) {
				matched = true
				break
			}
		}
		if !matched {
			errs = append(errs, fmt.Sprintf("%s: value not in enum", path))
		}
	}

	switch v := value.(type) {
	case string:
		errs = append(errs, s.validateString(path, v)...)
	case float64:
		errs = append(errs, s.validateNumber(path, v)...)
	case []any:
		errs = append(errs, s.validateArray(path, v)...)
	case map[string]any:
		errs = append(errs, s.validateObject(path, v)...)
	}

	return errs
}

func (s *Schema) validateString(path, v string) []string {
	var errs []string
	if s.minLength != nil && len(v) < *s.minLength {
		errs = append(errs, fmt.Sprintf("%s: length %d below minLength %d", path, len(v), *s.minLength))
	}
	if s.maxLength != nil && len(v) > *s.maxLength {
		errs = append(errs, fmt.Sprintf("%s: length %d exceeds maxLength %d", path, len(v), *s.maxLength))
	}
	if s.pattern != nil && !s.pattern.MatchString(v) {
		errs = append(errs, fmt.Sprintf("%s: does not match pattern %q", path, s.pattern.String()))
	}
	if s.format != "" {
		if err := validateFormat(s.format, v); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %s", path, err))
		}
	}
	return errs
}

func (s *Schema) validateNumber(path string, v float64) []string {
	var errs []string
	if s.minimum != nil && v < *s.minimum {
		errs = append(errs, fmt.Sprintf("%s: %v below minimum %v", path, v, *s.minimum))
	}
	if s.maximum != nil && v > *s.maximum {
		errs = append(errs, fmt.Sprintf("%s: %v exceeds maximum %v", path, v, *s.maximum))
	}
	if isIntegerType(s.typ) && v != float64(int64(v)) {
		errs = append(errs, fmt.Sprintf("%s: %v is not an integer", path, v))
	}
	return errs
}

func (s *Schema) validateArray(path string, v []any) []string {
	var errs []string
	if s.minItems != nil && len(v) < *s.minItems {
		errs = append(errs, fmt.Sprintf("%s: %d items below minItems %d", path, len(v), *s.minItems))
	}
	if s.maxItems != nil && len(v) > *s.maxItems {
		errs = append(errs, fmt.Sprintf("%s: %d items exceeds maxItems %d", path, len(v), *s.maxItems))
	}
	if s.items != nil {
		for i, item := range v {
			errs = append(errs, s.items.validateAt(fmt.Sprintf("%s[%d]", path, i), item)...)
		}
	}
	return errs
}

func (s *Schema) validateObject(path string, v map[string]any) []string {
	var errs []string
	for name := range s.required {
		if _, ok := v[name]; !ok {
			errs = append(errs, fmt.Sprintf("%s: missing required property %q", path, name))
		}
	}
	for name, val := range v {
		child, declared := s.properties[name]
		switch {
		case declared:
			errs = append(errs, child.validateAt(path+"."+name, val)...)
		case s.additionalProperties != nil:
			errs = append(errs, s.additionalProperties.validateAt(path+"."+name, val)...)
		case s.additionalPropsFalse:
			errs = append(errs, fmt.Sprintf("%s: additional property %q not allowed", path, name))
		}
	}
	return errs
}

func isIntegerType(types []string) bool {
	for _, t := range types {
		if t == "integer" {
			return true
		}
	}
	return false
}

func typeMatches(types []string, value any) bool {
	for _, t := range types {
		if jsonTypeName(value) == t {
			return true
		}
		if t == "number" && jsonTypeName(value) == "integer" {
			return true
		}
		if t == "integer" {
			if f, ok := value.(float64); ok && f == float64(int64(f)) {
				return true
			}
		}
	}
	return false
}

func jsonTypeName(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		if v == float64(int64(v)) {
			return "integer"
		}
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

func equalJSON(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprint(a) == fmt.Sprint(b) && jsonTypeName(a) == jsonTypeName(b)
}
