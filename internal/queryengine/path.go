package queryengine

import (
	"fmt"
	"strconv"
	"strings"
)

// segment is one step of a parsed variable path: either a field name or an
// array index (from a "[N]" suffix).
type segment struct {
	field string
	index int
	isIdx bool
}

// parsePath parses a variable path of the form "$.pipeline.<stage-index>.
// <field>...", optionally with array-index brackets, per registration
// step 2. The path must be absolute ("$" root) and must address into
// "pipeline".
func parsePath(path string) ([]segment, error) {
	if !strings.HasPrefix(path, "$.") {
		return nil, fmt.Errorf("queryengine: path %q must be absolute (start with \"$.\")", path)
	}
	rest := strings.TrimPrefix(path, "$.")
	parts := strings.Split(rest, ".")
	if len(parts) == 0 || parts[0] != "pipeline" {
		return nil, fmt.Errorf("queryengine: path %q must address into \"pipeline\"", path)
	}

	var segs []segment
	for _, p := range parts[1:] {
		for _, piece := range splitBrackets(p) {
			if piece == "" {
				continue
			}
			if idx, err := strconv.Atoi(piece); err == nil {
				segs = append(segs, segment{index: idx, isIdx: true})
				continue
			}
			segs = append(segs, segment{field: piece})
		}
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("queryengine: path %q resolves to the pipeline array itself, not a field", path)
	}
	return segs, nil
}

// splitBrackets splits "foo[0][1]" into ["foo", "0", "1"].
func splitBrackets(s string) []string {
	var out []string
	cur := strings.Builder{}
	for _, r := range s {
		switch r {
		case '[':
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		case ']':
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// walk resolves segs against pipeline (the stage-index segment addresses
// into the slice, subsequent segments descend into each stage's map/slice
// structure). Returns an error if any position along the way is missing.
func walk(pipeline []map[string]any, segs []segment) error {
	if len(segs) == 0 {
		return fmt.Errorf("queryengine: empty path")
	}
	if !segs[0].isIdx {
		return fmt.Errorf("queryengine: path must start with a pipeline stage index")
	}
	idx := segs[0].index
	if idx < 0 || idx >= len(pipeline) {
		return fmt.Errorf("queryengine: stage index %d out of range", idx)
	}

	var cur any = pipeline[idx]
	for _, seg := range segs[1:] {
		switch c := cur.(type) {
		case map[string]any:
			if seg.isIdx {
				return fmt.Errorf("queryengine: expected object, found array index %d", seg.index)
			}
			v, ok := c[seg.field]
			if !ok {
				return fmt.Errorf("queryengine: field %q does not exist at this position", seg.field)
			}
			cur = v
		case []any:
			if !seg.isIdx {
				return fmt.Errorf("queryengine: expected array index, found field %q", seg.field)
			}
			if seg.index < 0 || seg.index >= len(c) {
				return fmt.Errorf("queryengine: array index %d out of range", seg.index)
			}
			cur = c[seg.index]
		default:
			return fmt.Errorf("queryengine: cannot descend further at this position")
		}
	}
	return nil
}

// inject deep-clones pipeline and writes each (path, value) pair from vars
// at its resolved position. Substitution is purely
// positional; values are not re-validated against any schema here.
func inject(pipeline []map[string]any, vars map[string]string, values map[string]any) ([]map[string]any, error) {
	cloned := cloneStages(pipeline)
	for name, path := range vars {
		v, ok := values[name]
		if !ok {
			continue
		}
		segs, err := parsePath(path)
		if err != nil {
			return nil, err
		}
		if err := setAt(cloned, segs, v); err != nil {
			return nil, fmt.Errorf("queryengine: injecting %q: %w", name, err)
		}
	}
	return cloned, nil
}

func setAt(pipeline []map[string]any, segs []segment, value any) error {
	if len(segs) == 0 || !segs[0].isIdx {
		return fmt.Errorf("path must start with a pipeline stage index")
	}
	idx := segs[0].index
	if idx < 0 || idx >= len(pipeline) {
		return fmt.Errorf("stage index %d out of range", idx)
	}
	if len(segs) == 1 {
		return fmt.Errorf("path must address a field inside the stage, not the stage itself")
	}

	var parent any = pipeline[idx]
	for i := 1; i < len(segs)-1; i++ {
		seg := segs[i]
		switch c := parent.(type) {
		case map[string]any:
			parent = c[seg.field]
		case []any:
			if seg.index < 0 || seg.index >= len(c) {
				return fmt.Errorf("array index %d out of range", seg.index)
			}
			parent = c[seg.index]
		default:
			return fmt.Errorf("cannot descend further at this position")
		}
	}

	last := segs[len(segs)-1]
	switch c := parent.(type) {
	case map[string]any:
		if last.isIdx {
			return fmt.Errorf("expected object field, found array index")
		}
		c[last.field] = value
	case []any:
		if !last.isIdx || last.index < 0 || last.index >= len(c) {
			return fmt.Errorf("array index out of range")
		}
		c[last.index] = value
	default:
		return fmt.Errorf("cannot set value at this position")
	}
	return nil
}

func cloneStages(pipeline []map[string]any) []map[string]any {
	out := make([]map[string]any, len(pipeline))
	for i, stage := range pipeline {
		out[i] = cloneAny(stage).(map[string]any)
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneAny(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneAny(val)
		}
		return out
	default:
		return v
	}
}
