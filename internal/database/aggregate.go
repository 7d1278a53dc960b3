package database

import (
	"context"
	"fmt"
)

// Aggregate runs a MongoDB-style aggregation pipeline against table,
// in-process: load every document, then apply each stage in order. This is
// the adapter's "aggregate" primitive; the query engine is the only
// caller that needs the full stage vocabulary, but the primitive lives
// here so any future caller can reuse it against the data namespace.
func (s *Store) Aggregate(ctx context.Context, table string, pipeline []Doc) ([]Doc, error) {
	docs, err := s.scanAll(ctx, table)
	if err != nil {
		return nil, err
	}

	for _, stage := range pipeline {
		docs, err = applyStage(docs, stage)
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func applyStage(docs []Doc, stage Doc) ([]Doc, error) {
	if len(stage) != 1 {
		return nil, fmt.Errorf("database: pipeline stage must have exactly one operator, got %d", len(stage))
	}
	for op, arg := range stage {
		switch op {
		case "$match":
			filter, ok := toDoc(arg)
			if !ok {
				return nil, fmt.Errorf("database: $match requires an object")
			}
			out := make([]Doc, 0, len(docs))
			for _, d := range docs {
				if MatchFilter(d, filter) {
					out = append(out, d)
				}
			}
			return out, nil

		case "$sort":
			spec, ok := toDoc(arg)
			if !ok {
				return nil, fmt.Errorf("database: $sort requires an object")
			}
			var sorts []SortSpec
			for field, dir := range spec {
				desc := toFloatOrZero(dir) < 0
				sorts = append(sorts, SortSpec{Field: field, Desc: desc})
			}
			out := append([]Doc(nil), docs...)
			lessFuncSort(out, sorts)
			return out, nil

		case "$limit":
			n := int(toFloatOrZero(arg))
			if n < 0 || n >= len(docs) {
				return docs, nil
			}
			return docs[:n], nil

		case "$skip":
			n := int(toFloatOrZero(arg))
			if n <= 0 {
				return docs, nil
			}
			if n >= len(docs) {
				return []Doc{}, nil
			}
			return docs[n:], nil

		case "$count":
			name, _ := arg.(string)
			if name == "" {
				name = "count"
			}
			return []Doc{{name: float64(len(docs))}}, nil

		case "$project":
			spec, ok := toDoc(arg)
			if !ok {
				return nil, fmt.Errorf("database: $project requires an object")
			}
			return projectDocs(docs, spec), nil

		case "$addFields":
			spec, ok := toDoc(arg)
			if !ok {
				return nil, fmt.Errorf("database: $addFields requires an object")
			}
			out := make([]Doc, len(docs))
			for i, d := range docs {
				nd := cloneDoc(d)
				for field, value := range spec {
					setPath(nd, field, value)
				}
				out[i] = nd
			}
			return out, nil

		case "$unwind":
			field, ok := arg.(string)
			if !ok {
				return nil, fmt.Errorf("database: $unwind requires a field path string")
			}
			field = trimDollar(field)
			return unwindDocs(docs, field), nil

		case "$group":
			spec, ok := toDoc(arg)
			if !ok {
				return nil, fmt.Errorf("database: $group requires an object")
			}
			return groupDocs(docs, spec)

		default:
			return nil, fmt.Errorf("database: unsupported pipeline operator %q", op)
		}
	}
	panic("unreachable")
}

func toFloatOrZero(v any) float64 {
	f, _ := toFloat(v)
	return f
}

func trimDollar(s string) string {
	if len(s) > 0 && s[0] == '$' {
		return s[1:]
	}
	return s
}

func cloneDoc(d Doc) Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func projectDocs(docs []Doc, spec Doc) []Doc {
	inclusion := false
	for _, v := range spec {
		if f, ok := toFloat(v); ok && f != 0 {
			inclusion = true
		}
	}

	out := make([]Doc, len(docs))
	for i, d := range docs {
		nd := Doc{}
		if inclusion {
			nd["_id"] = d["_id"]
			for field := range spec {
				if field == "_id" {
					continue
				}
				if v := lookup(d, field); v != nil {
					setPath(nd, field, v)
				}
			}
		} else {
			nd = cloneDoc(d)
			for field := range spec {
				delete(nd, field)
			}
		}
		out[i] = nd
	}
	return out
}

func unwindDocs(docs []Doc, field string) []Doc {
	var out []Doc
	for _, d := range docs {
		v := lookup(d, field)
		items, ok := v.([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			nd := cloneDoc(d)
			setPath(nd, field, item)
			out = append(out, nd)
		}
	}
	return out
}

// groupDocs implements a small subset of $group: "_id" groups by a field
// reference (or constant), and accumulators $sum/$avg/$min/$max/$count/
// $push are supported per output field.
func groupDocs(docs []Doc, spec Doc) ([]Doc, error) {
	idSpec, hasID := spec["_id"]
	if !hasID {
		return nil, fmt.Errorf("database: $group requires \"_id\"")
	}

	type bucket struct {
		key    Doc
		values map[string][]any
	}
	order := []string{}
	buckets := map[string]*bucket{}

	for _, d := range docs {
		key := groupKey(d, idSpec)
		keyStr := fmt.Sprint(key)
		b, ok := buckets[keyStr]
		if !ok {
			b = &bucket{key: Doc{"_id": key}, values: map[string][]any{}}
			buckets[keyStr] = b
			order = append(order, keyStr)
		}
		for field, accSpec := range spec {
			if field == "_id" {
				continue
			}
			accDoc, ok := toDoc(accSpec)
			if !ok {
				continue
			}
			for _, expr := range accDoc {
				v := resolveExpr(d, expr)
				b.values[field] = append(b.values[field], v)
			}
		}
	}

	out := make([]Doc, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		result := cloneDoc(b.key)
		for field, accSpec := range spec {
			if field == "_id" {
				continue
			}
			accDoc, _ := toDoc(accSpec)
			for op := range accDoc {
				result[field] = applyAccumulator(op, b.values[field])
			}
		}
		out = append(out, result)
	}
	return out, nil
}

func groupKey(d Doc, idSpec any) any {
	if s, ok := idSpec.(string); ok && len(s) > 0 && s[0] == '$' {
		return lookup(d, s[1:])
	}
	return idSpec
}

func resolveExpr(d Doc, expr any) any {
	if s, ok := expr.(string); ok && len(s) > 0 && s[0] == '$' {
		return lookup(d, s[1:])
	}
	return expr
}

func applyAccumulator(op string, values []any) any {
	switch op {
	case "$sum":
		var total float64
		for _, v := range values {
			if f, ok := toFloat(v); ok {
				total += f
			} else if v != nil {
				total += 1
			}
		}
		return total
	case "$avg":
		var total float64
		var n int
		for _, v := range values {
			if f, ok := toFloat(v); ok {
				total += f
				n++
			}
		}
		if n == 0 {
			return 0.0
		}
		return total / float64(n)
	case "$min":
		var min any
		for _, v := range values {
			if min == nil || compareOrdered(v, min) < 0 {
				min = v
			}
		}
		return min
	case "$max":
		var max any
		for _, v := range values {
			if max == nil || compareOrdered(v, max) > 0 {
				max = v
			}
		}
		return max
	case "$count":
		return float64(len(values))
	case "$push":
		return values
	case "$first":
		if len(values) == 0 {
			return nil
		}
		return values[0]
	case "$last":
		if len(values) == 0 {
			return nil
		}
		return values[len(values)-1]
	default:
		return nil
	}
}
