package database

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MatchFilter evaluates a MongoDB-style filter document against doc. A
// filter is either a map of field -> value (implicit equality), field ->
// operator-map ({"$gt": 5}), or one of the boolean combinators "$and"/"$or"
// at any level. "$not" is not a combinator here: as a top-level key it is
// looked up as an ordinary field, and as a field operator it is unrecognised
// and fails the match. An empty filter matches every document.
func MatchFilter(doc Doc, filter Doc) bool {
	for key, want := range filter {
		switch key {
		case "$and":
			clauses, ok := want.([]any)
			if !ok {
				return false
			}
			for _, c := range clauses {
				cm, ok := toDoc(c)
				if !ok {
					return false
				}
				if !MatchFilter(doc, cm) {
					return false
				}
			}
		case "$or":
			clauses, ok := want.([]any)
			if !ok {
				return false
			}
			matchedAny := false
			for _, c := range clauses {
				cm, ok := toDoc(c)
				if !ok {
					continue
				}
				if MatchFilter(doc, cm) {
					matchedAny = true
					break
				}
			}
			if !matchedAny {
				return false
			}
		case "$coerce":
			// Handled by CoerceFilter before matching; ignore here.
			continue
		default:
			if !matchField(lookup(doc, key), want) {
				return false
			}
		}
	}
	return true
}

func toDoc(v any) (Doc, bool) {
	switch m := v.(type) {
	case Doc:
		return m, true
	case map[string]any:
		return Doc(m), true
	default:
		return nil, false
	}
}

func matchField(actual any, want any) bool {
	ops, ok := toDoc(want)
	if !ok {
		return compareEqual(actual, want)
	}

	for op, val := range ops {
		switch op {
		case "$eq":
			if !compareEqual(actual, val) {
				return false
			}
		case "$ne":
			if compareEqual(actual, val) {
				return false
			}
		case "$gt":
			if compareOrdered(actual, val) <= 0 {
				return false
			}
		case "$gte":
			if compareOrdered(actual, val) < 0 {
				return false
			}
		case "$lt":
			if compareOrdered(actual, val) >= 0 {
				return false
			}
		case "$lte":
			if compareOrdered(actual, val) > 0 {
				return false
			}
		case "$in":
			if !memberOf(actual, val) {
				return false
			}
		case "$nin":
			if memberOf(actual, val) {
				return false
			}
		case "$exists":
			want, _ := val.(bool)
			exists := actual != nil
			if exists != want {
				return false
			}
		default:
			// Unrecognized operator: fail closed rather than silently match.
			return false
		}
	}
	return true
}

func compareEqual(a, b any) bool {
	return fmt.Sprint(normalize(a)) == fmt.Sprint(normalize(b))
}

// compareOrdered returns -1/0/1 comparing a and b as numbers if both look
// numeric, as RFC-3339 instants if both parse as one (so timestamps with
// differing fractional-second precision still compare chronologically
// rather than lexicographically), else as strings.
func compareOrdered(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	if at, bt, ok := bothTimestamps(a, b); ok {
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		default:
			return 0
		}
	}

	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	return strings.Compare(as, bs)
}

func bothTimestamps(a, b any) (time.Time, time.Time, bool) {
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return time.Time{}, time.Time{}, false
	}
	at, aerr := time.Parse(time.RFC3339Nano, as)
	bt, berr := time.Parse(time.RFC3339Nano, bs)
	if aerr != nil || berr != nil {
		return time.Time{}, time.Time{}, false
	}
	return at, bt, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func normalize(v any) any {
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}

func memberOf(actual any, list any) bool {
	items, ok := list.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if compareEqual(actual, item) {
			return true
		}
	}
	return false
}

// lookup resolves a dotted field path ("a.b.c") against a document.
func lookup(doc Doc, path string) any {
	segments := strings.Split(path, ".")
	var cur any = map[string]any(doc)
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			if dm, ok := cur.(Doc); ok {
				m = map[string]any(dm)
			} else {
				return nil
			}
		}
		v, ok := m[seg]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// setPath writes value at a dotted field path, creating intermediate maps
// as needed.
func setPath(doc Doc, path string, value any) {
	segments := strings.Split(path, ".")
	cur := map[string]any(doc)
	for i, seg := range segments {
		if i == len(segments)-1 {
			cur[seg] = value
			return
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
}

func deletePath(doc Doc, path string) {
	segments := strings.Split(path, ".")
	cur := map[string]any(doc)
	for i, seg := range segments {
		if i == len(segments)-1 {
			delete(cur, seg)
			return
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
}

// ApplyUpdate mutates doc in place according to an update document. Update
// may use "$set"/"$unset" operators or, if neither key is present, is
// treated as an implicit "$set" of its own top-level fields (matching
// permissive update specs seen at call sites across the data plane).
func ApplyUpdate(doc Doc, update Doc) {
	applied := false
	if set, ok := update["$set"].(Doc); ok {
		for k, v := range set {
			setPath(doc, k, v)
		}
		applied = true
	} else if set, ok := update["$set"].(map[string]any); ok {
		for k, v := range set {
			setPath(doc, k, v)
		}
		applied = true
	}
	if unset, ok := update["$unset"].(Doc); ok {
		for k := range unset {
			deletePath(doc, k)
		}
		applied = true
	} else if unset, ok := update["$unset"].(map[string]any); ok {
		for k := range unset {
			deletePath(doc, k)
		}
		applied = true
	}
	if !applied {
		for k, v := range update {
			if k == "$coerce" {
				continue
			}
			setPath(doc, k, v)
		}
	}
}

func lessFuncSort(docs []Doc, specs []SortSpec) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, s := range specs {
			ai := lookup(docs[i], s.Field)
			aj := lookup(docs[j], s.Field)
			c := compareOrdered(ai, aj)
			if c == 0 {
				continue
			}
			if s.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
