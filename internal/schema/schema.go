// oreon/defense · watchthelight <wtl>

// Package schema maps heterogeneous input column names onto a fixed
// canonical schema.
//
// Matching is two-phase: a case-insensitive exact match against the
// candidates in priority order, then a case-insensitive substring match
// scanning the raw columns in their original order. The substring phase is
// permissive and can over-match (the candidate "id" accepts "ProcessId");
// callers order candidates so the common spellings hit the exact phase.
package schema

import (
	"strings"
)

// Field is one canonical field and its prioritized candidate names.
type Field struct {
	Name       string
	Candidates []string
}

// Mapping is an ordered set of canonical fields.
type Mapping []Field

// Names returns the canonical field names in mapping order.
func (m Mapping) Names() []string {
	names := make([]string, len(m))
	for i, f := range m {
		names[i] = f.Name
	}
	return names
}

// FindColumn returns the index of the raw column best matching one of the
// candidates, or false when nothing matches.
func FindColumn(columns, candidates []string) (int, bool) {
	lowered := make(map[string]int, len(columns))
	for i, c := range columns {
		lc := strings.ToLower(c)
		// first column wins on case-insensitive collisions
		if _, dup := lowered[lc]; !dup {
			lowered[lc] = i
		}
	}
	for _, cand := range candidates {
		if i, ok := lowered[strings.ToLower(cand)]; ok {
			return i, true
		}
	}

	for i, c := range columns {
		lc := strings.ToLower(c)
		for _, cand := range candidates {
			if strings.Contains(lc, strings.ToLower(cand)) {
				return i, true
			}
		}
	}
	return -1, false
}

// Resolution maps canonical field names to raw column indexes.
// Unresolved fields are absent.
type Resolution map[string]int

// Column returns the raw column index for a canonical field, or -1.
func (r Resolution) Column(field string) int {
	if i, ok := r[field]; ok {
		return i
	}
	return -1
}

// Resolve runs FindColumn for every field of the mapping.
func Resolve(columns []string, m Mapping) Resolution {
	res := make(Resolution, len(m))
	for _, f := range m {
		if i, ok := FindColumn(columns, f.Candidates); ok {
			res[f.Name] = i
		}
	}
	return res
}

// Unresolved lists the canonical fields of m that found no column.
func (r Resolution) Unresolved(m Mapping) []string {
	var missing []string
	for _, f := range m {
		if _, ok := r[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	return missing
}
