// Package naming resolves collision-free sibling names.
package naming

import (
	"regexp"
	"strconv"
	"strings"
)

// SimilarNodeName is an existing sibling considered when naming a node.
type SimilarNodeName struct {
	ID   int
	Name string
}

var suffixPattern = regexp.MustCompile(`^(.*) \(([0-9]+)\)$`)

// structuredName is a name split into its base and numeric suffix.
// A suffix of 0 means none.
type structuredName struct {
	base   string
	suffix int
}

func parseName(name string) structuredName {
	m := suffixPattern.FindStringSubmatch(name)
	if m == nil {
		return structuredName{base: name}
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n <= 0 {
		// "(0)" and overflowing numbers are part of the base name.
		return structuredName{base: name}
	}
	return structuredName{base: m[1], suffix: n}
}

func (s structuredName) String() string {
	if s.suffix == 0 {
		return s.base
	}
	return s.base + " (" + strconv.Itoa(s.suffix) + ")"
}

// GetUniqueName returns candidate, or candidate's base name with the
// smallest free " (n)" suffix when another sibling already uses it.
//
// Siblings with ownID are ignored so that a node never collides with itself.
// Matching is case-insensitive. An empty candidate always receives a suffix.
func GetUniqueName(names []SimilarNodeName, ownID int, candidate string) string {
	others := make([]structuredName, 0, len(names))
	taken := false
	for _, n := range names {
		if n.ID == ownID {
			continue
		}
		others = append(others, parseName(n.Name))
		if strings.EqualFold(n.Name, candidate) {
			taken = true
		}
	}

	model := parseName(candidate)
	if !taken && model.base != "" {
		return candidate
	}
	if !taken && model.suffix > 0 {
		return candidate
	}

	used := make(map[int]bool)
	for _, o := range others {
		if strings.EqualFold(o.base, model.base) {
			used[o.suffix] = true
		}
	}

	next := 1
	for used[next] {
		next++
	}
	model.suffix = next
	return model.String()
}
