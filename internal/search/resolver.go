// Package search resolves user-entered key patterns into concrete issue keys.
//
// A pattern is the numeric part of an issue key with optional * wildcards:
// "123" matches exactly, "12*" matches every key starting with 12, "*3"
// every key ending in 3, and "*23*" every key containing 23. A wildcard in
// the middle of the digits is treated as if it were at the end, and a pair
// of wildcards that does not bracket the digits collapses to a contains
// match. These corrections mirror what users actually get back from the
// search box, so they stay.
package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opsshop/jiratrack/internal/apperr"
)

const wildcard = "*"

// Resolve expands pattern into the matching issue keys for a project.
// maxSuffix bounds the scan; it is the numeric suffix of the project's
// newest issue. The result preserves ascending key order.
func Resolve(pattern, project string, maxSuffix int) ([]string, error) {
	pattern = strings.TrimSpace(pattern)
	cleaned := strings.ReplaceAll(pattern, wildcard, "")
	if cleaned == "" {
		return nil, apperr.ErrEmptySearch
	}

	match := matcherFor(pattern, cleaned)

	var keys []string
	for i := 1; i <= maxSuffix; i++ {
		suffix := strconv.Itoa(i)
		if !match(suffix) {
			continue
		}
		keys = append(keys, fmt.Sprintf("%s-%s", project, suffix))
		if suffix == cleaned && !strings.Contains(pattern, wildcard) {
			break
		}
	}
	return keys, nil
}

func matcherFor(pattern, cleaned string) func(string) bool {
	switch strings.Count(pattern, wildcard) {
	case 0:
		return func(s string) bool { return s == cleaned }
	case 1:
		if strings.HasSuffix(pattern, wildcard) {
			return func(s string) bool { return strings.HasPrefix(s, cleaned) }
		}
		if strings.HasPrefix(pattern, wildcard) {
			return func(s string) bool { return strings.HasSuffix(s, cleaned) }
		}
		// Wildcard stuck in the middle; read it as a prefix match.
		return func(s string) bool { return strings.HasPrefix(s, cleaned) }
	default:
		// Two or more markers collapse to a contains match whether or not
		// they bracket the digits.
		return func(s string) bool { return strings.Contains(s, cleaned) }
	}
}

// JoinKeys renders resolved keys as the comma-separated list an
// issueKey IN (...) clause expects.
func JoinKeys(keys []string) string {
	return strings.Join(keys, ",")
}
