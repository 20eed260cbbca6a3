package complaint

import (
	"regexp"
	"strconv"
	"strings"
)

var referencePattern = regexp.MustCompile(`^C\d{3,}$`)

// parseID returns the numeric id, or 0 when the string is not numeric.
func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// normalizeReference upcases and validates a human-readable reference
// like c017 or C017.
func normalizeReference(s string) (string, bool) {
	ref := strings.ToUpper(strings.TrimSpace(s))
	if !referencePattern.MatchString(ref) {
		return "", false
	}
	return ref, true
}
