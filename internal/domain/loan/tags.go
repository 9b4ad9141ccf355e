package loan

import (
	"fmt"
	"strings"
)

// ParseStatusTag maps a ledger status tag ("Main:Repaid", "Active") onto a
// stored Status. Order matters: terminal states are checked first.
func ParseStatusTag(tag string) (Status, error) {
	t := strings.ReplaceAll(strings.TrimSpace(tag), " ", "")
	switch {
	case strings.Contains(t, "Repaid"):
		return StatusRepaid, nil
	case strings.Contains(t, "Defaulted"):
		return StatusDefaulted, nil
	case strings.Contains(t, "DueSoon"):
		return StatusActive, nil
	case strings.Contains(t, "Active"):
		return StatusActive, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatusTag, tag)
}

// MapStatusTag is the permissive form: unknown tags are treated as Active.
// The second result reports whether the default was applied.
func MapStatusTag(tag string) (Status, bool) {
	s, err := ParseStatusTag(tag)
	if err != nil {
		return StatusActive, true
	}
	return s, false
}
