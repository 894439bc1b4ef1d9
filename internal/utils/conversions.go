package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseIntList parses a comma separated list of integers such as "1, 2,3".
func ParseIntList(s string) ([]int, error) {
	ints := make([]int, 0)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", part, err)
		}
		ints = append(ints, i)
	}
	return ints, nil
}

func FormatIntList(ints []int) string {
	parts := make([]string, 0, len(ints))
	for _, i := range ints {
		parts = append(parts, strconv.Itoa(i))
	}
	return strings.Join(parts, ",")
}

// Value dereferences v, returning the zero value for nil. Optional response
// fields such as tokens arrive as pointers.
func Value[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}
