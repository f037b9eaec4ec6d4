package util

import (
	"fmt"
	"strconv"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ParsePage parses a page/size query parameter. An empty value falls back
// to def; a non-positive or non-numeric value is rejected, not clamped.
func ParsePage(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if v < 1 {
		return 0, fmt.Errorf("must be positive, got %d", v)
	}
	return v, nil
}

// ClampPageSize caps size at MaxPageSize. Callers that key anything off the
// size must clamp before doing so, or oversized requests alias the same page.
func ClampPageSize(size int) int {
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

func Calculate(page, size int) (offset, limit int) {
	size = ClampPageSize(size)
	offset = (page - 1) * size
	return offset, size
}
