package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNotNumber is returned when a value does not parse as a number.
	ErrNotNumber = errors.New("not a number")
	// ErrOutOfRange is returned when a parsed value violates its bounds.
	ErrOutOfRange = errors.New("out of range")
)

// ToFloat parses a trimmed decimal string and rejects NaN and infinities.
func ToFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotNumber
	}
	return f, nil
}

// ToFloatInRange parses s and checks it lies within [lo, hi].
func ToFloatInRange(s string, lo, hi float64) (float64, error) {
	f, err := ToFloat(s)
	if err != nil {
		return 0, err
	}
	if f < lo || f > hi {
		return 0, ErrOutOfRange
	}
	return f, nil
}

// ToInt parses a trimmed base-10 integer and checks it is at least min.
func ToInt(s string, min int) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrNotNumber
	}
	if i < min {
		return 0, ErrOutOfRange
	}
	return i, nil
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// NonEmpty drops blank entries and trims the rest.
func NonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
