// Package utils provides small, general-purpose helpers for HTTP query
// parameter parsing. Handlers use these to turn raw query strings into typed
// values with sane defaults, keeping transport code thin.
package utils

import (
	"strconv"
	"strings"
	"time"
)

// AtoiDefault parses s as a base-10 integer, returning def when s is empty or
// not a valid integer.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ParseBoolParam interprets common truthy query values ("1", "true", "yes",
// "on", case-insensitive). Anything else, including empty, is false.
func ParseBoolParam(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// ParseTimeParam parses an optional timestamp query value. Empty input yields
// (nil, nil). Accepted layouts: RFC 3339 with or without sub-second precision,
// plus the date-only form "2006-01-02" for operator convenience.
func ParseTimeParam(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	_, err := time.Parse(time.RFC3339, s)
	return nil, err
}
