// Package envs applies environment variable overrides onto config fields.
// Each helper is a no-op when the variable name is empty, unset, or unparsable,
// leaving the destination untouched.
package envs

import (
	"os"
	"strconv"
	"strings"
)

// String sets *dst to the value of the named variable.
func String(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

// Int sets *dst to the integer value of the named variable.
func Int(dst *int, name string) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Int64 sets *dst to the 64-bit integer value of the named variable.
func Int64(dst *int64, name string) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

// Bool sets *dst to the boolean value of the named variable.
func Bool(dst *bool, name string) {
	if v, ok := lookup(name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// List sets *dst to the comma-separated values of the named variable,
// trimming whitespace and dropping empty entries.
func List(dst *[]string, name string) {
	v, ok := lookup(name)
	if !ok {
		return
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	*dst = out
}

func lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	v := os.Getenv(name)
	return v, v != ""
}
