package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvInt reads an integer environment variable. The second return value
// reports whether the variable was set.
func EnvInt(name string) (int, bool, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, true, nil
}

// EnvString reads a string environment variable and whether it was set.
func EnvString(name string) (string, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}

// EnvBool reads a boolean environment variable and whether it was set.
func EnvBool(name string) (bool, bool, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return false, false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, true, nil
}
