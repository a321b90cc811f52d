package utils

import (
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

// SplitArgs splits command arguments shell style, so `101 "Ravi Kumar"`
// yields two arguments. Environment variables are not expanded.
func SplitArgs(text string) ([]string, error) {
	p := shellwords.NewParser()
	args, err := p.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("unbalanced quotes in arguments")
	}
	if p.Position >= 0 {
		return nil, fmt.Errorf("put text containing ; & | < > in double quotes")
	}
	return args, nil
}

// Fields holds key=value arguments. Keys are lower case.
type Fields map[string]string

// ParseFields reads key=value arguments such as `room=101 name="Ravi Kumar"`.
func ParseFields(text string) (Fields, error) {
	args, err := SplitArgs(text)
	if err != nil {
		return nil, err
	}
	fields := make(Fields, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		fields[strings.ToLower(k)] = v
	}
	return fields, nil
}

// Require returns the value of key or an error naming it.
func (f Fields) Require(key string) (string, error) {
	v, ok := f[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// Optional returns a pointer to the value of key, or nil when absent.
func (f Fields) Optional(key string) *string {
	v, ok := f[key]
	if !ok {
		return nil
	}
	return &v
}
