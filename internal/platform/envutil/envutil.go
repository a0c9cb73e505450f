// Package envutil reads typed configuration values from the environment.
package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Reader reads the environment first and Fallback second. The zero Reader
// reads only the environment.
type Reader struct {
	Fallback map[string]string
}

func (r Reader) raw(name string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return strings.TrimSpace(r.Fallback[name])
}

func (r Reader) String(name, def string) string {
	v := r.raw(name)
	if v == "" {
		return def
	}
	return v
}

func (r Reader) Int(name string, def int) int {
	v := r.raw(name)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func (r Reader) Float(name string, def float64) float64 {
	v := r.raw(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func (r Reader) Bool(name string, def bool) bool {
	switch strings.ToLower(r.raw(name)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// Seconds reads an integer number of seconds.
func (r Reader) Seconds(name string, def time.Duration) time.Duration {
	n := r.Int(name, -1)
	if n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

// List splits a comma separated value, dropping empty entries.
func (r Reader) List(name string, def []string) []string {
	v := r.raw(name)
	if v == "" {
		return def
	}
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
