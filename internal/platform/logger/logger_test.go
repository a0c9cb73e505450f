package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"password", "123456",
		"owner_id", "9d7c0b1e-0000-0000-0000-000000000001",
		"title", "read a book",
	})
	if len(out) != 6 {
		t.Fatalf("kv length: want=6 got=%d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("password: want=[REDACTED] got=%v", out[1])
	}
	hashed, _ := out[3].(string)
	if !strings.HasPrefix(hashed, "hash:") || len(hashed) != len("hash:")+12 {
		t.Fatalf("owner_id: want hashed value got=%v", out[3])
	}
	if out[5] != "read a book" {
		t.Fatalf("title: want passthrough got=%v", out[5])
	}
}

func TestSanitizeValueRedactsJWTLikeStrings(t *testing.T) {
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.signature"
	if got := sanitizeValue("detail", jwt); got != "[REDACTED]" {
		t.Fatalf("jwt value: want=[REDACTED] got=%v", got)
	}
}

func TestSanitizeKVsKeepsDanglingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("dangling key: got=%v", out)
	}
}
