package envutil

import (
	"reflect"
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "42")
	t.Setenv("ENVUTIL_BAD_INT", "x")
	t.Setenv("ENVUTIL_BOOL", "off")
	t.Setenv("ENVUTIL_SECONDS", "5")
	t.Setenv("ENVUTIL_LIST", " a, ,b ")
	t.Setenv("ENVUTIL_FLOAT", "0.25")
	var r Reader

	if got := r.Int("ENVUTIL_INT", 1); got != 42 {
		t.Fatalf("Int: want=42 got=%d", got)
	}
	if got := r.Int("ENVUTIL_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: want=7 got=%d", got)
	}
	if got := r.Bool("ENVUTIL_BOOL", true); got {
		t.Fatalf("Bool: want=false got=%v", got)
	}
	if got := r.Seconds("ENVUTIL_SECONDS", time.Minute); got != 5*time.Second {
		t.Fatalf("Seconds: want=5s got=%s", got)
	}
	if got := r.List("ENVUTIL_LIST", nil); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("List: want=[a b] got=%v", got)
	}
	if got := r.Float("ENVUTIL_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float: want=0.25 got=%v", got)
	}
	if got := r.String("ENVUTIL_MISSING", "def"); got != "def" {
		t.Fatalf("String: want=def got=%s", got)
	}
}

func TestReaderPrefersEnvOverFallback(t *testing.T) {
	t.Setenv("ENVUTIL_LAYERED", "from-env")
	r := Reader{Fallback: map[string]string{
		"ENVUTIL_LAYERED":      "from-file",
		"ENVUTIL_FILE_ONLY":    "7",
		"ENVUTIL_FILE_SECONDS": "30",
	}}
	if got := r.String("ENVUTIL_LAYERED", ""); got != "from-env" {
		t.Fatalf("layered: want=from-env got=%s", got)
	}
	if got := r.Int("ENVUTIL_FILE_ONLY", 0); got != 7 {
		t.Fatalf("file only: want=7 got=%d", got)
	}
	if got := r.Seconds("ENVUTIL_FILE_SECONDS", 0); got != 30*time.Second {
		t.Fatalf("file seconds: want=30s got=%s", got)
	}
}
