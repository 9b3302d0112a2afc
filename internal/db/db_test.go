package db

import (
	"strings"
	"testing"
)

func TestNormalizeDSNAddsPragmas(t *testing.T) {
	got := NormalizeDSN("pos.db")
	if !strings.HasPrefix(got, "pos.db?") {
		t.Fatalf("got %q", got)
	}
	for _, pragma := range []string{"_journal_mode=WAL", "_busy_timeout=5000", "_foreign_keys=on"} {
		if !strings.Contains(got, pragma) {
			t.Fatalf("missing %s in %q", pragma, got)
		}
	}
}

func TestNormalizeDSNKeepsExplicitParams(t *testing.T) {
	dsn := "file:test?mode=memory&cache=shared"
	if got := NormalizeDSN(dsn); got != dsn {
		t.Fatalf("got %q, want unchanged", got)
	}
}

func TestNormalizeDSNEmpty(t *testing.T) {
	if got := NormalizeDSN(""); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
