package util

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestDiagnostics(t *testing.T) {
	var log bytes.Buffer
	old := slog.Default()
	InitLogger(LogConfig{Output: &log})
	defer slog.SetDefault(old)

	var ds Diagnostics
	ds.Add(DiagType, 4, "symbol %q is not a variable", "v")
	ds.Add(DiagWarning, 7, "relational operation with incompatible types")
	if log.Len() != 0 {
		t.Errorf("diagnostics logged at default level: %s", log.String())
	}
	if ds.Count(DiagType) != 1 || ds.Count(DiagWarning) != 1 || ds.Count(DiagStructural) != 0 {
		t.Errorf("unexpected counts: %v", ds)
	}

	var out bytes.Buffer
	ds.Print(&out, "a.mp", false)
	want := "a.mp: type error: node 4: symbol \"v\" is not a variable\n" +
		"a.mp: warning: node 7: relational operation with incompatible types\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
	if n := strings.Count(out.String(), "\n"); n != 2 {
		t.Errorf("got %d lines, want 2", n)
	}
}
