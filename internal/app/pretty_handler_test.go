package app

import (
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandlerRendersKeyValues(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	log := slog.New(newPrettyHandler(&buf, slog.LevelInfo, false))

	log.Info("http.request", "method", "GET", "path", "/health", "status", 200)

	out := buf.String()
	if !strings.Contains(out, "[INFO]") {
		t.Fatalf("missing level tag: %q", out)
	}
	if !strings.Contains(out, "http.request") {
		t.Fatalf("missing message: %q", out)
	}
	if !strings.Contains(out, "method=GET") || !strings.Contains(out, "status=200") {
		t.Fatalf("missing attrs: %q", out)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	log := slog.New(newPrettyHandler(&buf, slog.LevelWarn, false))

	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	t.Parallel()

	if got := quoteIfNeeded("plain"); got != "plain" {
		t.Fatalf("quoteIfNeeded(plain)=%q", got)
	}
	if got := quoteIfNeeded("two words"); got != `"two words"` {
		t.Fatalf("quoteIfNeeded(two words)=%q", got)
	}
	if got := quoteIfNeeded(""); got != `""` {
		t.Fatalf("quoteIfNeeded(empty)=%q", got)
	}
}
