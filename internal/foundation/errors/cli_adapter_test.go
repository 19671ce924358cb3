package errors

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad manifest").Build(), 2},
		{"config", ConfigError("bad config").Build(), 7},
		{"filesystem", FileSystemError("mkdir failed").Build(), 11},
		{"not found", NotFoundError("missing").Build(), 11},
		{"transform", TransformError("parse error").Build(), 11},
		{"network", NetworkError("upload failed").Build(), 8},
		{"internal", InternalError("bug").Build(), 10},
		{"unclassified", errors.New("unknown error"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	err := WrapError(errors.New("unexpected }"), CategoryTransform, "stylesheet minification failed").
		WithContext("file", "styles.css").
		WithContext("line", 3).
		Build()

	got := adapter.FormatError(err)
	for _, want := range []string{"transform", "stylesheet minification failed", "file=styles.css", "line=3", "unexpected }"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatError() = %q, missing %q", got, want)
		}
	}

	if got := adapter.FormatError(errors.New("plain")); got != "Error: plain" {
		t.Errorf("FormatError(plain) = %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var stderr bytes.Buffer
	exitCode := -1

	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))
	adapter.stderr = &stderr
	adapter.exit = func(code int) { exitCode = code }

	adapter.HandleError(NotFoundError("source file missing").WithContext("file", "terms.html").Build())

	if exitCode != 11 {
		t.Errorf("expected exit code 11, got %d", exitCode)
	}
	if !strings.Contains(stderr.String(), "terms.html") {
		t.Errorf("stderr missing file name: %q", stderr.String())
	}
}
