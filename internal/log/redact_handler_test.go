package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestRedactHandler_MasksSensitiveKeys tests that credential-bearing
// attribute keys are masked.
func TestRedactHandler_MasksSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{
			name:     "cookie key is masked",
			key:      "cookie",
			value:    "token_v2=abc123",
			wantMask: true,
		},
		{
			name:     "Cookie key (uppercase) is masked",
			key:      "Cookie",
			value:    "token_v2=abc123",
			wantMask: true,
		},
		{
			name:     "cookies key is masked",
			key:      "cookies",
			value:    "token_v2=abc123; other=x",
			wantMask: true,
		},
		{
			name:     "authorization key is masked",
			key:      "authorization",
			value:    "Bearer token123",
			wantMask: true,
		},
		{
			name:     "session_id key is masked",
			key:      "session_id",
			value:    "sess_12345",
			wantMask: true,
		},
		{
			name:     "keyword inside a longer key is masked",
			key:      "browser_cookie_header",
			value:    "token_v2=abc123",
			wantMask: true,
		},
		{
			name:     "url key is not masked",
			key:      "url",
			value:    "https://site.example/page",
			wantMask: false,
		},
		{
			name:     "page id is not masked",
			key:      "page",
			value:    "29d979ee1aa84a6c92b7a5c0d1e2f3a4",
			wantMask: false,
		},
		{
			name:     "save path is not masked",
			key:      "path",
			value:    "/tmp/mirror/About/index.html",
			wantMask: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewRedactHandler(slog.NewTextHandler(&buf, nil)))
			logger.Info("test message", tt.key, tt.value)

			output := buf.String()
			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("output contains raw value %q: %s", tt.value, output)
				}
				if !strings.Contains(output, MaskValue) {
					t.Errorf("output missing mask: %s", output)
				}
			} else {
				if !strings.Contains(output, tt.value) {
					t.Errorf("output should contain %q: %s", tt.value, output)
				}
			}
		})
	}
}

// TestRedactHandler_MasksSensitiveValues tests value-shape based masking.
func TestRedactHandler_MasksSensitiveValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		wantMask bool
	}{
		{
			name:     "JWT token is masked",
			value:    "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig",
			wantMask: true,
		},
		{
			name:     "bearer token is masked",
			value:    "Bearer abcdef123456",
			wantMask: true,
		},
		{
			name:     "session cookie pair is masked",
			value:    "token_v2=v02%3Auser_token",
			wantMask: true,
		},
		{
			name:     "plain 32-hex page identifier is not masked",
			value:    "29d979ee1aa84a6c92b7a5c0d1e2f3a4",
			wantMask: false,
		},
		{
			name:     "plain URL is not masked",
			value:    "https://site.example/About",
			wantMask: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewRedactHandler(slog.NewTextHandler(&buf, nil)))
			logger.Info("test message", "detail", tt.value)

			output := buf.String()
			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("output contains raw value %q: %s", tt.value, output)
				}
			} else {
				if !strings.Contains(output, tt.value) {
					t.Errorf("output should contain %q: %s", tt.value, output)
				}
			}
		})
	}
}

// TestRedactHandler_Groups tests that grouped attributes are masked
// recursively.
func TestRedactHandler_Groups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewRedactHandler(slog.NewTextHandler(&buf, nil)))
	logger.Info("worker init",
		slog.Group("session",
			"cookie", "token_v2=abc123",
			"host", "site.example",
		),
	)

	output := buf.String()
	if strings.Contains(output, "token_v2=abc123") {
		t.Errorf("grouped cookie value leaked: %s", output)
	}
	if !strings.Contains(output, "site.example") {
		t.Errorf("non-sensitive group member should survive: %s", output)
	}
}

// TestRedactHandler_WithAttrs tests that attributes attached via With are
// masked.
func TestRedactHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewRedactHandler(slog.NewTextHandler(&buf, nil)))
	logger.With("token", "secret-value-1").Info("attached")

	output := buf.String()
	if strings.Contains(output, "secret-value-1") {
		t.Errorf("With attribute leaked: %s", output)
	}
}

// TestNewLogger tests level selection.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("verbose enables debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)
		logger.Debug("debug line")
		if !strings.Contains(buf.String(), "debug line") {
			t.Error("verbose logger should emit debug records")
		}
	})

	t.Run("quiet suppresses info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)
		logger.Info("info line")
		if buf.Len() != 0 {
			t.Errorf("quiet logger should suppress info records, got: %s", buf.String())
		}
	})
}
