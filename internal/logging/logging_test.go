package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	defaultLogger = slog.New(handler)

	f()

	defaultLogger = oldLogger
	return buf.String()
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  Level
		format Format
	}{
		{
			name:   "Debug level JSON format",
			level:  LevelDebug,
			format: FormatJSON,
		},
		{
			name:   "Info level JSON format",
			level:  LevelInfo,
			format: FormatJSON,
		},
		{
			name:   "Warn level Text format",
			level:  LevelWarn,
			format: FormatText,
		},
		{
			name:   "Error level Text format",
			level:  LevelError,
			format: FormatText,
		},
		{
			name:   "Default level (invalid value)",
			level:  Level(999),
			format: FormatJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitLogger(tt.level, tt.format)
			if GetLogger() == nil {
				t.Error("Expected logger to be initialized, got nil")
			}
		})
	}

	InitLogger(LevelInfo, FormatJSON)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"nonsense", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestWithConversionID(t *testing.T) {
	ctx := context.Background()
	conversionID := "conv-abc123"

	newCtx := WithConversionID(ctx, conversionID)

	if got := GetConversionID(newCtx); got != conversionID {
		t.Errorf("Expected conversion ID %s, got %s", conversionID, got)
	}
}

func TestGetConversionIDEmpty(t *testing.T) {
	if got := GetConversionID(context.Background()); got != "" {
		t.Errorf("Expected empty conversion ID, got %s", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	ctx := WithConversionID(context.Background(), "conv-xyz")

	output := captureLogOutput(func() {
		InfoContext(ctx, "test message")
	})

	if !strings.Contains(output, "conv-xyz") {
		t.Errorf("Expected conversion_id in output, got: %s", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected message in output, got: %s", output)
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{
			name: "Debug",
			log:  func() { Debug("debug msg", "key", "value") },
			want: "debug msg",
		},
		{
			name: "Info",
			log:  func() { Info("info msg", "key", "value") },
			want: "info msg",
		},
		{
			name: "Warn",
			log:  func() { Warn("warn msg", "key", "value") },
			want: "warn msg",
		},
		{
			name: "Error",
			log:  func() { Error("error msg", "key", "value") },
			want: "error msg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureLogOutput(tt.log)
			if !strings.Contains(output, tt.want) {
				t.Errorf("Expected %q in output, got: %s", tt.want, output)
			}
			if !strings.Contains(output, `"key":"value"`) {
				t.Errorf("Expected key-value pair in output, got: %s", output)
			}
		})
	}
}

func TestConversionStart(t *testing.T) {
	output := captureLogOutput(func() {
		ConversionStart("markdown", "html", 2048, "source", "doc.md")
	})

	for _, want := range []string{"conversion_start", `"from":"markdown"`, `"to":"html"`, `"input_bytes":2048`, `"source":"doc.md"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output, got: %s", want, output)
		}
	}
}

func TestConversionDone(t *testing.T) {
	output := captureLogOutput(func() {
		ConversionDone("markdown", "html", 4096, 2, 150*time.Millisecond)
	})

	for _, want := range []string{"conversion_done", `"output_bytes":4096`, `"warnings":2`, `"duration_ms":150`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output, got: %s", want, output)
		}
	}
}

func TestConversionError(t *testing.T) {
	output := captureLogOutput(func() {
		ConversionError("bibtex", "ris", errors.New("unbalanced braces"))
	})

	for _, want := range []string{"conversion_error", "unbalanced braces"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output, got: %s", want, output)
		}
	}
}

func TestFormatDetected(t *testing.T) {
	output := captureLogOutput(func() {
		FormatDetected("opml", "extension")
	})

	for _, want := range []string{"format_detected", `"format":"opml"`, `"method":"extension"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output, got: %s", want, output)
		}
	}
}

func TestTransformApplied(t *testing.T) {
	output := captureLogOutput(func() {
		TransformApplied("shift-headings", "delta", 1)
	})

	for _, want := range []string{"transform_applied", `"transform":"shift-headings"`, `"delta":1`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output, got: %s", want, output)
		}
	}
}
