package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureLogOutput temporarily points the global logger at a buffer.
func captureLogOutput(f func()) string {
	var buf bytes.Buffer
	oldLogger := defaultLogger
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f()
	defaultLogger = oldLogger
	return buf.String()
}

// captureLogOutputWithInit runs InitLogger against a buffer so that the
// handler options are exercised too.
func captureLogOutputWithInit(level Level, format Format, f func()) string {
	var buf bytes.Buffer
	oldOutput := output
	SetOutput(&buf)
	InitLogger(level, format)
	f()
	SetOutput(oldOutput)
	InitLogger(LevelInfo, FormatText)
	return buf.String()
}

// decode parses a single JSON log line.
func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &m); err != nil {
		t.Fatalf("log line is not JSON: %q: %v", line, err)
	}
	return m
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		format    Format
		debugSeen bool
		infoSeen  bool
	}{
		{"debug json", LevelDebug, FormatJSON, true, true},
		{"info json", LevelInfo, FormatJSON, false, true},
		{"warn text", LevelWarn, FormatText, false, false},
		{"error text", LevelError, FormatText, false, false},
		{"invalid level defaults to info", Level(999), FormatJSON, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureLogOutputWithInit(tt.level, tt.format, func() {
				Debug("debug-msg")
				Info("info-msg")
			})
			if got := strings.Contains(out, "debug-msg"); got != tt.debugSeen {
				t.Errorf("debug visible = %v, want %v", got, tt.debugSeen)
			}
			if got := strings.Contains(out, "info-msg"); got != tt.infoSeen {
				t.Errorf("info visible = %v, want %v", got, tt.infoSeen)
			}
		})
	}
}

func TestTimestampFormat(t *testing.T) {
	out := captureLogOutputWithInit(LevelInfo, FormatJSON, func() {
		Info("timestamp test")
	})
	m := decode(t, out)
	ts, _ := m["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestSessionIDContext(t *testing.T) {
	ctx := WithSessionID(context.Background(), "s-1")
	if got := GetSessionID(ctx); got != "s-1" {
		t.Errorf("GetSessionID = %q", got)
	}
	if got := GetSessionID(context.Background()); got != "" {
		t.Errorf("GetSessionID on empty context = %q", got)
	}

	out := captureLogOutput(func() {
		InfoContext(ctx, "with session")
	})
	if m := decode(t, out); m["session_id"] != "s-1" {
		t.Errorf("session_id = %v", m["session_id"])
	}
}

func TestLoggingFunctions(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		fn    func()
		level string
	}{
		{"debug", func() { Debug("m") }, "DEBUG"},
		{"info", func() { Info("m") }, "INFO"},
		{"warn", func() { Warn("m") }, "WARN"},
		{"error", func() { Error("m") }, "ERROR"},
		{"debug context", func() { DebugContext(ctx, "m") }, "DEBUG"},
		{"info context", func() { InfoContext(ctx, "m") }, "INFO"},
		{"warn context", func() { WarnContext(ctx, "m") }, "WARN"},
		{"error context", func() { ErrorContext(ctx, "m") }, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decode(t, captureLogOutput(tt.fn))
			if m["level"] != tt.level || m["msg"] != "m" {
				t.Errorf("record = %v", m)
			}
		})
	}
}

func TestDomainEvents(t *testing.T) {
	ctx := WithSessionID(context.Background(), "abc")
	tests := []struct {
		name   string
		fn     func()
		msg    string
		level  string
		fields map[string]any
	}{
		{
			name:   "compile",
			fn:     func() { CompileEvent("saga.txt", true, 120, 3*time.Millisecond) },
			msg:    "compile",
			level:  "INFO",
			fields: map[string]any{"source": "saga.txt", "multi_level": true, "output_bytes": float64(120), "duration_ms": float64(3)},
		},
		{
			name:   "import",
			fn:     func() { ImportEvent(ctx, "saga.xml", 42, false) },
			msg:    "import",
			level:  "INFO",
			fields: map[string]any{"source": "saga.xml", "segments": float64(42), "session_id": "abc"},
		},
		{
			name:   "patch",
			fn:     func() { PatchEvent(ctx, 10, 1, 2, 3, "extra", "x") },
			msg:    "patch",
			level:  "INFO",
			fields: map[string]any{"kept": float64(10), "modified": float64(1), "inserted": float64(2), "deleted": float64(3), "extra": "x"},
		},
		{
			name:   "validation ok",
			fn:     func() { ValidationEvent("tei.rng", true, 0, time.Millisecond) },
			msg:    "validation",
			level:  "INFO",
			fields: map[string]any{"schema": "tei.rng", "valid": true},
		},
		{
			name:   "validation failed",
			fn:     func() { ValidationEvent("tei.rng", false, 2, time.Millisecond) },
			msg:    "validation",
			level:  "WARN",
			fields: map[string]any{"diagnostics": float64(2), "valid": false},
		},
		{
			name:   "fault",
			fn:     func() { ValidationFault("tei.rng", errors.New("engine crashed")) },
			msg:    "validation_fault",
			level:  "ERROR",
			fields: map[string]any{"fault": "engine crashed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decode(t, captureLogOutput(tt.fn))
			if m["msg"] != tt.msg || m["level"] != tt.level {
				t.Errorf("msg/level = %v/%v, want %s/%s", m["msg"], m["level"], tt.msg, tt.level)
			}
			for k, want := range tt.fields {
				if m[k] != want {
					t.Errorf("%s = %v (%T), want %v", k, m[k], m[k], want)
				}
			}
		})
	}
}

func TestInit(t *testing.T) {
	if defaultLogger == nil {
		t.Error("Expected defaultLogger to be initialized by init()")
	}
	if SessionIDKey != "session_id" {
		t.Errorf("SessionIDKey = %q", SessionIDKey)
	}
}
