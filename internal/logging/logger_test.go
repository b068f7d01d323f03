// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// restoreGlobal puts the default logger and level back after a test that
// calls Init.
func restoreGlobal(t *testing.T) {
	t.Helper()
	level := zerolog.GlobalLevel()
	t.Cleanup(func() {
		Init(DefaultConfig())
		zerolog.SetGlobalLevel(level)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "json" || cfg.Service != DefaultService {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if cfg.Output == nil {
		t.Error("Output should default to stderr")
	}
}

func TestInit(t *testing.T) {
	restoreGlobal(t)

	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf, NoTimestamp: true})

	Debug().Int("items", 12).Msg("Caches rebuilt")

	out := buf.String()
	for _, want := range []string{`"level":"debug"`, `"service":"shelfmark"`, `"items":12`, `"message":"Caches rebuilt"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
	if strings.Contains(out, `"time"`) {
		t.Errorf("NoTimestamp should drop the time field: %s", out)
	}
}

func TestInit_ConsoleFormat(t *testing.T) {
	restoreGlobal(t)

	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Output: &buf, Service: "shelfmark-test"})

	Info().Msg("Server starting")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("console output should not be JSON: %s", out)
	}
	if !strings.Contains(out, "Server starting") || !strings.Contains(out, "shelfmark-test") {
		t.Errorf("unexpected console output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{" ERROR ", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetLevelString(t *testing.T) {
	restoreGlobal(t)

	SetLevelString("warn")
	if GetLevel() != zerolog.WarnLevel {
		t.Fatalf("GetLevel() = %v, want warn", GetLevel())
	}

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	Info().Msg("filtered")
	Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "filtered") || !strings.Contains(out, "kept") {
		t.Errorf("level filter not applied: %s", out)
	}
}

func TestErr(t *testing.T) {
	restoreGlobal(t)

	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	Err(errors.New("store unreachable")).Msg("Rebuild failed")
	Error().Str("op", "list_items").Msg("Query failed")

	out := buf.String()
	if !strings.Contains(out, `"error":"store unreachable"`) || !strings.Contains(out, `"op":"list_items"`) {
		t.Errorf("unexpected output: %s", out)
	}
}
