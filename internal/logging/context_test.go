// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGenerateCorrelationID(t *testing.T) {
	a, b := GenerateCorrelationID(), GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("len = %d, want 8", len(a))
	}
	if a == b {
		t.Error("correlation ids should differ")
	}
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" {
		t.Fatal("empty context should carry no ids")
	}

	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithRequestID(ctx, "req-1")
	if got := CorrelationIDFromContext(ctx); got != "corr-1" {
		t.Errorf("correlation id = %q", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("request id = %q", got)
	}

	fresh := ContextWithNewCorrelationID(context.Background())
	if len(CorrelationIDFromContext(fresh)) != 8 {
		t.Errorf("new correlation id = %q", CorrelationIDFromContext(fresh))
	}
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).With().Str("component", "engine").Logger()

	ctx := ContextWithLogger(context.Background(), base)
	ctx = ContextWithCorrelationID(ctx, "corr-7")
	ctx = ContextWithRequestID(ctx, "req-7")

	Ctx(ctx).Info().Int("user_id", 42).Msg("Recommendations served")
	CtxWarn(ctx).Msg("Skipping deleted item")
	CtxErr(ctx, errors.New("timeout")).Msg("Store failed")
	CtxInfo(ctx).Msg("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4: %s", len(lines), buf.String())
	}
	for _, line := range lines {
		for _, want := range []string{`"component":"engine"`, `"correlation_id":"corr-7"`, `"request_id":"req-7"`} {
			if !strings.Contains(line, want) {
				t.Errorf("line missing %s: %s", want, line)
			}
		}
	}
	if !strings.Contains(lines[2], `"error":"timeout"`) {
		t.Errorf("CtxErr line = %s", lines[2])
	}
}

func TestCtx_FallsBackToGlobal(t *testing.T) {
	restoreGlobal(t)

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	Ctx(context.Background()).Info().Msg("global")

	out := buf.String()
	if !strings.Contains(out, `"message":"global"`) {
		t.Errorf("output = %s", out)
	}
	if strings.Contains(out, "correlation_id") || strings.Contains(out, "request_id") {
		t.Errorf("no ids expected: %s", out)
	}
}
