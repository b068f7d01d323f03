// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

// Package logging provides the zerolog-based structured logging used by
// every Shelfmark component.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("addr", addr).Msg("HTTP server service added")
//	logging.Ctx(ctx).Warn().Int("item_id", id).Msg("Skipping deleted item")
//
// Components take a zerolog.Logger by value and tag it once:
//
//	logger = logger.With().Str("component", "engine").Logger()
//
// # Configuration
//
//	LOG_LEVEL   trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  json, console (default: json)
//	LOG_CALLER  true, false (default: false)
//
// The level can be changed at runtime through SetLevelString; the server
// does so when the config file changes.
//
// # Correlation
//
// The HTTP request id middleware stores a request id and a correlation id in
// the request context, and the event router stores a correlation id per
// consumed message. Ctx attaches both to every entry, so a served list, its
// delivery event and the delivery log row share one correlation_id.
//
// # Adapters
//
//   - NewSlogLogger: *slog.Logger for sutureslog (supervisor events)
//   - NewWatermillAdapter: watermill.LoggerAdapter for the event router
//
// Output formats:
//
//	{"level":"info","service":"shelfmark","time":"2026-01-03T10:30:00Z","message":"Caches rebuilt","items":1200}
//	10:30:00 INF Caches rebuilt items=1200 service=shelfmark
package logging
