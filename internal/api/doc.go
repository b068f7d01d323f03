// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

/*
Package api exposes the recommendation engine over HTTP using chi.

The surface is read-mostly: two ranked-list endpoints, a rebuild trigger,
status and health probes, Prometheus metrics, and two notification
endpoints through which the CRUD layer reports writes it has made.

Routes:

	GET  /api/v1/recommendations/user/{userID}?k=5   personalised list
	GET  /api/v1/recommendations/similar/{itemID}?k=5 similar books
	POST /api/v1/recommendations/rebuild[?wait=true]  rebuild caches
	GET  /api/v1/recommendations/status               snapshot status
	GET  /api/v1/health[/live|/ready]                 health probes
	POST /api/v1/events/interactions                  evict a user's cache
	POST /api/v1/events/catalog                       schedule a rebuild
	GET  /metrics                                     Prometheus

Every JSON response uses the envelope

	{"success": true, "data": {...}, "meta": {"request_id": "...", ...}}

and errors carry {"success": false, "error": {"code": "...", "message": "..."}}.
An empty recommendation list is a success with an explanatory message.

k defaults to the configured default and must lie in [0, max_k]; ids must
be positive. Both rules are enforced here, before the engine is called.

Middleware (in order): request id, real IP, panic recovery, CORS
(go-chi/cors), gzip, then per-group security headers, Prometheus
instrumentation and per-IP rate limiting (go-chi/httprate).

The event routes are mounted only when the handler has a publisher.
*/
package api
