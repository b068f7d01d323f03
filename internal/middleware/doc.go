// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

/*
Package middleware provides HTTP middleware shared by the API router.

Key Components:

  - RequestID: assigns X-Request-ID and seeds the logging context with
    request and correlation ids
  - PrometheusMetrics: request counts, latency and in-flight gauge,
    labelled by chi route pattern

Both take and return http.HandlerFunc; the api package adapts them to chi's
func(http.Handler) http.Handler form.

Usage Example:

	r := chi.NewRouter()
	r.Use(chiMiddleware(middleware.RequestID))
	r.Route("/api/v1/recommendations", func(r chi.Router) {
	    r.Use(chiMiddleware(middleware.PrometheusMetrics))
	    r.Get("/user/{userID}", h.UserRecommendations)
	})
*/
package middleware
