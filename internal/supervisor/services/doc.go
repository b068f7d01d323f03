// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

// Package services adapts shelfmark's long-running components to the
// suture.Service interface.
//
//   - HTTPServerService: the recommendation API server
//   - RebuildService: startup and periodic snapshot rebuilds
//   - EventRouterService: the Watermill event router
//
// Each wrapper depends on a small interface rather than the concrete
// component, so the services can be tested with mocks.
package services
