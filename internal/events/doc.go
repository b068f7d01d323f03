// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

// Package events connects the recommendation engine to the library's event
// stream using Watermill.
//
// # Topics
//
//   - catalog.changed: books were added, edited or removed; triggers a
//     debounced snapshot rebuild
//   - interaction.recorded: a user acted on a book; evicts that user's
//     cached recommendation lists
//   - recommendation.delivered: a list was served; appended to
//     recommendation_logs
//
// # Transports
//
// The "memory" transport uses Watermill's in-process gochannel pub/sub and
// suits single-instance deployments. The "nats" transport uses NATS
// JetStream through watermill-nats, with a queue group so that each event
// is handled by one instance.
//
// # Deliveries
//
// DeliveryDispatcher sits between the engine and Publisher. Serving a list
// only enqueues the delivery event; the dispatcher service publishes it.
// A full queue drops the event and counts it in events_dropped_total.
//
// # Handlers
//
// Router registers one handler per topic behind Recoverer and Retry
// middleware. Payloads are JSON encoded with goccy/go-json.
package events
