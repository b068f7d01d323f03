// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package services

import (
	"context"
	"errors"
	"fmt"
)

// EventRouter matches the lifecycle of *events.Router.
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterFactory builds a fresh router. Watermill routers cannot be run
// twice, so every restart needs a new one.
type RouterFactory func() (EventRouter, error)

// EventRouterService runs the event router under supervision.
type EventRouterService struct {
	factory RouterFactory
	name    string
}

// NewEventRouterService wraps factory as a supervised service.
func NewEventRouterService(factory RouterFactory) *EventRouterService {
	return &EventRouterService{
		factory: factory,
		name:    "event-router",
	}
}

// Serve implements suture.Service. It returns when ctx is canceled or the
// router stops on its own, in which case suture restarts it.
func (s *EventRouterService) Serve(ctx context.Context) error {
	router, err := s.factory()
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Run(ctx)
	}()

	select {
	case err := <-errCh:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			err = errors.New("event router stopped unexpectedly")
		}
		return fmt.Errorf("event router failed: %w", err)

	case <-ctx.Done():
		closeErr := router.Close()
		<-errCh
		if closeErr != nil {
			return fmt.Errorf("event router close failed: %w", closeErr)
		}
		return ctx.Err()
	}
}

// String implements fmt.Stringer for logging.
func (s *EventRouterService) String() string {
	return s.name
}
