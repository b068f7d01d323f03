// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type mockEventRouter struct {
	runErr     error
	closeErr   error
	runCount   atomic.Int32
	closeCount atomic.Int32
	stop       chan struct{}
}

func newMockEventRouter() *mockEventRouter {
	return &mockEventRouter{stop: make(chan struct{})}
}

func (m *mockEventRouter) Run(ctx context.Context) error {
	m.runCount.Add(1)
	if m.runErr != nil {
		return m.runErr
	}
	select {
	case <-ctx.Done():
	case <-m.stop:
	}
	return nil
}

func (m *mockEventRouter) Close() error {
	if m.closeCount.Add(1) == 1 {
		close(m.stop)
	}
	return m.closeErr
}

func TestEventRouterService_Interface(t *testing.T) {
	var _ suture.Service = (*EventRouterService)(nil)
	svc := NewEventRouterService(nil)
	if svc.String() != "event-router" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestEventRouterService_Serve(t *testing.T) {
	t.Run("closes router on cancellation", func(t *testing.T) {
		router := newMockEventRouter()
		svc := NewEventRouterService(func() (EventRouter, error) { return router, nil })

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve() did not return")
		}
		if router.runCount.Load() != 1 {
			t.Errorf("Run() called %d times", router.runCount.Load())
		}
	})

	t.Run("factory error", func(t *testing.T) {
		factoryErr := errors.New("nats unreachable")
		svc := NewEventRouterService(func() (EventRouter, error) { return nil, factoryErr })
		if err := svc.Serve(context.Background()); !errors.Is(err, factoryErr) {
			t.Errorf("Serve() = %v, want factory error", err)
		}
	})

	t.Run("router failure", func(t *testing.T) {
		runErr := errors.New("subscribe failed")
		router := newMockEventRouter()
		router.runErr = runErr
		svc := NewEventRouterService(func() (EventRouter, error) { return router, nil })
		if err := svc.Serve(context.Background()); !errors.Is(err, runErr) {
			t.Errorf("Serve() = %v, want run error", err)
		}
	})
}

func TestEventRouterService_RestartedWithFreshRouter(t *testing.T) {
	var built atomic.Int32
	svc := NewEventRouterService(func() (EventRouter, error) {
		router := newMockEventRouter()
		if built.Add(1) == 1 {
			router.runErr = errors.New("first run fails")
		}
		return router, nil
	})

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 5,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	errCh := sup.ServeBackground(ctx)

	time.Sleep(100 * time.Millisecond)
	if n := built.Load(); n < 2 {
		t.Errorf("expected the router to be rebuilt after a failure, built %d", n)
	}

	cancel()
	<-errCh
}
