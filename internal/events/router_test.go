// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/database"
	"github.com/tomtom215/shelfmark/internal/models"
)

type mockEngine struct {
	mu          sync.Mutex
	rebuilds    int
	invalidated []int
}

func (m *mockEngine) RebuildCaches(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebuilds++
	return nil
}

func (m *mockEngine) InvalidateUser(userID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, userID)
	return 1
}

func (m *mockEngine) snapshot() (int, []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rebuilds, append([]int(nil), m.invalidated...)
}

type loggedDelivery struct {
	userID int
	recs   []models.Recommendation
}

type mockDeliveryLog struct {
	mu    sync.Mutex
	calls []loggedDelivery
	err   error
}

func (m *mockDeliveryLog) InsertRecommendationLog(_ context.Context, userID int, recs []models.Recommendation, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, loggedDelivery{userID: userID, recs: recs})
	return m.err
}

func (m *mockDeliveryLog) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func testRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         time.Second,
		RetryMaxRetries:      2,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     5 * time.Millisecond,
		RebuildDebounce:      50 * time.Millisecond,
		RebuildTimeout:       time.Second,
	}
}

// startRouter runs a router on a fresh in-memory transport and returns a
// publisher on the same bus.
func startRouter(t *testing.T, engine Engine, deliveries DeliveryLog) (*Publisher, *Transport) {
	t.Helper()

	transport := NewMemoryTransport(nil)
	router, err := NewRouter(testRouterConfig(), transport, engine, deliveries, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- router.Run(ctx) }()

	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	t.Cleanup(func() {
		cancel()
		<-done
		_ = transport.Close()
	})

	return NewPublisher(transport.Publisher, zerolog.Nop()), transport
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNewRouter_Validation(t *testing.T) {
	if _, err := NewRouter(testRouterConfig(), nil, &mockEngine{}, nil, zerolog.Nop()); err == nil {
		t.Error("expected error without transport")
	}
	if _, err := NewRouter(testRouterConfig(), NewMemoryTransport(nil), nil, nil, zerolog.Nop()); err == nil {
		t.Error("expected error without engine")
	}
}

func TestRouter_InteractionInvalidatesUser(t *testing.T) {
	engine := &mockEngine{}
	pub, _ := startRouter(t, engine, nil)

	item := 3
	err := pub.PublishInteractionRecorded(context.Background(), InteractionRecorded{
		UserID: 7,
		ItemID: &item,
		Action: models.ActionBorrow,
	})
	if err != nil {
		t.Fatalf("PublishInteractionRecorded() error = %v", err)
	}

	waitFor(t, "invalidation", func() bool {
		_, users := engine.snapshot()
		return len(users) == 1 && users[0] == 7
	})
}

func TestRouter_CatalogChangesAreDebounced(t *testing.T) {
	engine := &mockEngine{}
	pub, _ := startRouter(t, engine, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := pub.PublishCatalogChanged(ctx, CatalogChanged{ItemIDs: []int{i + 1}, Reason: "edit"}); err != nil {
			t.Fatalf("PublishCatalogChanged() error = %v", err)
		}
	}

	waitFor(t, "rebuild", func() bool {
		rebuilds, _ := engine.snapshot()
		return rebuilds > 0
	})

	time.Sleep(150 * time.Millisecond)
	if rebuilds, _ := engine.snapshot(); rebuilds != 1 {
		t.Errorf("expected a burst of catalog changes to trigger 1 rebuild, got %d", rebuilds)
	}
}

func TestRouter_DeliveryLogged(t *testing.T) {
	engine := &mockEngine{}
	deliveries := &mockDeliveryLog{}
	pub, _ := startRouter(t, engine, deliveries)

	recs := []models.Recommendation{
		{ID: 4, Score: 0.9, Type: models.ProvenanceHybrid},
		{ID: 9, Score: 0.1, Type: models.ProvenancePopular},
	}
	pub.RecommendationsDelivered(context.Background(), 12, recs)

	waitFor(t, "delivery log", func() bool { return deliveries.count() == 1 })

	deliveries.mu.Lock()
	got := deliveries.calls[0]
	deliveries.mu.Unlock()
	if got.userID != 12 || len(got.recs) != 2 || got.recs[0].ID != 4 || got.recs[1].Type != models.ProvenancePopular {
		t.Errorf("unexpected logged delivery: %+v", got)
	}
}

func TestRouter_DeliveryErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{"missing table is not retried", fmt.Errorf("recommendation_logs: %w", database.ErrTableMissing), 1},
		{"store failure is retried", errors.New("disk full"), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deliveries := &mockDeliveryLog{err: tt.err}
			pub, _ := startRouter(t, &mockEngine{}, deliveries)

			pub.RecommendationsDelivered(context.Background(), 1, []models.Recommendation{{ID: 2, Type: models.ProvenanceGeneral}})

			waitFor(t, "delivery attempts", func() bool { return deliveries.count() >= tt.wantCalls })
			time.Sleep(50 * time.Millisecond)
			if n := deliveries.count(); n != tt.wantCalls {
				t.Errorf("expected %d attempts, got %d", tt.wantCalls, n)
			}
		})
	}
}

func TestRouter_MalformedEventDropped(t *testing.T) {
	engine := &mockEngine{}
	pub, transport := startRouter(t, engine, nil)

	if err := transport.Publisher.Publish(TopicInteractionRecorded, message.NewMessage("bad-1", []byte("not json"))); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := pub.PublishInteractionRecorded(context.Background(), InteractionRecorded{UserID: 5, Action: models.ActionView}); err != nil {
		t.Fatalf("PublishInteractionRecorded() error = %v", err)
	}

	waitFor(t, "valid event after malformed one", func() bool {
		_, users := engine.snapshot()
		return len(users) == 1
	})
	if _, users := engine.snapshot(); users[0] != 5 {
		t.Errorf("invalidated users = %v, want [5]", users)
	}
}
