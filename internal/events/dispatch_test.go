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

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/logging"
	"github.com/tomtom215/shelfmark/internal/metrics"
	"github.com/tomtom215/shelfmark/internal/models"
	"github.com/tomtom215/shelfmark/internal/recommend"
)

// recordingSink collects deliveries. When gate is set, every call blocks
// until it is closed, like a publish waiting on an unreachable broker.
type recordingSink struct {
	gate chan struct{}

	mu       sync.Mutex
	users    []int
	corrIDs  []string
	ctxErrs  []error
	received chan struct{}
}

func newRecordingSink(blocking bool) *recordingSink {
	s := &recordingSink{received: make(chan struct{}, 64)}
	if blocking {
		s.gate = make(chan struct{})
	}
	return s
}

func (s *recordingSink) RecommendationsDelivered(ctx context.Context, userID int, _ []models.Recommendation) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	s.users = append(s.users, userID)
	s.corrIDs = append(s.corrIDs, logging.CorrelationIDFromContext(ctx))
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	s.mu.Unlock()
	s.received <- struct{}{}
}

func runDispatcher(t *testing.T, d *DeliveryDispatcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("Serve did not return after cancel")
		}
	})
}

func TestDeliveryDispatcher_Delivers(t *testing.T) {
	sink := newRecordingSink(false)
	d := NewDeliveryDispatcher(sink, 4, zerolog.Nop())
	runDispatcher(t, d)

	reqCtx, cancelReq := context.WithCancel(logging.ContextWithCorrelationID(context.Background(), "corr-42"))
	d.RecommendationsDelivered(reqCtx, 42, []models.Recommendation{{ID: 1}})
	cancelReq()

	select {
	case <-sink.received:
	case <-time.After(time.Second):
		t.Fatal("delivery not forwarded to sink")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.users) != 1 || sink.users[0] != 42 {
		t.Errorf("users = %v, want [42]", sink.users)
	}
	if sink.corrIDs[0] != "corr-42" {
		t.Errorf("correlation id = %q, want corr-42", sink.corrIDs[0])
	}
	if sink.ctxErrs[0] != nil {
		t.Errorf("sink context error = %v, want nil after request cancel", sink.ctxErrs[0])
	}
}

func TestDeliveryDispatcher_DropsWhenFull(t *testing.T) {
	sink := newRecordingSink(true)
	defer close(sink.gate)

	d := NewDeliveryDispatcher(sink, 2, zerolog.Nop())
	before := testutil.ToFloat64(metrics.EventsDropped.WithLabelValues(TopicRecommendationDelivered))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for user := 1; user <= 5; user++ {
			d.RecommendationsDelivered(context.Background(), user, nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RecommendationsDelivered blocked on a full queue")
	}

	if d.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", d.Pending())
	}
	if got := testutil.ToFloat64(metrics.EventsDropped.WithLabelValues(TopicRecommendationDelivered)); got != before+3 {
		t.Errorf("dropped = %v, want %v", got, before+3)
	}
}

func TestDeliveryDispatcher_Defaults(t *testing.T) {
	d := NewDeliveryDispatcher(newRecordingSink(false), 0, zerolog.Nop())
	if cap(d.queue) != DefaultDeliveryBuffer {
		t.Errorf("buffer = %d, want %d", cap(d.queue), DefaultDeliveryBuffer)
	}
	if d.String() != "delivery-dispatcher" {
		t.Errorf("String() = %q", d.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

// staticStore serves a fixed catalog with no interactions.
type staticStore struct {
	books []models.Book
}

func (s *staticStore) ListItems(context.Context) ([]models.Book, error) {
	return s.books, nil
}

func (s *staticStore) ListInteractions(context.Context) ([]models.Interaction, error) {
	return nil, nil
}

func (s *staticStore) GetItem(_ context.Context, itemID int) (*models.Book, error) {
	for i := range s.books {
		if s.books[i].ID == itemID {
			b := s.books[i]
			return &b, nil
		}
	}
	return nil, fmt.Errorf("book %d: %w", itemID, models.ErrNotFound)
}

func (s *staticStore) GetUserHistory(context.Context, int) ([]int, error) {
	return nil, nil
}

func (s *staticStore) GetAllHistories(context.Context) (map[int][]int, error) {
	return map[int][]int{}, nil
}

func TestDeliveryDispatcher_RecommendDoesNotWaitForSink(t *testing.T) {
	sink := newRecordingSink(true)
	defer close(sink.gate)

	d := NewDeliveryDispatcher(sink, 1, zerolog.Nop())
	runDispatcher(t, d)

	store := &staticStore{books: []models.Book{
		{ID: 1, Title: "alpha", AvailableCopies: 1},
		{ID: 2, Title: "bravo", AvailableCopies: 1},
		{ID: 3, Title: "charlie", AvailableCopies: 1},
	}}
	engine, err := recommend.NewEngine(nil, store, nil, zerolog.Nop(), recommend.WithDeliveryListener(d))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if err := engine.RebuildCaches(context.Background()); err != nil {
		t.Fatalf("RebuildCaches() error = %v", err)
	}

	start := time.Now()
	for user := 1; user <= 5; user++ {
		recs, err := engine.Recommend(context.Background(), user, 3)
		if err != nil {
			t.Fatalf("Recommend(%d) error = %v", user, err)
		}
		if len(recs) == 0 {
			t.Fatalf("Recommend(%d) returned no items", user)
		}
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("five recommendations took %v with a stalled sink", elapsed)
	}
}
