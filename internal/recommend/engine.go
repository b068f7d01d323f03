// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/shelfmark/internal/logging"
	"github.com/tomtom215/shelfmark/internal/metrics"
	"github.com/tomtom215/shelfmark/internal/models"
	"github.com/tomtom215/shelfmark/internal/recommend/algorithms"
	"github.com/tomtom215/shelfmark/internal/recommend/features"
)

// rebuildKey is the singleflight key shared by every rebuild caller.
const rebuildKey = "rebuild"

// DataProvider is the read-only view of the catalog and interaction log.
// It is implemented by the database package.
type DataProvider interface {
	// ListItems returns every catalog item.
	ListItems(ctx context.Context) ([]models.Book, error)

	// ListInteractions returns the interaction log.
	ListInteractions(ctx context.Context) ([]models.Interaction, error)

	// GetItem returns one catalog item or an error wrapping models.ErrNotFound.
	GetItem(ctx context.Context, itemID int) (*models.Book, error)

	// GetUserHistory returns the distinct item ids the user borrowed or
	// purchased.
	GetUserHistory(ctx context.Context, userID int) ([]int, error)

	// GetAllHistories returns GetUserHistory for every user.
	GetAllHistories(ctx context.Context) (map[int][]int, error)
}

// DeliveryListener is notified after a non-empty list has been served. It
// is called on the request goroutine and must not block.
type DeliveryListener interface {
	RecommendationsDelivered(ctx context.Context, userID int, recs []models.Recommendation)
}

// Engine is the hybrid orchestrator. It owns the derived caches as an
// atomically swapped snapshot and holds no per-request state, so it is safe
// for concurrent use.
type Engine struct {
	config    *Config
	logger    zerolog.Logger
	store     DataProvider
	extractor *features.Extractor
	listener  DeliveryListener

	current atomic.Pointer[snapshot]
	version atomic.Int64
	group   singleflight.Group

	rebuilding atomic.Bool
	statusMu   sync.RWMutex
	rebuilds   int64
	lastBuild  time.Time
	lastErr    error

	cache *responseCache
}

// Option configures an Engine.
type Option func(*Engine)

// WithDeliveryListener registers a listener for served recommendations.
func WithDeliveryListener(l DeliveryListener) Option {
	return func(e *Engine) {
		e.listener = l
	}
}

// NewEngine creates a new recommendation engine. No data is read until the
// first rebuild, which happens lazily on the first request if RebuildCaches
// was not called at startup.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(cfg *Config, store DataProvider, extractor *features.Extractor, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, errors.New("data provider is required")
	}
	if extractor == nil {
		var err error
		if extractor, err = features.NewExtractor(logger); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		config:    cfg.Clone(),
		logger:    logger.With().Str("component", "recommend").Logger(),
		store:     store,
		extractor: extractor,
		cache:     newResponseCache(cfg.Cache),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// HasDenseEmbeddings reports the dense capability fixed at construction.
func (e *Engine) HasDenseEmbeddings() bool {
	return e.extractor.HasDenseEmbeddings()
}

// Recommend returns up to k personalised recommendations for userID.
//
// Candidates come from content similarity (k*3), association rules (k*3)
// and popularity (k*2). Each list contributes w*(1-i/n) per item; the sums
// are ranked, truncated to k, backfilled from popularity at BackfillScore
// and resolved against the catalog. Items in the user's history are never
// returned. The only error is ErrInvalidArgument.
func (e *Engine) Recommend(ctx context.Context, userID, k int) ([]models.Recommendation, error) {
	start := time.Now()
	if userID <= 0 {
		metrics.RecordRecommendation("user", "invalid", time.Since(start))
		return nil, fmt.Errorf("%w: user id must be positive, got %d", ErrInvalidArgument, userID)
	}
	if k < 0 {
		metrics.RecordRecommendation("user", "invalid", time.Since(start))
		return nil, fmt.Errorf("%w: k must be non-negative, got %d", ErrInvalidArgument, k)
	}
	if k == 0 {
		return []models.Recommendation{}, nil
	}

	logger := e.requestLogger(ctx).With().Int("user_id", userID).Int("k", k).Logger()

	snap := e.snapshot(ctx)
	if snap == nil {
		logger.Warn().Err(ErrNotBuilt).Msg("serving empty recommendations")
		metrics.RecordDegraded("not_built")
		metrics.RecordRecommendation("user", "empty", time.Since(start))
		return []models.Recommendation{}, nil
	}

	key := userKey(userID, k, snap.version)
	if recs, ok := e.cache.get(key); ok {
		metrics.RecordCacheLookup(true)
		metrics.RecordRecommendation("user", "cached", time.Since(start))
		return recs, nil
	}
	if e.cache != nil {
		metrics.RecordCacheLookup(false)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.config.Limits.RequestTimeout)
	defer cancel()

	history, err := e.store.GetUserHistory(reqCtx, userID)
	if err != nil {
		logger.Warn().Err(err).Msg("user history unavailable, serving popularity")
		metrics.RecordDegraded("history_unavailable")
		history = nil
	}
	exclude := make(map[int]struct{}, len(history))
	for _, id := range history {
		exclude[id] = struct{}{}
	}

	signals := e.collectSignals(snap, history, exclude, k)
	for _, s := range signals {
		metrics.RecordSignal(string(s.Source), len(s.Items))
		if s.Degraded() {
			logger.Debug().Err(s.Err).Str("signal", string(s.Source)).Msg("signal degraded")
		}
	}

	ranked := blend(signals)
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	recs, backfilled := e.materialize(reqCtx, snap, ranked, snap.popularity.Ranked(), exclude, k, logger)
	metrics.RecordBackfill(backfilled)

	e.cache.put(key, recs)

	outcome := "ok"
	if len(recs) == 0 {
		outcome = "empty"
	}
	metrics.RecordRecommendation("user", outcome, time.Since(start))

	logger.Debug().
		Int("history", len(history)).
		Int("returned", len(recs)).
		Int("backfilled", backfilled).
		Int64("snapshot", snap.version).
		Dur("duration", time.Since(start)).
		Msg("recommendations generated")

	if e.listener != nil && len(recs) > 0 {
		e.listener.RecommendationsDelivered(ctx, userID, copyRecommendations(recs))
	}

	return recs, nil
}

// collectSignals queries the three candidate sources of snap.
func (e *Engine) collectSignals(snap *snapshot, history []int, exclude map[int]struct{}, k int) []Signal {
	content := Signal{Source: SourceContent, Weight: e.config.Weights.Content}
	if len(history) > 0 {
		content.Items = snap.similarity.ContentCandidates(history, exclude, k*e.config.Candidates.ContentMultiplier)
	}
	if snap.similarity.Features().Len() == 0 {
		content.Err = fmt.Errorf("%w: no item features", ErrDataUnavailable)
	}

	association := Signal{Source: SourceAssociation, Weight: e.config.Weights.Association}
	if snap.rules.Len() == 0 {
		association.Err = ErrMiningInfeasible
	} else {
		association.Items = snap.rules.Recommend(history, k*e.config.Candidates.AssociationMultiplier)
	}

	popular := Signal{Source: SourcePopularity, Weight: e.config.Weights.Popularity}
	for _, id := range snap.popularity.TopExcluding(k*e.config.Candidates.PopularityMultiplier, exclude) {
		popular.Items = append(popular.Items, algorithms.Scored{ItemID: id, Score: float64(snap.popularity.Count(id))})
	}

	return []Signal{content, association, popular}
}

// SimilarTo returns up to k items most similar to itemID, excluding itemID
// itself. Deleted items are skipped. An item without features yields an
// empty list. The only error is ErrInvalidArgument.
func (e *Engine) SimilarTo(ctx context.Context, itemID, k int) ([]models.Recommendation, error) {
	start := time.Now()
	if itemID <= 0 {
		metrics.RecordRecommendation("similar", "invalid", time.Since(start))
		return nil, fmt.Errorf("%w: item id must be positive, got %d", ErrInvalidArgument, itemID)
	}
	if k < 0 {
		metrics.RecordRecommendation("similar", "invalid", time.Since(start))
		return nil, fmt.Errorf("%w: k must be non-negative, got %d", ErrInvalidArgument, k)
	}
	if k == 0 {
		return []models.Recommendation{}, nil
	}

	logger := e.requestLogger(ctx).With().Int("item_id", itemID).Int("k", k).Logger()

	snap := e.snapshot(ctx)
	if snap == nil {
		logger.Warn().Err(ErrNotBuilt).Msg("serving empty similar items")
		metrics.RecordDegraded("not_built")
		metrics.RecordRecommendation("similar", "empty", time.Since(start))
		return []models.Recommendation{}, nil
	}

	key := similarKey(itemID, k, snap.version)
	if recs, ok := e.cache.get(key); ok {
		metrics.RecordCacheLookup(true)
		metrics.RecordRecommendation("similar", "cached", time.Since(start))
		return recs, nil
	}
	if e.cache != nil {
		metrics.RecordCacheLookup(false)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.config.Limits.RequestTimeout)
	defer cancel()

	// Rank the whole catalog so deleted neighbours can be replaced by the
	// next most similar item.
	neighbours := snap.similarity.SimilarItems(itemID, snap.similarity.Features().Len())
	ranked := make([]candidate, len(neighbours))
	for i, n := range neighbours {
		ranked[i] = candidate{ItemID: n.ItemID, Score: n.Score, Tag: models.ProvenanceContent}
	}

	recs, _ := e.materialize(reqCtx, snap, ranked, nil, map[int]struct{}{itemID: {}}, k, logger)
	e.cache.put(key, recs)

	outcome := "ok"
	if len(recs) == 0 {
		outcome = "empty"
	}
	metrics.RecordRecommendation("similar", outcome, time.Since(start))

	logger.Debug().
		Int("returned", len(recs)).
		Dur("duration", time.Since(start)).
		Msg("similar items generated")

	return recs, nil
}

// materialize resolves ranked candidates against the catalog in order, then
// continues through fill (popularity order) at BackfillScore until k items
// resolved. Ids in exclude and ids already emitted are skipped. It returns
// the resolved list and the number of fill items used.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (e *Engine) materialize(
	ctx context.Context,
	snap *snapshot,
	ranked []candidate,
	fill []int,
	exclude map[int]struct{},
	k int,
	logger zerolog.Logger,
) ([]models.Recommendation, int) {
	out := make([]models.Recommendation, 0, k)
	seen := make(map[int]struct{}, k)
	for id := range exclude {
		seen[id] = struct{}{}
	}

	for _, c := range ranked {
		if len(out) == k {
			return out, 0
		}
		if _, dup := seen[c.ItemID]; dup {
			continue
		}
		seen[c.ItemID] = struct{}{}
		if book, ok := e.resolve(ctx, snap, c.ItemID, logger); ok {
			out = append(out, models.NewRecommendation(book, c.Score, c.Tag))
		}
	}

	backfilled := 0
	for _, id := range fill {
		if len(out) == k {
			break
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if book, ok := e.resolve(ctx, snap, id, logger); ok {
			out = append(out, models.NewRecommendation(book, e.config.BackfillScore, models.ProvenancePopular))
			backfilled++
		}
	}
	return out, backfilled
}

// resolve fetches fresh metadata for itemID. Items deleted since the
// snapshot was built are dropped. When the store itself is failing the
// snapshot's copy of the row is used instead.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (e *Engine) resolve(ctx context.Context, snap *snapshot, itemID int, logger zerolog.Logger) (*models.Book, bool) {
	book, err := e.store.GetItem(ctx, itemID)
	if err == nil && book != nil {
		return book, true
	}

	if err == nil || errors.Is(err, models.ErrNotFound) {
		metrics.RecordStaleReference()
		logger.Debug().Int("item_id", itemID).Err(ErrStaleReference).Msg("skipping deleted item")
		return nil, false
	}

	cached, ok := snap.catalog[itemID]
	if !ok {
		return nil, false
	}
	metrics.RecordDegraded("item_lookup_failed")
	logger.Debug().Err(err).Int("item_id", itemID).Msg("item lookup failed, using snapshot metadata")
	return &cached, true
}

// snapshot returns the active snapshot, building it first if none exists.
// It returns nil when the build fails.
func (e *Engine) snapshot(ctx context.Context) *snapshot {
	if snap := e.current.Load(); snap != nil {
		return snap
	}
	if err := e.RebuildCaches(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("lazy cache build failed")
	}
	return e.current.Load()
}

// RebuildCaches rebuilds every derived cache and atomically publishes the
// result. Concurrent callers share one rebuild. Readers keep using the
// previous snapshot until the swap; on failure the previous snapshot stays
// active. The rebuild itself is not cancelled when a caller's context ends.
func (e *Engine) RebuildCaches(ctx context.Context) error {
	ch := e.group.DoChan(rebuildKey, func() (interface{}, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.Rebuild.Timeout)
		defer cancel()
		return nil, e.rebuild(buildCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) rebuild(ctx context.Context) error {
	e.rebuilding.Store(true)
	defer e.rebuilding.Store(false)

	start := time.Now()
	e.logger.Info().Msg("rebuilding recommendation caches")

	snap, err := e.buildSnapshot(ctx)
	metrics.RecordRebuild(time.Since(start), err)

	e.statusMu.Lock()
	e.rebuilds++
	e.lastBuild = time.Now()
	e.lastErr = err
	e.statusMu.Unlock()

	if err != nil {
		e.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("cache rebuild failed, keeping previous snapshot")
		return err
	}

	snap.version = e.version.Add(1)
	e.current.Store(snap)
	e.cache.purge()

	metrics.RecordSnapshot(snap.version, len(snap.catalog), snap.similarity.Features().VocabularySize(),
		snap.rules.Len(), snap.rules.Transactions())

	borrows := snap.popularity.TotalBorrows()
	if borrows < e.config.Rebuild.MinInteractions {
		e.logger.Warn().
			Int("borrows", borrows).
			Int("recommended_minimum", e.config.Rebuild.MinInteractions).
			Msg("sparse interaction data, recommendations will lean on popularity")
	}

	e.logger.Info().
		Int64("version", snap.version).
		Int("items", len(snap.catalog)).
		Int("rules", snap.rules.Len()).
		Int("transactions", snap.rules.Transactions()).
		Bool("dense", snap.similarity.Features().HasDense()).
		Dur("duration", snap.duration).
		Msg("recommendation caches rebuilt")

	return nil
}

// InvalidateUser drops cached responses for userID. It returns the number
// of entries removed.
func (e *Engine) InvalidateUser(userID int) int {
	return e.cache.evictUser(userID)
}

// Status reports the active snapshot and rebuild state.
func (e *Engine) Status() Status {
	st := Status{
		DenseCapable: e.extractor.HasDenseEmbeddings(),
		Rebuilding:   e.rebuilding.Load(),
	}

	e.statusMu.RLock()
	st.Rebuilds = e.rebuilds
	st.LastRebuildAt = e.lastBuild
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	e.statusMu.RUnlock()

	snap := e.current.Load()
	if snap == nil {
		return st
	}

	set := snap.similarity.Features()
	st.Ready = true
	st.Version = snap.version
	st.BuiltAt = snap.builtAt
	st.BuildDurationMs = snap.duration.Milliseconds()
	st.Items = len(snap.catalog)
	st.Vocabulary = set.VocabularySize()
	st.Rules = snap.rules.Len()
	st.Transactions = snap.rules.Transactions()
	st.FrequentItemsets = snap.rules.FrequentItemsets()
	st.RulesTruncated = snap.rules.Truncated()
	st.Borrows = snap.popularity.TotalBorrows()
	st.DenseActive = set.HasDense()
	return st
}

func (e *Engine) requestLogger(ctx context.Context) zerolog.Logger {
	ctxLogger := e.logger.With()
	if id := logging.RequestIDFromContext(ctx); id != "" {
		ctxLogger = ctxLogger.Str("request_id", id)
	}
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		ctxLogger = ctxLogger.Str("correlation_id", id)
	}
	return ctxLogger.Logger()
}
