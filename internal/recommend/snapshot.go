// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/shelfmark/internal/models"
	"github.com/tomtom215/shelfmark/internal/recommend/algorithms"
)

// snapshot is one consistent generation of every derived cache. It is never
// mutated after publication; rebuilds publish a new snapshot.
type snapshot struct {
	version  int64
	builtAt  time.Time
	duration time.Duration

	catalog    map[int]models.Book
	similarity *algorithms.SimilarityIndex
	rules      *algorithms.RuleSet
	popularity *algorithms.PopularityRanking
}

// buildSnapshot reads the store and derives every cache. Only a catalog
// read failure aborts the build; interaction failures degrade to empty
// interaction data.
func (e *Engine) buildSnapshot(ctx context.Context) (*snapshot, error) {
	start := time.Now()

	items, err := e.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list items: %w", ErrDataUnavailable, err)
	}

	interactions, err := e.store.ListInteractions(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("interaction log unavailable, popularity will be flat")
		interactions = nil
	}

	histories, err := e.store.GetAllHistories(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("user histories unavailable, association rules disabled")
		histories = nil
	}

	set := e.extractor.Extract(ctx, items)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}

	rules, err := algorithms.MineRules(ctx, histories, e.config.Association)
	switch {
	case err == nil:
		if rules.Truncated() {
			e.logger.Warn().
				Int("itemsets", rules.FrequentItemsets()).
				Int("rules", rules.Len()).
				Int("max_itemsets", e.config.Association.MaxItemsets).
				Int("max_rules", e.config.Association.MaxRules).
				Msg("association mining hit its cap, rule set truncated")
		}
	case errors.Is(err, ErrMiningInfeasible):
		e.logger.Debug().Err(err).Msg("association rules empty")
	default:
		return nil, fmt.Errorf("mine association rules: %w", err)
	}

	catalog := make(map[int]models.Book, len(items))
	for i := range items {
		catalog[items[i].ID] = items[i]
	}

	return &snapshot{
		builtAt:    time.Now(),
		duration:   time.Since(start),
		catalog:    catalog,
		similarity: algorithms.NewSimilarityIndex(set, e.config.Similarity),
		rules:      rules,
		popularity: algorithms.BuildPopularity(items, interactions),
	}, nil
}
