// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package recommend

import (
	"errors"

	"github.com/tomtom215/shelfmark/internal/recommend/algorithms"
)

var (
	// ErrInvalidArgument is returned for a negative k or a non-positive id.
	// It is the only error Recommend and SimilarTo return.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDataUnavailable marks a store read that failed. The engine
	// recovers by treating the data as empty.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrModelUnavailable marks a dense embedding backend that could not be
	// initialised. The engine continues lexical-only.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrMiningInfeasible marks association mining without enough data.
	ErrMiningInfeasible = algorithms.ErrMiningInfeasible

	// ErrStaleReference marks a recommended item id that no longer resolves.
	ErrStaleReference = errors.New("stale item reference")

	// ErrNotBuilt marks a request served before any snapshot could be built.
	ErrNotBuilt = errors.New("recommendation caches not built")
)
