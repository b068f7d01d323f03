// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package features

import (
	"fmt"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"
)

// minTokenRunes drops single-character tokens, which carry no topical signal.
const minTokenRunes = 2

// Analyzer tokenises documents: unicode word segmentation, lower-casing and
// English stop-word removal.
type Analyzer struct {
	analyzer analysis.Analyzer
}

// NewAnalyzer builds the analysis chain from the bleve registry.
func NewAnalyzer() (*Analyzer, error) {
	cache := registry.NewCache()

	tokenizer, err := cache.TokenizerNamed(unicode.Name)
	if err != nil {
		return nil, fmt.Errorf("tokenizer %s: %w", unicode.Name, err)
	}

	lower, err := cache.TokenFilterNamed(lowercase.Name)
	if err != nil {
		return nil, fmt.Errorf("token filter %s: %w", lowercase.Name, err)
	}

	stop, err := cache.TokenFilterNamed(en.StopName)
	if err != nil {
		return nil, fmt.Errorf("token filter %s: %w", en.StopName, err)
	}

	return &Analyzer{
		analyzer: &analysis.DefaultAnalyzer{
			Tokenizer:    tokenizer,
			TokenFilters: []analysis.TokenFilter{lower, stop},
		},
	}, nil
}

// Tokens returns the analysed terms of text in document order.
func (a *Analyzer) Tokens(text string) []string {
	if text == "" {
		return nil
	}

	stream := a.analyzer.Analyze([]byte(text))
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		if utf8.RuneCount(tok.Term) < minTokenRunes {
			continue
		}
		terms = append(terms, string(tok.Term))
	}
	return terms
}
