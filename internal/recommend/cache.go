// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package recommend

import (
	"strconv"
	"strings"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tomtom215/shelfmark/internal/models"
)

// responseCache holds finished recommendation lists keyed by request kind,
// subject id, k and snapshot version. Entries from older snapshots can never
// be returned because the version is part of the key.
type responseCache struct {
	lru *expirable.LRU[string, []models.Recommendation]
}

func newResponseCache(cfg CacheConfig) *responseCache {
	if !cfg.Enabled {
		return nil
	}
	return &responseCache{
		lru: expirable.NewLRU[string, []models.Recommendation](cfg.MaxEntries, nil, cfg.TTL),
	}
}

func userKey(userID, k int, version int64) string {
	return "u:" + strconv.Itoa(userID) + ":" + strconv.Itoa(k) + ":" + strconv.FormatInt(version, 10)
}

func similarKey(itemID, k int, version int64) string {
	return "s:" + strconv.Itoa(itemID) + ":" + strconv.Itoa(k) + ":" + strconv.FormatInt(version, 10)
}

func (c *responseCache) get(key string) ([]models.Recommendation, bool) {
	if c == nil {
		return nil, false
	}
	recs, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return copyRecommendations(recs), true
}

func (c *responseCache) put(key string, recs []models.Recommendation) {
	if c == nil {
		return
	}
	c.lru.Add(key, copyRecommendations(recs))
}

// evictUser drops every cached personalised list of userID.
func (c *responseCache) evictUser(userID int) int {
	if c == nil {
		return 0
	}
	prefix := "u:" + strconv.Itoa(userID) + ":"
	n := 0
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) && c.lru.Remove(key) {
			n++
		}
	}
	return n
}

func (c *responseCache) purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

func (c *responseCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func copyRecommendations(recs []models.Recommendation) []models.Recommendation {
	out := make([]models.Recommendation, len(recs))
	copy(out, recs)
	return out
}
