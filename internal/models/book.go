// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package models

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by catalog lookups for ids that do not resolve.
var ErrNotFound = errors.New("not found")

// DefaultDescription is substituted for books stored without a description.
const DefaultDescription = "No description available"

// Book is a catalog entry. Books are owned and mutated by the catalog
// service; Shelfmark never writes them.
type Book struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	CoverImage      string `json:"cover_image"`
	AvailableCopies int    `json:"available_copies"`
}

// Document returns the text used for feature extraction: title, author,
// category and description joined by single spaces.
func (b *Book) Document() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{b.Title, b.Author, b.Category, b.Description} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
