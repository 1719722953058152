// Package search provides free-text search over the document catalog
// with weighted term-frequency ranking.
//
// There is no separately maintained index: every query reads the catalog
// at query time, so results are never staler than a single store read.
// Catalog sizes are small (tens to low hundreds of documents), which
// makes scan-and-score both simpler and fresher than an index.
package search

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/fwojciec/plandok"
)

// Weights controls the per-field contribution to a document's score.
// Title matches count the most, then tags, then description. The exact
// ranking formula is a tunable default, not a compatibility contract.
type Weights struct {
	Title       float64
	Tags        float64
	Description float64
}

// DefaultWeights returns the standard field weighting.
func DefaultWeights() Weights {
	return Weights{Title: 3, Tags: 2, Description: 1}
}

// Result pairs a matched document with its relevance score.
type Result struct {
	Document *plandok.Document `json:"document"`
	Score    float64           `json:"score"`
}

// Searcher ranks catalog documents against free-text queries.
type Searcher struct {
	Catalog plandok.CatalogService

	// Weights defaults to DefaultWeights when zero.
	Weights Weights
}

// Search tokenizes the query and scores every document in the catalog
// (optionally restricted to one category) by weighted term frequency.
// Documents with no matching terms are excluded rather than scored zero.
// Ties break by lastVerifiedAt descending (freshest first), then id.
func (s *Searcher) Search(ctx context.Context, query string, category *string) ([]Result, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, plandok.Errorf(plandok.EINVALID, "search query required")
	}

	docs, err := s.Catalog.List(ctx, plandok.DocumentFilter{Category: category})
	if err != nil {
		return nil, err
	}

	weights := s.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}

	var results []Result
	for _, doc := range docs {
		score := scoreDocument(doc, terms, weights)
		if score == 0 {
			continue
		}
		results = append(results, Result{Document: doc, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		a, b := results[i].Document, results[j].Document
		if !a.LastVerifiedAt.Equal(b.LastVerifiedAt) {
			return a.LastVerifiedAt.After(b.LastVerifiedAt)
		}
		return a.ID < b.ID
	})

	return results, nil
}

// scoreDocument sums the weighted frequency of every query term across
// the document's searchable fields.
func scoreDocument(doc *plandok.Document, terms []string, weights Weights) float64 {
	titleTokens := tokenize(doc.Title)
	descTokens := tokenize(doc.Description)
	tagTokens := tokenize(strings.Join(doc.Tags, " "))

	var score float64
	for _, term := range terms {
		score += weights.Title * float64(countTerm(titleTokens, term))
		score += weights.Tags * float64(countTerm(tagTokens, term))
		score += weights.Description * float64(countTerm(descTokens, term))
	}
	return score
}

// countTerm counts tokens containing the term as a substring. Compound
// words are the norm in Norwegian ("klimabudsjett", "kommuneplan"), so a
// query for "klima" must match titles that never contain it as a
// standalone word.
func countTerm(tokens []string, term string) int {
	n := 0
	for _, tok := range tokens {
		if strings.Contains(tok, term) {
			n++
		}
	}
	return n
}

// tokenize lowercases text and splits it on any non-letter, non-digit
// rune. Norwegian letters are letters to unicode.IsLetter, so titles
// like "Klimabudsjett for Grünerløkka" tokenize cleanly.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
