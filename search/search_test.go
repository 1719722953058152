package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/plandok"
	"github.com/fwojciec/plandok/mock"
	"github.com/fwojciec/plandok/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedCatalog(docs []*plandok.Document) *mock.CatalogService {
	return &mock.CatalogService{
		ListFn: func(ctx context.Context, filter plandok.DocumentFilter) ([]*plandok.Document, error) {
			if filter.Category == nil {
				return docs, nil
			}
			var out []*plandok.Document
			for _, doc := range docs {
				if doc.Category == *filter.Category {
					out = append(out, doc)
				}
			}
			return out, nil
		},
	}
}

func TestSearcher_Search(t *testing.T) {
	t.Parallel()

	t.Run("ranks title matches above tag matches", func(t *testing.T) {
		t.Parallel()

		docs := []*plandok.Document{
			{ID: "tagged", Title: "Handlingsplan", Tags: []string{"klima"}},
			{ID: "titled", Title: "Klimabudsjett 2024"},
		}

		s := &search.Searcher{Catalog: fixedCatalog(docs)}
		results, err := s.Search(context.Background(), "klima", nil)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, "titled", results[0].Document.ID)
		assert.Equal(t, "tagged", results[1].Document.ID)
		assert.Greater(t, results[0].Score, results[1].Score)
	})

	t.Run("excludes documents with no matching terms", func(t *testing.T) {
		t.Parallel()

		docs := []*plandok.Document{
			{ID: "match", Title: "Klimabudsjett"},
			{ID: "nomatch", Title: "Sykkelstrategi"},
		}

		s := &search.Searcher{Catalog: fixedCatalog(docs)}
		results, err := s.Search(context.Background(), "klima", nil)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, "match", results[0].Document.ID)
	})

	t.Run("matches case-insensitively across fields", func(t *testing.T) {
		t.Parallel()

		docs := []*plandok.Document{
			{ID: "a", Title: "KOMMUNEPLAN for Oslo", Description: "Overordnet plan"},
		}

		s := &search.Searcher{Catalog: fixedCatalog(docs)}
		results, err := s.Search(context.Background(), "kommuneplan PLAN", nil)
		require.NoError(t, err)

		require.Len(t, results, 1)
	})

	t.Run("weights description matches lowest", func(t *testing.T) {
		t.Parallel()

		docs := []*plandok.Document{
			{ID: "desc", Description: "klima klima"},
			{ID: "title", Title: "klima"},
		}

		s := &search.Searcher{Catalog: fixedCatalog(docs)}
		results, err := s.Search(context.Background(), "klima", nil)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, "title", results[0].Document.ID, "one title hit outranks two description hits")
	})

	t.Run("breaks score ties by freshest verification, then id", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		docs := []*plandok.Document{
			{ID: "b", Title: "Klimaplan", LastVerifiedAt: now.Add(-time.Hour)},
			{ID: "a", Title: "Klimaplan", LastVerifiedAt: now},
			{ID: "d", Title: "Klimaplan", LastVerifiedAt: now.Add(-time.Hour)},
		}

		s := &search.Searcher{Catalog: fixedCatalog(docs)}
		results, err := s.Search(context.Background(), "klimaplan", nil)
		require.NoError(t, err)

		require.Len(t, results, 3)
		assert.Equal(t, "a", results[0].Document.ID)
		assert.Equal(t, "b", results[1].Document.ID)
		assert.Equal(t, "d", results[2].Document.ID)
	})

	t.Run("restricts results to the category filter", func(t *testing.T) {
		t.Parallel()

		docs := []*plandok.Document{
			{ID: "a", Title: "Klimabudsjett", Category: "Klima"},
			{ID: "b", Title: "Klimagassregnskap", Category: "Miljø"},
		}

		category := "Klima"
		s := &search.Searcher{Catalog: fixedCatalog(docs)}
		results, err := s.Search(context.Background(), "klima", &category)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, "a", results[0].Document.ID)
	})

	t.Run("returns EINVALID for an empty query", func(t *testing.T) {
		t.Parallel()

		s := &search.Searcher{Catalog: fixedCatalog(nil)}

		for _, query := range []string{"", "   ", "\t\n", "!!!"} {
			_, err := s.Search(context.Background(), query, nil)
			assert.Equal(t, plandok.EINVALID, plandok.ErrorCode(err), "query %q", query)
		}
	})
}
