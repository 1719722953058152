package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/plandok"
	plandokhttp "github.com/fwojciec/plandok/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_Check(t *testing.T) {
	t.Parallel()

	t.Run("classifies 200 as verified", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := plandokhttp.NewChecker()
		result, err := c.Check(context.Background(), srv.URL)
		require.NoError(t, err)

		assert.Equal(t, plandok.OutcomeVerified, result.Outcome)
		assert.Equal(t, http.StatusOK, result.StatusCode)
	})

	t.Run("classifies 404 as unreachable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		c := plandokhttp.NewChecker()
		result, err := c.Check(context.Background(), srv.URL)
		require.NoError(t, err)

		assert.Equal(t, plandok.OutcomeUnreachable, result.Outcome)
		assert.Equal(t, http.StatusNotFound, result.StatusCode)
	})

	t.Run("classifies 500 as unreachable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := plandokhttp.NewChecker()
		result, err := c.Check(context.Background(), srv.URL)
		require.NoError(t, err)

		assert.Equal(t, plandok.OutcomeUnreachable, result.Outcome)
	})

	t.Run("uses HEAD when the server supports it", func(t *testing.T) {
		t.Parallel()

		var methods []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			methods = append(methods, r.Method)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := plandokhttp.NewChecker()
		_, err := c.Check(context.Background(), srv.URL)
		require.NoError(t, err)

		assert.Equal(t, []string{http.MethodHead}, methods)
	})

	t.Run("falls back to GET when HEAD is rejected", func(t *testing.T) {
		t.Parallel()

		var methods []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			methods = append(methods, r.Method)
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := plandokhttp.NewChecker()
		result, err := c.Check(context.Background(), srv.URL)
		require.NoError(t, err)

		assert.Equal(t, []string{http.MethodHead, http.MethodGet}, methods)
		assert.Equal(t, plandok.OutcomeVerified, result.Outcome)
	})

	t.Run("sniffs page title on GET fallback", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><head><title>Siden finnes  ikke</title></head><body></body></html>"))
		}))
		defer srv.Close()

		c := plandokhttp.NewChecker()
		result, err := c.Check(context.Background(), srv.URL)
		require.NoError(t, err)

		assert.Equal(t, "page title: Siden finnes ikke", result.Note)
	})

	t.Run("returns an error for unreachable hosts", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused from here on

		c := plandokhttp.NewChecker()
		_, err := c.Check(context.Background(), srv.URL)
		assert.Error(t, err)
	})

	t.Run("honors the configured timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer srv.Close()
		defer close(release)

		c := plandokhttp.NewChecker(plandokhttp.WithTimeout(50 * time.Millisecond))
		_, err := c.Check(context.Background(), srv.URL)
		assert.Error(t, err)
	})
}
