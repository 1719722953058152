package verify_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/plandok"
	plandokhttp "github.com/fwojciec/plandok/http"
	"github.com/fwojciec/plandok/mock"
	"github.com/fwojciec/plandok/sqlite"
	"github.com/fwojciec/plandok/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCatalog(t *testing.T) *sqlite.CatalogService {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return sqlite.NewCatalogService(db)
}

func insertDocument(t *testing.T, catalog *sqlite.CatalogService, title, url string) *plandok.Document {
	t.Helper()

	doc := &plandok.Document{Title: title, URL: url, Category: "Byutvikling"}
	require.NoError(t, catalog.Insert(context.Background(), doc))
	return doc
}

func TestSweeper_RunSweep(t *testing.T) {
	t.Parallel()

	t.Run("records verified for a live URL", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		catalog := setupCatalog(t)
		doc := insertDocument(t, catalog, "Plan A", srv.URL)

		s := &verify.Sweeper{
			Catalog:     catalog,
			Checker:     plandokhttp.NewChecker(),
			RetryDelays: []time.Duration{},
		}

		summary, err := s.RunSweep(context.Background(), verify.SweepOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Due)
		assert.Equal(t, 1, summary.Checked)
		assert.Equal(t, 1, summary.Verified)

		found, err := catalog.Get(context.Background(), doc.ID)
		require.NoError(t, err)
		assert.Equal(t, plandok.VerificationVerified, found.VerificationStatus)

		records, err := catalog.Records(context.Background(), doc.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, plandok.OutcomeVerified, records[0].Outcome)
		require.NotNil(t, records[0].HTTPStatus)
		assert.Equal(t, http.StatusOK, *records[0].HTTPStatus)
	})

	t.Run("records unreachable for a 404 URL", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		catalog := setupCatalog(t)
		doc := insertDocument(t, catalog, "Plan A", srv.URL)

		s := &verify.Sweeper{
			Catalog:     catalog,
			Checker:     plandokhttp.NewChecker(),
			RetryDelays: []time.Duration{},
		}

		summary, err := s.RunSweep(context.Background(), verify.SweepOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Unreachable)

		found, err := catalog.Get(context.Background(), doc.ID)
		require.NoError(t, err)
		assert.Equal(t, plandok.VerificationUnreachable, found.VerificationStatus)
	})

	t.Run("one failing document does not block the others", func(t *testing.T) {
		t.Parallel()

		catalog := setupCatalog(t)
		bad := insertDocument(t, catalog, "Plan Bad", "https://bad.example/x")
		good := insertDocument(t, catalog, "Plan Good", "https://good.example/x")

		checker := &mock.LinkChecker{
			CheckFn: func(ctx context.Context, url string) (*plandok.CheckResult, error) {
				if url == bad.URL {
					return nil, errors.New("connection timed out")
				}
				return &plandok.CheckResult{StatusCode: 200, Outcome: plandok.OutcomeVerified}, nil
			},
		}

		s := &verify.Sweeper{Catalog: catalog, Checker: checker, RetryDelays: []time.Duration{}}

		summary, err := s.RunSweep(context.Background(), verify.SweepOptions{Concurrency: 4})
		require.NoError(t, err)

		assert.Equal(t, 2, summary.Checked)
		assert.Equal(t, 1, summary.Verified)
		assert.Equal(t, 1, summary.Errors)

		foundGood, err := catalog.Get(context.Background(), good.ID)
		require.NoError(t, err)
		assert.Equal(t, plandok.VerificationVerified, foundGood.VerificationStatus)

		foundBad, err := catalog.Get(context.Background(), bad.ID)
		require.NoError(t, err)
		assert.Equal(t, plandok.VerificationError, foundBad.VerificationStatus)

		records, err := catalog.Records(context.Background(), bad.ID)
		require.NoError(t, err)
		require.Len(t, records, 1, "exhausted retries produce exactly one record")
		assert.Nil(t, records[0].HTTPStatus)
		assert.Contains(t, records[0].Note, "connection timed out")
	})

	t.Run("retries transport failures before recording an error", func(t *testing.T) {
		t.Parallel()

		catalog := setupCatalog(t)
		insertDocument(t, catalog, "Plan A", "https://flaky.example/x")

		var mu sync.Mutex
		attempts := 0
		checker := &mock.LinkChecker{
			CheckFn: func(ctx context.Context, url string) (*plandok.CheckResult, error) {
				mu.Lock()
				defer mu.Unlock()
				attempts++
				if attempts < 3 {
					return nil, errors.New("connection reset")
				}
				return &plandok.CheckResult{StatusCode: 200, Outcome: plandok.OutcomeVerified}, nil
			},
		}

		s := &verify.Sweeper{
			Catalog:     catalog,
			Checker:     checker,
			RetryDelays: []time.Duration{0, 0},
		}

		summary, err := s.RunSweep(context.Background(), verify.SweepOptions{})
		require.NoError(t, err)

		assert.Equal(t, 3, attempts)
		assert.Equal(t, 1, summary.Verified)
		assert.Zero(t, summary.Errors)
	})

	t.Run("skips documents verified more recently than the staleness threshold", func(t *testing.T) {
		t.Parallel()

		catalog := setupCatalog(t)
		doc := insertDocument(t, catalog, "Plan A", "https://x.no/a")

		status := 200
		require.NoError(t, catalog.RecordVerification(context.Background(), doc.ID, &plandok.VerificationRecord{
			Outcome:    plandok.OutcomeVerified,
			HTTPStatus: &status,
		}))

		checker := &mock.LinkChecker{
			CheckFn: func(ctx context.Context, url string) (*plandok.CheckResult, error) {
				t.Fatal("fresh document should not be checked")
				return nil, nil
			},
		}

		s := &verify.Sweeper{Catalog: catalog, Checker: checker, RetryDelays: []time.Duration{}}

		summary, err := s.RunSweep(context.Background(), verify.SweepOptions{Staleness: time.Hour})
		require.NoError(t, err)
		assert.Zero(t, summary.Due)
	})

	t.Run("deadline expiry yields a partial result, not an error", func(t *testing.T) {
		t.Parallel()

		catalog := setupCatalog(t)
		insertDocument(t, catalog, "Plan A", "https://x.no/a")
		insertDocument(t, catalog, "Plan B", "https://x.no/b")
		insertDocument(t, catalog, "Plan C", "https://x.no/c")

		checker := &mock.LinkChecker{
			CheckFn: func(ctx context.Context, url string) (*plandok.CheckResult, error) {
				return &plandok.CheckResult{StatusCode: 200, Outcome: plandok.OutcomeVerified}, nil
			},
		}

		s := &verify.Sweeper{Catalog: catalog, Checker: checker, RetryDelays: []time.Duration{}}

		// The deadline has effectively already expired when dispatch starts.
		summary, err := s.RunSweep(context.Background(), verify.SweepOptions{Deadline: time.Nanosecond})
		require.NoError(t, err)

		assert.Equal(t, 3, summary.Due)
		assert.Equal(t, 3, summary.Skipped)
		assert.Zero(t, summary.Checked)
	})
}

func TestSweeper_VerifyOne(t *testing.T) {
	t.Parallel()

	t.Run("checks and records a single document", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		catalog := setupCatalog(t)
		doc := insertDocument(t, catalog, "Plan A", srv.URL)

		s := &verify.Sweeper{
			Catalog:     catalog,
			Checker:     plandokhttp.NewChecker(),
			RetryDelays: []time.Duration{},
		}

		rec, err := s.VerifyOne(context.Background(), doc.ID)
		require.NoError(t, err)
		assert.Equal(t, plandok.OutcomeVerified, rec.Outcome)

		found, err := catalog.Get(context.Background(), doc.ID)
		require.NoError(t, err)
		assert.Equal(t, plandok.VerificationVerified, found.VerificationStatus)
	})

	t.Run("returns ENOTFOUND for an unknown id", func(t *testing.T) {
		t.Parallel()

		catalog := setupCatalog(t)
		s := &verify.Sweeper{Catalog: catalog, Checker: &mock.LinkChecker{}}

		_, err := s.VerifyOne(context.Background(), "missing")
		assert.Equal(t, plandok.ENOTFOUND, plandok.ErrorCode(err))
	})

	t.Run("rejects a concurrent request for the same document with EINPROGRESS", func(t *testing.T) {
		t.Parallel()

		catalog := setupCatalog(t)
		doc := insertDocument(t, catalog, "Plan A", "https://x.no/a")

		entered := make(chan struct{})
		release := make(chan struct{})
		checker := &mock.LinkChecker{
			CheckFn: func(ctx context.Context, url string) (*plandok.CheckResult, error) {
				close(entered)
				<-release
				return &plandok.CheckResult{StatusCode: 200, Outcome: plandok.OutcomeVerified}, nil
			},
		}

		s := &verify.Sweeper{Catalog: catalog, Checker: checker, RetryDelays: []time.Duration{}}

		done := make(chan error, 1)
		go func() {
			_, err := s.VerifyOne(context.Background(), doc.ID)
			done <- err
		}()

		<-entered
		_, err := s.VerifyOne(context.Background(), doc.ID)
		assert.Equal(t, plandok.EINPROGRESS, plandok.ErrorCode(err))

		close(release)
		require.NoError(t, <-done)
	})
}

func TestHostLimiter(t *testing.T) {
	t.Parallel()

	t.Run("allows requests within the rate", func(t *testing.T) {
		t.Parallel()

		l := verify.NewHostLimiter(1000)
		for i := 0; i < 5; i++ {
			require.NoError(t, l.Wait(context.Background(), "x.no"))
		}
	})

	t.Run("returns an error when the context is canceled", func(t *testing.T) {
		t.Parallel()

		l := verify.NewHostLimiter(0.001)
		require.NoError(t, l.Wait(context.Background(), "x.no"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, l.Wait(ctx, "x.no"))
	})
}
