// Package verify provides the link-verification scheduler. It sweeps the
// catalog for documents whose last liveness check has gone stale and
// re-checks them over a bounded worker pool, persisting every attempt
// through the catalog's transactional API.
package verify

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/fwojciec/plandok"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the worker pool size used when SweepOptions
// doesn't specify one.
const DefaultConcurrency = 8

// maxNoteLength bounds the error text stored on a verification record.
const maxNoteLength = 200

// Sweeper runs link-liveness checks against catalog documents.
// It never mutates documents directly: all writes go through
// CatalogService.RecordVerification.
type Sweeper struct {
	Catalog plandok.CatalogService
	Checker plandok.LinkChecker
	Limiter plandok.HostLimiter

	// RetryDelays configures the backoff between retries of failed
	// checks. Defaults to DefaultRetryDelays.
	RetryDelays []time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

// SweepOptions configures one sweep.
type SweepOptions struct {
	// Staleness is the minimum age of a document's last verification
	// attempt before it is due for re-checking. Zero means every
	// document is due.
	Staleness time.Duration

	// Concurrency bounds the number of simultaneous checks.
	// Defaults to DefaultConcurrency.
	Concurrency int

	// Deadline bounds the sweep as a whole. Once it expires no new
	// checks are dispatched; checks already in flight finish and their
	// results are recorded. Zero means no deadline.
	Deadline time.Duration
}

// Summary reports the outcome of one sweep. A sweep cut short by its
// deadline still produces a summary; partial completion is a result,
// not an error.
type Summary struct {
	Due         int           `json:"due"`
	Checked     int           `json:"checked"`
	Verified    int           `json:"verified"`
	Unreachable int           `json:"unreachable"`
	Errors      int           `json:"errors"`
	Skipped     int           `json:"skipped"`
	Elapsed     time.Duration `json:"elapsed"`
}

// RunSweep checks every document due for verification. The due set is a
// snapshot taken at sweep start: documents added mid-sweep wait for the
// next sweep. One document's failures never abort the sweep for others.
func (s *Sweeper) RunSweep(ctx context.Context, opts SweepOptions) (*Summary, error) {
	start := time.Now()

	cutoff := start.Add(-opts.Staleness)
	docs, err := s.Catalog.ListDue(ctx, cutoff, 0)
	if err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var deadline time.Time
	if opts.Deadline > 0 {
		deadline = start.Add(opts.Deadline)
	}

	summary := &Summary{Due: len(docs)}
	var summaryMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, doc := range docs {
		// Stop dispatching once the sweep deadline passes or the caller
		// cancels; whatever is already running finishes on its own.
		if gctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline)) {
			summaryMu.Lock()
			summary.Skipped++
			summaryMu.Unlock()
			continue
		}

		g.Go(func() error {
			outcome, ok := s.verifyDocument(gctx, doc)

			summaryMu.Lock()
			defer summaryMu.Unlock()
			if !ok {
				summary.Skipped++
				return nil
			}
			summary.Checked++
			switch outcome {
			case plandok.OutcomeVerified:
				summary.Verified++
			case plandok.OutcomeUnreachable:
				summary.Unreachable++
			default:
				summary.Errors++
			}
			return nil
		})
	}

	_ = g.Wait()

	summary.Elapsed = time.Since(start)
	return summary, nil
}

// VerifyOne checks a single document on demand, e.g. from an admin
// action. If a check for the document is already in flight the request
// is rejected with EINPROGRESS rather than queued: verification is
// idempotent and safely retried later.
func (s *Sweeper) VerifyOne(ctx context.Context, id string) (*plandok.VerificationRecord, error) {
	doc, err := s.Catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.acquire(doc.ID) {
		return nil, plandok.Errorf(plandok.EINPROGRESS, "verification of document %s already in progress", doc.ID)
	}
	defer s.release(doc.ID)

	rec := s.check(ctx, doc)
	if err := s.Catalog.RecordVerification(ctx, doc.ID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// verifyDocument runs one check for a sweep worker. The bool result is
// false when the document was skipped: already being verified, or gone
// by the time the result was recorded.
func (s *Sweeper) verifyDocument(ctx context.Context, doc *plandok.Document) (plandok.VerificationOutcome, bool) {
	if !s.acquire(doc.ID) {
		return "", false
	}
	defer s.release(doc.ID)

	rec := s.check(ctx, doc)
	if err := s.Catalog.RecordVerification(ctx, doc.ID, rec); err != nil {
		// ENOTFOUND here means the document was deleted mid-sweep.
		return "", false
	}
	return rec.Outcome, true
}

// check performs the rate-limited, retried liveness check and builds the
// verification record for it. Every call produces exactly one record,
// whatever the outcome.
func (s *Sweeper) check(ctx context.Context, doc *plandok.Document) *plandok.VerificationRecord {
	rec := &plandok.VerificationRecord{
		DocumentID:  doc.ID,
		AttemptedAt: time.Now().UTC(),
	}

	if s.Limiter != nil {
		if host := urlHost(doc.URL); host != "" {
			if err := s.Limiter.Wait(ctx, host); err != nil {
				rec.Outcome = plandok.OutcomeError
				rec.Note = truncateNote(err.Error())
				return rec
			}
		}
	}

	delays := s.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	result, err := checkWithRetry(ctx, s.Checker, doc.URL, delays)
	if err != nil {
		// Retry budget exhausted; the failure is recorded, never
		// surfaced to the caller.
		rec.Outcome = plandok.OutcomeError
		rec.Note = truncateNote(err.Error())
		return rec
	}

	rec.Outcome = result.Outcome
	rec.HTTPStatus = &result.StatusCode
	rec.Note = result.Note
	return rec
}

func (s *Sweeper) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight == nil {
		s.inflight = make(map[string]struct{})
	}
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Sweeper) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

func urlHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func truncateNote(note string) string {
	if len(note) > maxNoteLength {
		return note[:maxNoteLength]
	}
	return note
}
