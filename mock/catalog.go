// Package mock provides function-field mock implementations of plandok
// service interfaces for use in tests.
package mock

import (
	"context"
	"time"

	"github.com/fwojciec/plandok"
)

var _ plandok.CatalogService = (*CatalogService)(nil)

// CatalogService is a mock implementation of plandok.CatalogService.
type CatalogService struct {
	InsertFn             func(ctx context.Context, doc *plandok.Document) error
	UpdateFn             func(ctx context.Context, id string, upd plandok.DocumentUpdate) (*plandok.Document, error)
	GetFn                func(ctx context.Context, id string) (*plandok.Document, error)
	FindByFingerprintFn  func(ctx context.Context, fingerprint string) (*plandok.Document, error)
	ListFn               func(ctx context.Context, filter plandok.DocumentFilter) ([]*plandok.Document, error)
	ListDueFn            func(ctx context.Context, olderThan time.Time, limit int) ([]*plandok.Document, error)
	RecordVerificationFn func(ctx context.Context, documentID string, rec *plandok.VerificationRecord) error
	RecordsFn            func(ctx context.Context, documentID string) ([]*plandok.VerificationRecord, error)
	DeleteFn             func(ctx context.Context, id string) error
	AnalyticsFn          func(ctx context.Context) (*plandok.Rollup, error)
}

func (s *CatalogService) Insert(ctx context.Context, doc *plandok.Document) error {
	return s.InsertFn(ctx, doc)
}

func (s *CatalogService) Update(ctx context.Context, id string, upd plandok.DocumentUpdate) (*plandok.Document, error) {
	return s.UpdateFn(ctx, id, upd)
}

func (s *CatalogService) Get(ctx context.Context, id string) (*plandok.Document, error) {
	return s.GetFn(ctx, id)
}

func (s *CatalogService) FindByFingerprint(ctx context.Context, fingerprint string) (*plandok.Document, error) {
	return s.FindByFingerprintFn(ctx, fingerprint)
}

func (s *CatalogService) List(ctx context.Context, filter plandok.DocumentFilter) ([]*plandok.Document, error) {
	return s.ListFn(ctx, filter)
}

func (s *CatalogService) ListDue(ctx context.Context, olderThan time.Time, limit int) ([]*plandok.Document, error) {
	return s.ListDueFn(ctx, olderThan, limit)
}

func (s *CatalogService) RecordVerification(ctx context.Context, documentID string, rec *plandok.VerificationRecord) error {
	return s.RecordVerificationFn(ctx, documentID, rec)
}

func (s *CatalogService) Records(ctx context.Context, documentID string) ([]*plandok.VerificationRecord, error) {
	return s.RecordsFn(ctx, documentID)
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	return s.DeleteFn(ctx, id)
}

func (s *CatalogService) Analytics(ctx context.Context) (*plandok.Rollup, error) {
	return s.AnalyticsFn(ctx)
}
