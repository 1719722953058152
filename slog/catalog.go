package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/plandok"
)

// Ensure LoggingCatalog implements plandok.CatalogService.
var _ plandok.CatalogService = (*LoggingCatalog)(nil)

// LoggingCatalog wraps a CatalogService with logging for mutating
// operations. Reads delegate silently.
type LoggingCatalog struct {
	next   plandok.CatalogService
	logger *slog.Logger
}

// NewLoggingCatalog creates a new LoggingCatalog.
func NewLoggingCatalog(next plandok.CatalogService, logger *slog.Logger) *LoggingCatalog {
	return &LoggingCatalog{next: next, logger: logger}
}

// Insert delegates to the wrapped service and logs the outcome.
func (c *LoggingCatalog) Insert(ctx context.Context, doc *plandok.Document) error {
	err := c.next.Insert(ctx, doc)
	if err != nil {
		c.logger.Warn("document insert rejected",
			"title", doc.Title,
			"code", plandok.ErrorCode(err),
		)
		return err
	}
	c.logger.Info("document inserted",
		"id", doc.ID,
		"title", doc.Title,
		"category", doc.Category,
	)
	return nil
}

// Update delegates to the wrapped service and logs the outcome.
func (c *LoggingCatalog) Update(ctx context.Context, id string, upd plandok.DocumentUpdate) (*plandok.Document, error) {
	doc, err := c.next.Update(ctx, id, upd)
	if err != nil {
		c.logger.Warn("document update failed", "id", id, "code", plandok.ErrorCode(err))
		return nil, err
	}
	c.logger.Info("document updated", "id", id)
	return doc, nil
}

// Get delegates to the wrapped service.
func (c *LoggingCatalog) Get(ctx context.Context, id string) (*plandok.Document, error) {
	return c.next.Get(ctx, id)
}

// FindByFingerprint delegates to the wrapped service.
func (c *LoggingCatalog) FindByFingerprint(ctx context.Context, fingerprint string) (*plandok.Document, error) {
	return c.next.FindByFingerprint(ctx, fingerprint)
}

// List delegates to the wrapped service.
func (c *LoggingCatalog) List(ctx context.Context, filter plandok.DocumentFilter) ([]*plandok.Document, error) {
	return c.next.List(ctx, filter)
}

// ListDue delegates to the wrapped service.
func (c *LoggingCatalog) ListDue(ctx context.Context, olderThan time.Time, limit int) ([]*plandok.Document, error) {
	return c.next.ListDue(ctx, olderThan, limit)
}

// RecordVerification delegates to the wrapped service and logs the outcome.
func (c *LoggingCatalog) RecordVerification(ctx context.Context, documentID string, rec *plandok.VerificationRecord) error {
	err := c.next.RecordVerification(ctx, documentID, rec)
	if err != nil {
		c.logger.Warn("verification record rejected",
			"documentId", documentID,
			"code", plandok.ErrorCode(err),
		)
		return err
	}
	c.logger.Info("verification recorded",
		"documentId", documentID,
		"outcome", rec.Outcome,
	)
	return nil
}

// Records delegates to the wrapped service.
func (c *LoggingCatalog) Records(ctx context.Context, documentID string) ([]*plandok.VerificationRecord, error) {
	return c.next.Records(ctx, documentID)
}

// Delete delegates to the wrapped service and logs the outcome.
func (c *LoggingCatalog) Delete(ctx context.Context, id string) error {
	if err := c.next.Delete(ctx, id); err != nil {
		c.logger.Warn("document delete failed", "id", id, "code", plandok.ErrorCode(err))
		return err
	}
	c.logger.Info("document deleted", "id", id)
	return nil
}

// Analytics delegates to the wrapped service.
func (c *LoggingCatalog) Analytics(ctx context.Context) (*plandok.Rollup, error) {
	return c.next.Analytics(ctx)
}
