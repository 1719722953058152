// Package slog provides logging decorators for plandok services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/plandok"
)

// Ensure LoggingChecker implements plandok.LinkChecker.
var _ plandok.LinkChecker = (*LoggingChecker)(nil)

// LoggingChecker wraps a LinkChecker with per-check logging.
type LoggingChecker struct {
	next   plandok.LinkChecker
	logger *slog.Logger
}

// NewLoggingChecker creates a new LoggingChecker.
func NewLoggingChecker(next plandok.LinkChecker, logger *slog.Logger) *LoggingChecker {
	return &LoggingChecker{next: next, logger: logger}
}

// Check delegates to the wrapped checker and logs the classification.
func (c *LoggingChecker) Check(ctx context.Context, url string) (*plandok.CheckResult, error) {
	begin := time.Now()
	result, err := c.next.Check(ctx, url)
	if err != nil {
		c.logger.Warn("link check failed",
			"url", url,
			"error", err,
			"duration", time.Since(begin),
		)
		return nil, err
	}

	c.logger.Info("link check",
		"url", url,
		"status", result.StatusCode,
		"outcome", result.Outcome,
		"duration", time.Since(begin),
	)
	return result, nil
}
