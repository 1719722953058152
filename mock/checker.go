package mock

import (
	"context"

	"github.com/fwojciec/plandok"
)

var _ plandok.LinkChecker = (*LinkChecker)(nil)

// LinkChecker is a mock implementation of plandok.LinkChecker.
type LinkChecker struct {
	CheckFn func(ctx context.Context, url string) (*plandok.CheckResult, error)
}

func (c *LinkChecker) Check(ctx context.Context, url string) (*plandok.CheckResult, error) {
	return c.CheckFn(ctx, url)
}

var _ plandok.HostLimiter = (*HostLimiter)(nil)

// HostLimiter is a mock implementation of plandok.HostLimiter.
type HostLimiter struct {
	WaitFn func(ctx context.Context, host string) error
}

func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l.WaitFn == nil {
		return nil
	}
	return l.WaitFn(ctx, host)
}
