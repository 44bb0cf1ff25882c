package httputils

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

type RetryOptions struct {
	// MaxRetries is the total number of attempts, including the first.
	MaxRetries int
	// Unit is the base backoff: attempt i waits Unit * 2^i before the next one.
	Unit    time.Duration
	Timeout time.Duration
	Limiter ratelimit.Limiter
}

// NewRetryableClient returns a client that retries on any transport error or non-2xx status.
func NewRetryableClient(opts RetryOptions, log *logrus.Entry) *retryablehttp.Client {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewUnlimited()
	}

	c := retryablehttp.NewClient()
	c.HTTPClient.Timeout = opts.Timeout
	c.RetryMax = opts.MaxRetries - 1
	c.RetryWaitMin = opts.Unit
	c.RetryWaitMax = ExponentialBackoff(opts.Unit)(0, 0, c.RetryMax, nil)
	c.Backoff = ExponentialBackoff(opts.Unit)
	c.Logger = &leveledLogger{log: log}

	c.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if a := AttemptFromContext(req.Context()); a != nil {
			a.set(attempt)
		}

		opts.Limiter.Take()
		log.Infof("Requesting %s with method %s (attempt %d/%d)", RedactURL(req.URL), req.Method, attempt+1, opts.MaxRetries)
	}

	c.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		var reason string
		switch {
		case err != nil:
			reason = err.Error()
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			reason = fmt.Sprintf("unexpected status: %s", resp.Status)
		default:
			return false, nil
		}

		attempt := 0
		if a := AttemptFromContext(ctx); a != nil {
			attempt = a.Index()
		}

		log.Warnf("Attempt %d/%d failed: %s", attempt+1, opts.MaxRetries, reason)
		if attempt < opts.MaxRetries-1 {
			log.Infof("Retrying in %s...", c.Backoff(c.RetryWaitMin, c.RetryWaitMax, attempt, resp))
		}

		return true, nil
	}

	return c
}

// ExponentialBackoff waits unit * 2^attemptNum, ignoring the client's min/max bounds.
func ExponentialBackoff(unit time.Duration) retryablehttp.Backoff {
	return func(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
		return unit * time.Duration(int64(1)<<uint(attemptNum))
	}
}

type attemptKey struct{}

// Attempt records the zero-based index of the most recent attempt for one logical request.
type Attempt struct {
	index atomic.Int64
}

func (a *Attempt) Index() int {
	return int(a.index.Load())
}

func (a *Attempt) set(i int) {
	a.index.Store(int64(i))
}

func WithAttempt(ctx context.Context) (context.Context, *Attempt) {
	a := &Attempt{}
	return context.WithValue(ctx, attemptKey{}, a), a
}

func AttemptFromContext(ctx context.Context) *Attempt {
	a, _ := ctx.Value(attemptKey{}).(*Attempt)
	return a
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// leveledLogger pushes retryablehttp's own chatter down a level; the hooks above
// already log each attempt.
type leveledLogger struct {
	log *logrus.Entry
}

func (l *leveledLogger) with(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.log.WithFields(fields)
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Trace(msg)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Trace(msg)
}
