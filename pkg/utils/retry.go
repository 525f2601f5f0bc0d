// Package utils provides utility functions for the hwalias daemon.
//
//nolint:revive // utils is a common and acceptable package name
package utils

import (
	"context"
	"time"

	"github.com/golang/glog"
)

const (
	// DefaultMaxRetryAttempts is the default maximum number of attempts for a storage operation.
	DefaultMaxRetryAttempts = 5
	// DefaultRetryBackoffBase is the default initial backoff duration between attempts.
	DefaultRetryBackoffBase = 10 * time.Millisecond
	// DefaultMaxRetryBackoff is the default maximum backoff duration between attempts.
	DefaultMaxRetryBackoff = 500 * time.Millisecond
)

// RetryConfig holds the parameters for retrying an operation with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts before giving up.
	MaxAttempts int
	// BackoffBase is the initial backoff duration between attempts.
	BackoffBase time.Duration
	// MaxBackoff is the maximum backoff duration (cap for exponential growth).
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns a RetryConfig with sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxRetryAttempts,
		BackoffBase: DefaultRetryBackoffBase,
		MaxBackoff:  DefaultMaxRetryBackoff,
	}
}

// RetryWithBackoff runs fn until it succeeds, returns a non-transient error,
// or cfg.MaxAttempts is exhausted. Only errors for which IsTransient reports
// true are retried. It is responsive to cancellation via ctx; on cancellation
// the last error from fn is returned, or ctx.Err() if fn never ran.
func RetryWithBackoff(ctx context.Context, name string, fn func() error, cfg RetryConfig) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	backoff := cfg.BackoffBase
	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			glog.Infof("Stop signal received, aborting %s", name)
			if err == nil {
				err = ctx.Err()
			}
			return err
		default:
		}

		err = fn()
		if err == nil {
			if attempt > 1 {
				glog.Infof("%s succeeded after %d attempt(s)", name, attempt)
			}
			return nil
		}
		if !IsTransient(err) {
			return err
		}

		if attempt < attempts {
			glog.Warningf("%s failed (attempt %d/%d): %v, retrying in %v",
				name, attempt, attempts, err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				glog.Info("Stop signal received during backoff, aborting retry")
				return err
			}
			backoff *= 2
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
	}

	glog.Errorf("%s failed after %d attempts: %v", name, attempts, err)
	return err
}
