package orchestrator

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// RetryPolicy controls how transient pipeline failures are retried.
type RetryPolicy struct {
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int

	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration

	// Multiplier scales the delay after each retry.
	Multiplier float64
}

// DefaultRetryPolicy retries three times, waiting 1s, 2s, then 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: time.Second,
		Multiplier:   2.0,
	}
}

// Do runs one pipeline step, retrying fn while it fails with a retryable
// error. Each call carries the full budget: MaxRetries extra attempts,
// waiting InitialDelay before the first retry and multiplying after each.
// A non-retryable error returns immediately; an exhausted budget returns
// the last error stripped of its transient marker, so callers treat it
// as terminal.
func (p RetryPolicy) Do(op string, logger *log.Logger, sleep func(time.Duration), fn func() error) error {
	delay := p.InitialDelay
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Printf("Retrying %s in %s (attempt %d of %d): %v",
				op, delay, attempt+1, p.MaxRetries+1, lastErr)
			sleep(delay)
			delay = time.Duration(float64(delay) * p.Multiplier)
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("giving up on %s after %d attempts: %w", op, p.MaxRetries+1, cause(lastErr))
}

// Retryable marks an error as transient: repeating the same attempt may
// succeed. Read failures on files still being written and undelivered
// publish commands fall in this class; unusable content does not.
//
// Check with IsRetryable rather than a type assertion, so wrapping with
// fmt.Errorf keeps the classification:
//
//	if orchestrator.IsRetryable(err) {
//	    // worth another attempt
//	}
type Retryable struct {
	Err error
}

func (e *Retryable) Error() string { return e.Err.Error() }

func (e *Retryable) Unwrap() error { return e.Err }

// IsRetryable reports whether err is marked transient anywhere in its
// chain.
func IsRetryable(err error) bool {
	var r *Retryable
	return errors.As(err, &r)
}

// retryable wraps an error as transient.
func retryable(err error) error {
	return &Retryable{Err: err}
}

// cause strips the transient marker so exhausted retries surface a
// terminal error.
func cause(err error) error {
	var r *Retryable
	if errors.As(err, &r) {
		return r.Err
	}
	return err
}
