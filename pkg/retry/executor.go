package retry

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
)

// Classifier reports whether an error is worth another attempt
type Classifier func(err error) bool

// retryable is implemented by errors that know whether they are transient
type retryable interface {
	Retryable() bool
}

// IsRetryable is the default classifier. Cancellation is final, errors that
// describe themselves via Retryable() are trusted, anything else is treated
// as a transport failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// Executor runs operations under a Policy
type Executor struct {
	policy     *Policy
	classifier Classifier
}

// NewExecutor creates an executor for policy
func NewExecutor(policy *Policy) *Executor {
	if policy == nil {
		policy = NewPolicy()
	}
	return &Executor{
		policy:     policy,
		classifier: IsRetryable,
	}
}

// WithClassifier replaces the retry classifier
func (e *Executor) WithClassifier(classifier Classifier) *Executor {
	e.classifier = classifier
	return e
}

// Policy returns the executor's policy
func (e *Executor) Policy() *Policy {
	return e.policy
}

// Execute calls operation until it succeeds, returns a non-retryable error,
// the attempts run out, or ctx is done. The last error is returned unwrapped.
func (e *Executor) Execute(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.policy.InitialInterval
	b.Multiplier = e.policy.BackoffCoefficient
	b.MaxInterval = e.policy.MaximumInterval
	b.MaxElapsedTime = 0

	var policy backoff.BackOff = b
	if e.policy.MaximumAttempts > 0 {
		policy = backoff.WithMaxRetries(b, uint64(e.policy.MaximumAttempts-1))
	}

	return backoff.Retry(func() error {
		err := operation()
		if err != nil && !e.classifier(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))
}
