package retry

import "time"

// Policy defines the retry policy configuration
type Policy struct {
	InitialInterval    time.Duration `yaml:"initial_interval"`
	BackoffCoefficient float64       `yaml:"backoff_coefficient"`
	MaximumInterval    time.Duration `yaml:"maximum_interval"`
	MaximumAttempts    int32         `yaml:"maximum_attempts"`
}

// Option represents a retry policy option
type Option func(*Policy)

// WithInitialInterval sets the initial interval for retries
func WithInitialInterval(interval time.Duration) Option {
	return func(p *Policy) {
		p.InitialInterval = interval
	}
}

// WithBackoffCoefficient sets the backoff coefficient
func WithBackoffCoefficient(coefficient float64) Option {
	return func(p *Policy) {
		p.BackoffCoefficient = coefficient
	}
}

// WithMaximumInterval sets the maximum interval between retries
func WithMaximumInterval(interval time.Duration) Option {
	return func(p *Policy) {
		p.MaximumInterval = interval
	}
}

// WithMaxAttempts sets the maximum number of attempts, the first call included
func WithMaxAttempts(attempts int32) Option {
	return func(p *Policy) {
		p.MaximumAttempts = attempts
	}
}

// NewPolicy creates a new retry policy with default values
func NewPolicy(opts ...Option) *Policy {
	policy := &Policy{
		InitialInterval:    time.Second,      // Default 1s
		BackoffCoefficient: 2.0,              // Default exponential backoff
		MaximumInterval:    time.Second * 30, // Default 30s
		MaximumAttempts:    3,                // Default 3 attempts
	}

	for _, opt := range opts {
		opt(policy)
	}

	return policy
}

// Options returns the policy as a list of options, for handing a loaded
// policy to a client constructor
func (p Policy) Options() []Option {
	return []Option{
		WithInitialInterval(p.InitialInterval),
		WithBackoffCoefficient(p.BackoffCoefficient),
		WithMaximumInterval(p.MaximumInterval),
		WithMaxAttempts(p.MaximumAttempts),
	}
}
