package llm

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/PabloGalante/weekendship/internal/domain"
)

type ResilienceConfig struct {
	Timeout      time.Duration // per call, covering every attempt
	MaxAttempts  int
	InitialDelay time.Duration
}

// ResilientClient wraps a ModelClient with a timeout and retries.
type ResilientClient struct {
	inner domain.ModelClient
	cfg   ResilienceConfig
}

func NewResilientClient(inner domain.ModelClient, cfg ResilienceConfig) *ResilientClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	return &ResilientClient{inner: inner, cfg: cfg}
}

func (c *ResilientClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	r := retry.New[string](retry.Config{
		MaxAttempts:   c.cfg.MaxAttempts,
		InitialDelay:  c.cfg.InitialDelay,
		BackoffPolicy: retry.BackoffExponential,
	})

	t := timeout.New[string](timeout.Config{
		DefaultTimeout: c.cfg.Timeout,
	})

	return t.Execute(ctx, c.cfg.Timeout, func(ctx context.Context) (string, error) {
		return r.Do(ctx, func(ctx context.Context) (string, error) {
			return c.inner.Complete(ctx, req)
		})
	})
}
