package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/docreview/internal/retry"
)

// DefaultTimeout bounds one model call end to end, retries included.
const DefaultTimeout = 2 * time.Minute

// ResilientClient wraps a Client with retry, rate limiting and a call
// timeout. Model failure never propagates as a pipeline failure; the
// caller branches to the deterministic path on error.
type ResilientClient struct {
	client   Client
	retryCfg retry.Config
	limiter  *rate.Limiter
	timeout  time.Duration
}

// NewResilientClient wraps client with the model retry profile and a
// one-request-per-second limiter.
func NewResilientClient(client Client, timeout time.Duration) *ResilientClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ResilientClient{
		client:   client,
		retryCfg: retry.ModelConfig(),
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		timeout:  timeout,
	}
}

// Name returns the wrapped client's name.
func (rc *ResilientClient) Name() string {
	return rc.client.Name()
}

// Complete runs a prompt with rate limiting, a deadline and retries on
// transient failures.
func (rc *ResilientClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()

	if err := rc.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var response string
	result := retry.Do(ctx, rc.retryCfg, func() error {
		out, err := rc.client.Complete(ctx, prompt)
		if err != nil {
			return err
		}
		response = out
		return nil
	})

	if !result.Success {
		return "", result.LastError
	}
	return response, nil
}
