package esplora

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/waybar-scripts/walletbar/pkg/circuitbreaker"
	"github.com/waybar-scripts/walletbar/pkg/explorer"
	"github.com/waybar-scripts/walletbar/pkg/httputil"
)

const (
	// DefaultRetries is the number of extra attempts for transient failures.
	DefaultRetries = 2
	// DefaultRetryDelay is the first backoff between attempts, it grows
	// exponentially up to MaxRetryDelay.
	DefaultRetryDelay = time.Second
	// MaxRetryDelay caps the backoff between attempts.
	MaxRetryDelay = 10 * time.Second
)

type esplora struct {
	apiURL         string
	client         *httputil.Client
	cb             *gobreaker.CircuitBreaker
	retries        int
	retryDelay     time.Duration
	includeMempool bool
}

// Option customizes the esplora service.
type Option func(*esplora)

// WithHTTPClient overrides the default http client.
func WithHTTPClient(client *httputil.Client) Option {
	return func(e *esplora) {
		e.client = client
	}
}

// WithRetries sets how many times a transient failure is retried and the base
// delay between attempts.
func WithRetries(retries int, delay time.Duration) Option {
	return func(e *esplora) {
		if retries >= 0 {
			e.retries = retries
		}
		if delay >= 0 {
			e.retryDelay = delay
		}
	}
}

// WithMempool makes balances account for unconfirmed txs.
func WithMempool(include bool) Option {
	return func(e *esplora) {
		e.includeMempool = include
	}
}

// WithCircuitBreaker overrides the default circuit breaker.
func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(e *esplora) {
		e.cb = cb
	}
}

// NewService returns a new esplora service as an explorer.Service interface
func NewService(apiURL string, opts ...Option) (explorer.Service, error) {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		return nil, fmt.Errorf("missing explorer endpoint")
	}
	if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
		return nil, fmt.Errorf("explorer endpoint %s must be an http(s) url", apiURL)
	}

	service := &esplora{
		apiURL:     apiURL,
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.client == nil {
		service.client = httputil.NewClient(httputil.DefaultTimeout, nil)
	}
	if service.cb == nil {
		service.cb = circuitbreaker.NewCircuitBreaker("esplora")
	}

	return service, nil
}

type response struct {
	body []byte
	err  error
}

// get performs a GET against the explorer, retrying transient failures with
// an exponential backoff. Only transient failures are reported to the
// circuit breaker.
func (e *esplora) get(ctx context.Context, path string) ([]byte, error) {
	url := fmt.Sprintf("%s%s", e.apiURL, path)

	attempts := 0
	op := func() ([]byte, error) {
		attempts++
		body, err := e.do(ctx, url)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) ||
			errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, backoff.Permanent(
				fmt.Errorf("%w: %s", explorer.ErrUnavailable, err),
			)
		}
		if !httputil.IsTransient(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	notify := func(err error, wait time.Duration) {
		log.WithError(err).WithFields(log.Fields{
			"path":    path,
			"attempt": attempts,
			"wait":    wait,
		}).Debug("retrying explorer request")
	}

	body, err := backoff.RetryNotifyWithData(op, e.newBackOff(ctx), notify)
	if err == nil {
		return body, nil
	}
	if ctx.Err() != nil || !httputil.IsTransient(err) {
		return nil, err
	}
	return nil, fmt.Errorf(
		"%w after %d attempts: %s", explorer.ErrTransient, attempts, err,
	)
}

func (e *esplora) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(e.retryDelay),
		backoff.WithMaxInterval(MaxRetryDelay),
	)
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(e.retries)), ctx)
}

func (e *esplora) do(ctx context.Context, url string) ([]byte, error) {
	res, err := e.cb.Execute(func() (interface{}, error) {
		body, err := e.client.Get(ctx, url, nil)
		if err != nil && httputil.IsTransient(err) {
			return nil, err
		}
		return response{body, err}, nil
	})
	if err != nil {
		return nil, err
	}
	r := res.(response)
	return r.body, r.err
}
