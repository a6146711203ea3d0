package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout is used when a non positive timeout is given.
	DefaultTimeout = 30 * time.Second
	// maxBodySize caps the size of response bodies read into memory.
	maxBodySize = 1 << 20
)

// StatusError is returned for responses with a non 2xx status code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 120 {
		body = body[:120] + "..."
	}
	if body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, body)
}

// Temporary returns whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// IsTransient returns whether err is worth a retry: timeouts, network
// failures, rate limiting and server side errors. Cancellation of the
// caller's context is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// Client is a thin wrapper of *http.Client with a per request timeout and a
// set of default headers.
type Client struct {
	client *http.Client
	header map[string]string
}

// NewClient returns a client whose requests are bound to the given timeout.
func NewClient(timeout time.Duration, header map[string]string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	h := make(map[string]string, len(header))
	for k, v := range header {
		h[k] = v
	}
	return &Client{
		client: &http.Client{Timeout: timeout},
		header: h,
	}
}

// Get performs a GET request and returns the response body. Any status
// other than 200 is returned as a *StatusError along with the body.
func (c *Client) Get(
	ctx context.Context, url string, header map[string]string,
) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range c.header {
		req.Header.Set(key, value)
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rs.Body.Close()

	body, err := io.ReadAll(io.LimitReader(rs.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if rs.StatusCode != http.StatusOK {
		return body, &StatusError{Code: rs.StatusCode, Body: string(body)}
	}
	return body, nil
}
