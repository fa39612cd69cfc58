package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// httpClient is an http.Client with an outbound rate limit. It never retries:
// a failed fetch is reported once and the user re-submits.
type httpClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

func newHTTPClient(proxyURL string, timeout time.Duration, requestsPerSec int) *httpClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		transport.Proxy = proxyFunc(proxyURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if requestsPerSec <= 0 {
		requestsPerSec = 2
	}
	return &httpClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), requestsPerSec),
	}
}

// proxyFunc routes every request through proxyURL. An unusable proxy URL fails
// each request instead of silently going direct.
func proxyFunc(proxyURL string) func(*http.Request) (*url.URL, error) {
	u, err := url.Parse(proxyURL)
	if err == nil && (u.Scheme == "" || u.Host == "") {
		err = errors.New("missing scheme or host")
	}
	if err != nil {
		err = fmt.Errorf("invalid proxy url %q: %w", proxyURL, err)
		return func(*http.Request) (*url.URL, error) { return nil, err }
	}
	return http.ProxyURL(u)
}

func (c *httpClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.client.Do(req.WithContext(ctx))
}
