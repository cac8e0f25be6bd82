// Package httpclient provides the retrying HTTP client used for all remote calls.
package httpclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/huangsam/ticsgate/schema"
)

// RequestedWith is sent with every viewer request.
const RequestedWith = "tics"

// maxErrorBody bounds how much of an error response is quoted in errors.
const maxErrorBody = 512

// RequestError is a failed request together with the number of retries spent on it.
type RequestError struct {
	URL        string
	StatusCode int // Zero when no response was received
	Retries    int
	Err        error
}

func (e *RequestError) Error() string {
	msg := "GET " + e.URL
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" returned status %d", e.StatusCode)
	} else {
		msg += " failed"
	}
	if e.Retries > 0 {
		msg += fmt.Sprintf(" after %d retries", e.Retries)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Options configures a Client.
type Options struct {
	RetryCodes           []int
	RetryDelay           time.Duration
	MaxRetries           int // Retries after the first attempt
	TrustStrategy        schema.TrustStrategy
	HostnameVerification bool
	AuthToken            string // Sent as a Basic authorization header when set
	Logger               *logging.Logger

	// WrapTransport decorates the TLS and proxy aware transport, e.g. with OAuth2.
	WrapTransport func(http.RoundTripper) http.RoundTripper
}

// Client performs retrying GET requests with a fixed delay between attempts.
type Client struct {
	rc        *retryablehttp.Client
	authToken string
}

// New creates a Client based on Options.
func New(opts Options) *Client {
	var transport http.RoundTripper = newTransport(opts.TrustStrategy, opts.HostnameVerification)
	if opts.WrapTransport != nil {
		transport = opts.WrapTransport(transport)
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Transport: transport}
	rc.RetryMax = opts.MaxRetries
	rc.RetryWaitMin = opts.RetryDelay
	rc.RetryWaitMax = opts.RetryDelay
	rc.Backoff = fixedBackoff(opts.RetryDelay)
	rc.CheckRetry = retryOn(opts.RetryCodes)
	rc.ErrorHandler = giveUp
	rc.Logger = leveledLogger{log: opts.Logger}

	return &Client{rc: rc, authToken: opts.AuthToken}
}

// StandardClient returns a *http.Client that retries through this Client.
func (c *Client) StandardClient() *http.Client {
	return c.rc.StandardClient()
}

// GetJSON fetches url and decodes the JSON body into out.
// Any non-2xx response is returned as a *RequestError.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", RequestedWith)
	if c.authToken != "" {
		req.Header.Set("Authorization", "Basic "+c.authToken)
	}

	resp, err := c.rc.Do(req)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			reqErr.URL = url
			return reqErr
		}
		return &RequestError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RequestError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(resp.Status + " " + string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response of %s: %w", url, err)
	}
	return nil
}

// newTransport builds a proxy aware transport honoring the trust strategy.
func newTransport(strategy schema.TrustStrategy, hostnameVerification bool) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment

	switch strategy {
	case schema.SelfSignedTrust:
		cfg := &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed viewers are opted into
		if hostnameVerification {
			cfg.VerifyConnection = verifyHostname
		}
		transport.TLSClientConfig = cfg
	case schema.AllTrust:
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // all certificates are opted into
	}
	return transport
}

// verifyHostname checks the leaf certificate name without checking its chain.
func verifyHostname(cs tls.ConnectionState) error {
	if len(cs.PeerCertificates) == 0 {
		return errors.New("server presented no certificate")
	}
	return cs.PeerCertificates[0].VerifyHostname(cs.ServerName)
}

// fixedBackoff waits the same delay before every retry.
func fixedBackoff(delay time.Duration) retryablehttp.Backoff {
	return func(_, _ time.Duration, _ int, _ *http.Response) time.Duration {
		return delay
	}
}

// retryOn retries the given status codes and recoverable connection errors.
func retryOn(codes []int) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
		return slices.Contains(codes, resp.StatusCode), nil
	}
}

// giveUp converts an exhausted or unrecoverable request into a RequestError.
func giveUp(resp *http.Response, err error, numTries int) (*http.Response, error) {
	reqErr := &RequestError{Retries: max(numTries-1, 0), Err: err}
	if resp != nil {
		reqErr.StatusCode = resp.StatusCode
		if resp.Request != nil {
			reqErr.URL = resp.Request.URL.String()
		}
		_ = resp.Body.Close()
	}
	return nil, reqErr
}

// leveledLogger routes the retry client's logs into the job log.
type leveledLogger struct {
	log *logging.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{} // Compile-time check

func (l leveledLogger) Error(msg string, keysAndValues ...any) { l.log.Warnw(msg, keysAndValues...) }
func (l leveledLogger) Warn(msg string, keysAndValues ...any)  { l.log.Warnw(msg, keysAndValues...) }
func (l leveledLogger) Info(msg string, keysAndValues ...any)  { l.log.Debugw(msg, keysAndValues...) }
func (l leveledLogger) Debug(msg string, keysAndValues ...any) { l.log.Debugw(msg, keysAndValues...) }
