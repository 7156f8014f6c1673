// Package transport sends signed requests to an S3-compatible endpoint over a
// single shared, hardened HTTP client.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/williamokano/s3compat/pkg/config"
	"github.com/williamokano/s3compat/pkg/metrics"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultConnectTimeout = 15 * time.Second
	MaxRedirects          = 3
	// DefaultMaxResponseBytes caps buffered response bodies. A first listing page is far below it.
	DefaultMaxResponseBytes = 32 << 20
)

// Version is reported in the User-Agent header.
var Version = "dev"

// ErrResponseTooLarge is returned when a response body exceeds the configured limit.
var ErrResponseTooLarge = errors.New("transport: response body too large")

// ErrRestrictedAddress is returned when a connection to a private or reserved address is refused.
var ErrRestrictedAddress = errors.New("transport: connection to restricted address refused")

// Request is one outbound call. Header names are case-insensitive; a "host"
// entry overrides the URL authority and "content-length" is taken from ContentLength.
type Request struct {
	// Operation labels metrics and logs, e.g. "list_objects".
	Operation     string
	Method        string
	URL           string
	Header        map[string]string
	Body          io.Reader
	ContentLength int64
}

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Reason     string
	Header     http.Header
	Body       []byte
}

// Client is safe for concurrent use and holds no per-request state.
type Client struct {
	http      *http.Client
	observer  metrics.Observer
	logger    zerolog.Logger
	userAgent string
	maxBody   int64
}

type options struct {
	allowPrivate   bool
	timeout        time.Duration
	connectTimeout time.Duration
	observer       metrics.Observer
	logger         zerolog.Logger
	tlsConfig      *tls.Config
	maxBody        int64
}

// Option configures a Client.
type Option func(*options)

// WithAllowPrivateNetworks disables the dial-time address guard.
func WithAllowPrivateNetworks() Option {
	return func(o *options) {
		o.allowPrivate = true
	}
}

// WithTimeout sets the total per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithObserver records request metrics.
func WithObserver(obs metrics.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxResponseBytes caps how much of a response body is buffered. n below 1 keeps the default.
func WithMaxResponseBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBody = n
		}
	}
}

// WithTLSConfig replaces the TLS configuration. Verification stays the caller's responsibility.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) {
		o.tlsConfig = cfg
	}
}

// New creates a Client: IPv4 only, verified TLS 1.2+, at most three redirects,
// no retries and no environment proxy.
func New(opts ...Option) *Client {
	o := &options{
		timeout:        DefaultTimeout,
		connectTimeout: DefaultConnectTimeout,
		logger:         zerolog.Nop(),
		tlsConfig:      &tls.Config{MinVersion: tls.VersionTLS12},
		maxBody:        DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(o)
	}

	dialer := &net.Dialer{Timeout: o.connectTimeout}
	if !o.allowPrivate {
		dialer.Control = guardAddress
	}

	tr := &http.Transport{
		Proxy: nil,
		DialContext: func(ctx context.Context, _, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp4", addr)
		},
		TLSClientConfig:     o.tlsConfig,
		TLSHandshakeTimeout: o.connectTimeout,
		MaxIdleConns:        16,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		http: &http.Client{
			Transport: tr,
			Timeout:   o.timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > MaxRedirects {
					return fmt.Errorf("stopped after %d redirects", MaxRedirects)
				}
				return nil
			},
		},
		observer:  o.observer,
		logger:    o.logger,
		userAgent: "s3compat/" + Version,
		maxBody:   o.maxBody,
	}
}

// Send performs exactly one attempt. Failures before a response wrap
// ErrTransport; non-2xx responses return *StatusError.
func (c *Client) Send(ctx context.Context, r Request) (*Response, error) {
	req, err := c.newHTTPRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(r, "error", start)
		c.logger.Debug().
			Err(err).
			Str("operation", r.Operation).
			Str("method", r.Method).
			Str("path", req.URL.Path).
			Msg("S3 request failed")
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, r.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	c.observe(r, strconv.Itoa(resp.StatusCode), start)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: %w: more than %d bytes", ErrTransport, ErrResponseTooLarge, c.maxBody)
	}

	c.logger.Debug().
		Str("operation", r.Operation).
		Str("method", r.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("S3 request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp, body)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, r Request) (*http.Request, error) {
	body := r.Body
	if body == nil || r.ContentLength == 0 {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrTransport, err)
	}
	req.ContentLength = r.ContentLength
	req.Header.Set("User-Agent", c.userAgent)

	for name, value := range r.Header {
		switch strings.ToLower(name) {
		case "host":
			req.Host = value
		case "content-length":
			// carried by req.ContentLength
		default:
			req.Header.Set(name, value)
		}
	}

	if r.ContentLength > 0 && c.observer != nil {
		c.observer.ObserveBytes(r.Operation, r.ContentLength)
	}

	return req, nil
}

func (c *Client) observe(r Request, code string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(r.Operation, code, time.Since(start))
	}
}

// guardAddress runs after DNS resolution, so hostnames that resolve to
// internal addresses are refused as well as literals.
func guardAddress(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRestrictedAddress, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || config.IsRestrictedAddr(addr) {
		return fmt.Errorf("%w: %s", ErrRestrictedAddress, host)
	}
	return nil
}
