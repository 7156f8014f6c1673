// Package s3 talks to S3-compatible object storage without a vendor SDK.
// Every call takes one configuration snapshot, resolves the endpoint and
// signs its own requests.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/williamokano/s3compat/pkg/config"
	"github.com/williamokano/s3compat/pkg/sigv4"
	"github.com/williamokano/s3compat/pkg/storage"
	"github.com/williamokano/s3compat/pkg/transport"
)

// Sender performs a single HTTP exchange. *transport.Client implements it.
type Sender interface {
	Send(ctx context.Context, r transport.Request) (*transport.Response, error)
}

// Client implements storage.Store.
type Client struct {
	settings *config.Store
	sender   Sender
	logger   zerolog.Logger
	policy   config.Policy
	now      func() time.Time
}

var _ storage.Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the signing time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithEndpointPolicy replaces the strict endpoint policy.
func WithEndpointPolicy(p config.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// New creates a new S3 client
func New(settings *config.Store, sender Sender, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		settings: settings,
		sender:   sender,
		logger:   logger.With().Str("backend", "s3").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// session is the per-call view of the configuration.
type session struct {
	cfg    config.Settings
	ep     *config.Endpoint
	signer *sigv4.Signer
}

// newSession snapshots the settings. A rejected endpoint is reported as
// ErrNotConfigured so callers cannot tell it apart from a missing one.
func (c *Client) newSession(needBucket bool) (*session, error) {
	cfg := c.settings.Load()
	if !cfg.HasCredentials() || (needBucket && cfg.Bucket == "") {
		return nil, storage.ErrNotConfigured
	}
	ep, err := c.policy.Resolve(cfg.Endpoint)
	if err != nil {
		c.logger.Debug().Err(err).Msg("endpoint rejected")
		return nil, fmt.Errorf("%w: %w", storage.ErrNotConfigured, err)
	}
	return &session{
		cfg:    cfg,
		ep:     ep,
		signer: sigv4.NewSigner(cfg.AccessKey, cfg.SecretKey, cfg.GetRegion(), sigv4.WithClock(c.now)),
	}, nil
}

func (s *session) url(uri, query string) string {
	u := s.ep.Scheme + "://" + s.ep.Host() + uri
	if query != "" {
		u += "?" + query
	}
	return u
}

func (s *session) serviceURI() string {
	return s.ep.Path + "/"
}

func (s *session) bucketURI() string {
	return s.ep.Path + "/" + sigv4.Escape(s.cfg.Bucket)
}

func (s *session) objectURI(key string) string {
	return s.bucketURI() + sigv4.EncodePath(key)
}

// signedCall is one SigV4 header-authenticated request.
type signedCall struct {
	operation   string
	method      string
	uri         string
	query       string
	headers     map[string]string
	body        io.Reader
	size        int64
	payloadHash string
}

func (c *Client) sendSigned(ctx context.Context, s *session, call signedCall) (*transport.Response, error) {
	signed := s.signer.SignHeaders(sigv4.Request{
		Method:      call.method,
		Host:        s.ep.Host(),
		URI:         call.uri,
		Query:       call.query,
		Headers:     call.headers,
		PayloadHash: call.payloadHash,
	})

	header := make(map[string]string, len(signed.Headers)+1)
	for k, v := range signed.Headers {
		header[k] = v
	}
	header["authorization"] = signed.Authorization

	return c.sender.Send(ctx, transport.Request{
		Operation:     call.operation,
		Method:        call.method,
		URL:           s.url(call.uri, call.query),
		Header:        header,
		Body:          call.body,
		ContentLength: call.size,
	})
}

// sendSimple issues a GET with the legacy "AWS ak:sig" header.
func (c *Client) sendSimple(ctx context.Context, s *session, operation, uri string) (*transport.Response, error) {
	fullURL := s.url(uri, "")
	return c.sender.Send(ctx, transport.Request{
		Operation: operation,
		Method:    "GET",
		URL:       fullURL,
		Header: map[string]string{
			"authorization": sigv4.SimpleAuthorization(s.cfg.AccessKey, s.cfg.SecretKey, fullURL),
		},
	})
}

// classify maps a non-2xx status onto ErrAuthRejected and leaves transport failures as they are.
func classify(err error) error {
	var se *transport.StatusError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %w", storage.ErrAuthRejected, err)
	}
	return err
}
