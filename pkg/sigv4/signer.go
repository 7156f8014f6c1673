package sigv4

import (
	"strconv"
	"strings"
	"time"
)

// Request describes what gets signed. URI must already be encoded with
// EncodePath and Query must be canonical (see EncodeQuery).
type Request struct {
	Method string
	Host   string
	URI    string
	Query  string
	// Headers are extra headers to sign, e.g. content-length and content-type
	// for uploads. host, x-amz-date and x-amz-content-sha256 are added.
	Headers map[string]string
	// PayloadHash is the hex SHA-256 of the body; empty means no body.
	PayloadHash string
}

// SignedRequest is the result of header signing. Headers holds every signed
// header (lower-case names) the transport has to send alongside Authorization.
type SignedRequest struct {
	Method        string
	URI           string
	Query         string
	Headers       map[string]string
	SignedHeaders string
	Signature     string
	Authorization string
}

// PresignRequest describes a query-authenticated GET.
type PresignRequest struct {
	Method  string // default GET
	Host    string
	URI     string
	Expires time.Duration
	// Params are additional query parameters covered by the signature,
	// e.g. response-content-disposition.
	Params map[string]string
}

// Signer signs requests for one set of credentials and one region.
// It is immutable and safe for concurrent use.
type Signer struct {
	AccessKey string
	SecretKey string
	Region    string

	now func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// NewSigner creates a Signer.
func NewSigner(accessKey, secretKey, region string, opts ...Option) *Signer {
	s := &Signer{
		AccessKey: accessKey,
		SecretKey: secretKey,
		Region:    region,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignHeaders computes the Authorization header for r.
func (s *Signer) SignHeaders(r Request) SignedRequest {
	t := s.now().UTC()
	amzDate := t.Format(TimeFormat)
	shortDate := t.Format(ShortTimeFormat)

	payloadHash := r.PayloadHash
	if payloadHash == "" {
		payloadHash = EmptyPayloadHash
	}

	headers := make(map[string]string, len(r.Headers)+3)
	for k, v := range r.Headers {
		headers[k] = v
	}
	headers["host"] = r.Host
	headers["x-amz-date"] = amzDate
	headers["x-amz-content-sha256"] = payloadHash

	canonical, signed := CanonicalRequest(r.Method, r.URI, r.Query, headers, payloadHash)
	scope := Scope(shortDate, s.Region)
	sig := Sign(DeriveSigningKey(s.SecretKey, shortDate, s.Region, Service), StringToSign(amzDate, scope, canonical))

	return SignedRequest{
		Method:        r.Method,
		URI:           r.URI,
		Query:         r.Query,
		Headers:       lowerKeys(headers),
		SignedHeaders: signed,
		Signature:     sig,
		Authorization: Algorithm + " Credential=" + s.AccessKey + "/" + scope +
			", SignedHeaders=" + signed + ", Signature=" + sig,
	}
}

// Presign returns the full query string of a pre-signed URL, signature last.
// Only the host header is signed and the payload is UNSIGNED-PAYLOAD.
func (s *Signer) Presign(r PresignRequest) string {
	t := s.now().UTC()
	amzDate := t.Format(TimeFormat)
	shortDate := t.Format(ShortTimeFormat)
	scope := Scope(shortDate, s.Region)

	method := r.Method
	if method == "" {
		method = "GET"
	}

	params := make(map[string]string, len(r.Params)+5)
	for k, v := range r.Params {
		params[k] = v
	}
	params["X-Amz-Algorithm"] = Algorithm
	params["X-Amz-Credential"] = s.AccessKey + "/" + scope
	params["X-Amz-Date"] = amzDate
	params["X-Amz-Expires"] = strconv.FormatInt(int64(r.Expires/time.Second), 10)
	params["X-Amz-SignedHeaders"] = "host"

	query := EncodeQuery(params)
	canonical, _ := CanonicalRequest(method, r.URI, query, map[string]string{"host": r.Host}, UnsignedPayload)
	sig := Sign(DeriveSigningKey(s.SecretKey, shortDate, s.Region, Service), StringToSign(amzDate, scope, canonical))

	return query + "&X-Amz-Signature=" + sig
}

func lowerKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
