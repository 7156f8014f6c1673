package config

import "strings"

const (
	DefaultRegion                = "us-east-1"
	DefaultURLPrefix             = "wc-s3cs://"
	DefaultLinkExpirationMinutes = 5
	MaxLinkExpirationMinutes     = 60
	DefaultListenAddr            = ":8080"
	DefaultUploadConcurrency     = 3
)

// Settings is the root configuration structure. Values are supplied by the host
// (file, environment) and are read-only to the client.
type Settings struct {
	AccessKey string `json:"access_key" yaml:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key"`

	// Endpoint is raw; ResolveEndpoint validates it on every call.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Region defaults to us-east-1.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	Bucket string `json:"bucket" yaml:"bucket"`

	// LinkExpirationMinutes is clamped to [1,60].
	LinkExpirationMinutes int `json:"link_expiration_minutes,omitempty" yaml:"link_expiration_minutes,omitempty"`

	// URLPrefix defaults to wc-s3cs://.
	URLPrefix string `json:"url_prefix,omitempty" yaml:"url_prefix,omitempty"`

	// LogLevel is debug, info, warn or error (default info).
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	// LogFormat is json or console (default json).
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty"`

	// ListenAddr defaults to :8080.
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`

	// UploadConcurrency defaults to 3.
	UploadConcurrency int `json:"upload_concurrency,omitempty" yaml:"upload_concurrency,omitempty"`
}

// GetRegion returns the signing region (defaults to us-east-1)
func (s Settings) GetRegion() string {
	if r := strings.TrimSpace(s.Region); r != "" {
		return r
	}
	return DefaultRegion
}

// GetLinkExpiration returns the pre-signed link lifetime in minutes.
// Values below 1 fall back to the default, values above 60 are capped.
func (s Settings) GetLinkExpiration() int {
	m := s.LinkExpirationMinutes
	if m < 1 {
		return DefaultLinkExpirationMinutes
	}
	if m > MaxLinkExpirationMinutes {
		return MaxLinkExpirationMinutes
	}
	return m
}

// GetURLPrefix returns the scheme-like prefix marking managed file URLs
func (s Settings) GetURLPrefix() string {
	if s.URLPrefix != "" {
		return s.URLPrefix
	}
	return DefaultURLPrefix
}

// GetLogLevel returns the log level (defaults to info)
func (s Settings) GetLogLevel() string {
	if s.LogLevel != "" {
		return s.LogLevel
	}
	return "info"
}

// GetLogFormat returns the log format (defaults to json)
func (s Settings) GetLogFormat() string {
	if s.LogFormat != "" {
		return s.LogFormat
	}
	return "json"
}

// GetListenAddr returns the HTTP listen address (defaults to :8080)
func (s Settings) GetListenAddr() string {
	if s.ListenAddr != "" {
		return s.ListenAddr
	}
	return DefaultListenAddr
}

// GetUploadConcurrency returns the max parallel uploads for batch uploads (defaults to 3)
func (s Settings) GetUploadConcurrency() int {
	if s.UploadConcurrency > 0 {
		return s.UploadConcurrency
	}
	return DefaultUploadConcurrency
}

// HasCredentials reports whether both halves of the key pair are present
func (s Settings) HasCredentials() bool {
	return s.AccessKey != "" && s.SecretKey != ""
}

// IsConfigured reports whether credentials and a bucket are set.
// The endpoint is not checked here; a rejected endpoint makes every call degrade later.
func (s Settings) IsConfigured() bool {
	return s.HasCredentials() && s.Bucket != ""
}

// IsConfiguredForListing reports whether credentials are set and the endpoint resolves
func (s Settings) IsConfiguredForListing() bool {
	return s.HasCredentials() && s.ResolvedEndpoint() != ""
}

// ResolvedEndpoint returns the normalized endpoint, or "" when it is missing or unsafe
func (s Settings) ResolvedEndpoint() string {
	ep, err := ResolveEndpoint(s.Endpoint)
	if err != nil {
		return ""
	}
	return ep.String()
}
