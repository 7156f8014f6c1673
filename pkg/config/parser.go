package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// ParseConfig reads and parses a JSON or YAML configuration file
func ParseConfig(configFile string) (*Settings, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var s Settings
	if isYAML(configFile) {
		err = yaml.Unmarshal(data, &s)
	} else {
		err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &s, nil
}

// Load parses and validates configFile, then applies environment overrides.
// An empty path yields settings built from the environment alone.
func Load(configFile string) (*Settings, error) {
	s := &Settings{}
	if configFile != "" {
		if err := Validate(configFile); err != nil {
			return nil, err
		}
		parsed, err := ParseConfig(configFile)
		if err != nil {
			return nil, err
		}
		s = parsed
	}
	ApplyEnvOverrides(s)
	return s, nil
}

// ApplyEnvOverrides overwrites fields with S3COMPAT_* environment variables when set.
func ApplyEnvOverrides(s *Settings) {
	str := map[string]*string{
		"S3COMPAT_ACCESS_KEY":  &s.AccessKey,
		"S3COMPAT_SECRET_KEY":  &s.SecretKey,
		"S3COMPAT_ENDPOINT":    &s.Endpoint,
		"S3COMPAT_REGION":      &s.Region,
		"S3COMPAT_BUCKET":      &s.Bucket,
		"S3COMPAT_URL_PREFIX":  &s.URLPrefix,
		"S3COMPAT_LOG_LEVEL":   &s.LogLevel,
		"S3COMPAT_LOG_FORMAT":  &s.LogFormat,
		"S3COMPAT_LISTEN_ADDR": &s.ListenAddr,
	}
	for key, field := range str {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*field = v
		}
	}

	// invalid integers are ignored; keep existing
	if v := os.Getenv("S3COMPAT_LINK_EXPIRATION"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			s.LinkExpirationMinutes = n
		}
	}
	if v := os.Getenv("S3COMPAT_UPLOAD_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			s.UploadConcurrency = n
		}
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
