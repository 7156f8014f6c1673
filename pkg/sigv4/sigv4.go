// Package sigv4 computes AWS Signature Version 4 authorization for S3
// requests, in both the header form and the pre-signed query form.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sort"
	"strings"
)

const (
	Algorithm        = "AWS4-HMAC-SHA256"
	Service          = "s3"
	EmptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	UnsignedPayload  = "UNSIGNED-PAYLOAD"

	TimeFormat      = "20060102T150405Z"
	ShortTimeFormat = "20060102"
)

// DeriveSigningKey runs the four-step HMAC chain:
// date, region, service and the terminal "aws4_request".
func DeriveSigningKey(secret, shortDate, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), shortDate)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}

// Scope returns the S3 credential scope for a date and region.
func Scope(shortDate, region string) string {
	return shortDate + "/" + region + "/" + Service + "/aws4_request"
}

// CanonicalRequest builds the canonical request text. Header names are
// lower-cased, values trimmed, and both lists sorted by name. It returns the
// canonical request and the semicolon-joined signed header list.
func CanonicalRequest(method, uri, query string, headers map[string]string, payloadHash string) (string, string) {
	norm := make(map[string]string, len(headers))
	names := make([]string, 0, len(headers))
	for k, v := range headers {
		name := strings.ToLower(strings.TrimSpace(k))
		if _, dup := norm[name]; !dup {
			names = append(names, name)
		}
		norm[name] = strings.TrimSpace(v)
	}
	sort.Strings(names)

	var ch strings.Builder
	for _, name := range names {
		ch.WriteString(name)
		ch.WriteByte(':')
		ch.WriteString(norm[name])
		ch.WriteByte('\n')
	}
	signed := strings.Join(names, ";")

	if uri == "" {
		uri = "/"
	}

	return strings.Join([]string{
		method,
		uri,
		query,
		ch.String(),
		signed,
		payloadHash,
	}, "\n"), signed
}

// StringToSign hashes the canonical request into the final signing input.
func StringToSign(amzDate, scope, canonicalRequest string) string {
	return strings.Join([]string{
		Algorithm,
		amzDate,
		scope,
		sha256Hex(canonicalRequest),
	}, "\n")
}

// Sign returns the lowercase hex HMAC-SHA256 of stringToSign under key.
func Sign(key []byte, stringToSign string) string {
	return hex.EncodeToString(hmacSHA256(key, stringToSign))
}

// SimpleAuthorization builds the legacy "AWS ak:sig" header value where sig is
// base64(HMAC-SHA1(secret, fullURL)). Some older S3-compatible services accept
// it for bucket listing when SigV4 is refused.
func SimpleAuthorization(accessKey, secretKey, fullURL string) string {
	mac := hmac.New(sha1.New, []byte(secretKey))
	mac.Write([]byte(fullURL))
	return "AWS " + accessKey + ":" + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func sha256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
