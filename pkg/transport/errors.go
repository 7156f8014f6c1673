package transport

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrTransport marks network, TLS and timeout failures where no HTTP response was received.
var ErrTransport = errors.New("transport: request failed")

// StatusError is returned for any non-2xx response. Code and Message are
// filled from the S3 <Error> envelope when the body carries one.
type StatusError struct {
	StatusCode int
	Reason     string
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("transport: unexpected status %d %s", e.StatusCode, e.Reason)
	if e.Code != "" {
		msg += ": " + e.Code
		if e.Message != "" {
			msg += " - " + e.Message
		}
	}
	return msg
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

type errorEnvelope struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

func newStatusError(resp *http.Response, body []byte) *StatusError {
	se := &StatusError{
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
	}
	var env errorEnvelope
	if len(body) > 0 && xml.Unmarshal(body, &env) == nil {
		se.Code = env.Code
		se.Message = env.Message
	}
	return se
}

// reasonPhrase prefers the server's phrase and falls back to the standard text.
func reasonPhrase(resp *http.Response) string {
	if _, phrase, ok := strings.Cut(resp.Status, " "); ok && phrase != "" {
		return phrase
	}
	return http.StatusText(resp.StatusCode)
}
