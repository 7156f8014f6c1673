package sigv4

import (
	"sort"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// EncodePath percent-encodes each "/"-separated segment of key per RFC 3986
// and joins them with "/". The result always starts with "/".
// It must be applied exactly once per request.
func EncodePath(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = Escape(seg)
	}
	p := strings.Join(segments, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// EncodeQuery renders params as a canonical query string: names and values
// RFC 3986 encoded, pairs sorted by encoded name.
func EncodeQuery(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	encoded := make(map[string]string, len(params))
	keys := make([]string, 0, len(params))
	for k, v := range params {
		ek := Escape(k)
		encoded[ek] = Escape(v)
		keys = append(keys, ek)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + encoded[k]
	}
	return strings.Join(pairs, "&")
}

// Escape encodes every byte outside the RFC 3986 unreserved set
// (A-Z a-z 0-9 - . _ ~). Spaces become %20.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
