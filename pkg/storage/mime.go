package storage

import (
	"net/http"
	"path"
	"strings"
	"unicode/utf8"
)

// SniffLen is the number of leading bytes ContentType looks at.
const SniffLen = 512

var extensionTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"pdf":  "application/pdf",
	"zip":  "application/zip",
	"txt":  "text/plain",
	"css":  "text/css",
	"js":   "application/javascript",
	"json": "application/json",
	"xml":  "application/xml",
	"mp3":  "audio/mpeg",
	"mp4":  "video/mp4",
}

// ContentType sniffs head and falls back to the extension of name when the
// sniffed type is generic (octet-stream or plain text). Text sniffed as UTF-8
// that does not decode as UTF-8 counts as octet-stream.
func ContentType(head []byte, name string) string {
	if len(head) >= SniffLen {
		head = trimPartialRune(head[:SniffLen])
	}
	ct := http.DetectContentType(head)
	if ct == "text/plain; charset=utf-8" && !utf8.Valid(head) {
		ct = "application/octet-stream"
	}
	if ct != "application/octet-stream" && !strings.HasPrefix(ct, "text/plain") {
		return ct
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return ct
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			return b
		}
	}
	return b
}
