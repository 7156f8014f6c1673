package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var allowedExtensions = map[string]struct{}{
	// archives
	"zip": {}, "rar": {}, "7z": {}, "tar": {}, "gz": {},
	// documents
	"pdf": {}, "doc": {}, "docx": {}, "txt": {}, "rtf": {},
	// images
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {},
	// audio
	"mp3": {}, "wav": {}, "ogg": {}, "flac": {}, "m4a": {},
	// video
	"mp4": {}, "avi": {}, "mov": {}, "wmv": {}, "flv": {}, "webm": {},
	// ebooks
	"epub": {}, "mobi": {}, "azw": {}, "azw3": {},
	// spreadsheets and presentations
	"xls": {}, "xlsx": {}, "csv": {}, "ppt": {}, "pptx": {},
	// web assets
	"css": {}, "js": {}, "json": {}, "xml": {},
}

// dangerousPatterns are rejected anywhere in the name, so "shell.php.zip" fails too.
var dangerousPatterns = []string{
	".php", ".phtml", ".asp", ".aspx", ".jsp", ".cgi", ".pl", ".py",
	".exe", ".com", ".bat", ".cmd", ".scr", ".vbs", ".jar",
	".sh", ".bash", ".zsh", ".fish", ".htaccess", ".htpasswd",
}

var (
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._ -]+`)
	nameSpaces      = regexp.MustCompile(`[\s-]+`)
)

// ValidateUploadName checks name against the extension allow-list and the
// dangerous pattern deny-list.
func ValidateUploadName(name string) error {
	lower := strings.ToLower(name)
	ext := strings.TrimPrefix(path.Ext(lower), ".")
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: %q", ErrFileTypeNotAllowed, name)
	}
	for _, p := range dangerousPatterns {
		if strings.Contains(lower, p) {
			return fmt.Errorf("%w: %q", ErrFileTypeNotAllowed, name)
		}
	}
	return nil
}

// SanitizeFileName reduces name to a safe base name: directories dropped,
// characters outside [A-Za-z0-9._ -] removed, whitespace runs turned into "-".
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	name = unsafeNameChars.ReplaceAllString(name, "")
	name = nameSpaces.ReplaceAllString(strings.TrimSpace(name), "-")
	return strings.Trim(name, ".-_")
}

// CleanPrefix turns an untrusted folder path into a listing prefix: NUL bytes
// stripped, leading "/" removed, trailing "/" added when non-empty. Any ".."
// segment is rejected.
func CleanPrefix(p string) (string, error) {
	p = strings.ReplaceAll(p, "\x00", "")
	if hasDotDot(p) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, p)
	}
	p = strings.TrimLeft(p, "/")
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p, nil
}

// CleanKey validates an object key: leading "/" removed, must be non-empty,
// no NUL bytes and no ".." segments.
func CleanKey(key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.ContainsRune(key, 0) {
		return "", fmt.Errorf("%w: key contains NUL", ErrInvalidKey)
	}
	if hasDotDot(key) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, key)
	}
	return key, nil
}

func hasDotDot(p string) bool {
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}
