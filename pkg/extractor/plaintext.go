package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var supportedTypes = map[string]bool{
	"text/plain":       true,
	"text/markdown":    true,
	"text/csv":         true,
	"application/json": true,
}

// PlainTextExtractor handles text-based uploads. It validates UTF-8, strips
// control characters and collapses whitespace noise.
type PlainTextExtractor struct{}

var _ TextExtractor = &PlainTextExtractor{}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) Supports(contentType string) bool {
	return supportedTypes[baseContentType(contentType)]
}

func (e *PlainTextExtractor) Extract(data []byte, contentType string) Result {
	if !e.Supports(contentType) {
		return Result{Reason: ReasonUnsupportedType}
	}
	if len(data) == 0 {
		return Result{Reason: ReasonEmptyFile}
	}
	if !utf8.Valid(data) {
		return Result{Reason: ReasonInvalidEncoding}
	}

	text := stripControlChars(string(data))
	if strings.TrimSpace(text) == "" {
		return Result{Reason: ReasonEmptyFile}
	}

	return Result{Text: text}
}

// baseContentType drops parameters like "; charset=utf-8".
func baseContentType(contentType string) string {
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
