package extractor

import "testing"

func TestExtractPlainText(t *testing.T) {
	e := NewPlainTextExtractor()

	res := e.Extract([]byte("hello world"), "text/plain")
	if !res.HasText() {
		t.Fatalf("expected text, got reason %q", res.Reason)
	}
	if res.Text != "hello world" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestExtractContentTypeWithCharset(t *testing.T) {
	e := NewPlainTextExtractor()

	res := e.Extract([]byte("# title"), "text/markdown; charset=utf-8")
	if !res.HasText() {
		t.Fatalf("expected text, got reason %q", res.Reason)
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	e := NewPlainTextExtractor()

	res := e.Extract([]byte("%PDF-1.4"), "application/pdf")
	if res.Reason != ReasonUnsupportedType {
		t.Errorf("reason = %q, want %q", res.Reason, ReasonUnsupportedType)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	e := NewPlainTextExtractor()

	tests := []struct {
		name string
		data []byte
	}{
		{"no bytes", nil},
		{"only whitespace", []byte("  \n\t ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Extract(tt.data, "text/plain")
			if res.Reason != ReasonEmptyFile {
				t.Errorf("reason = %q, want %q", res.Reason, ReasonEmptyFile)
			}
		})
	}
}

func TestExtractInvalidUTF8(t *testing.T) {
	e := NewPlainTextExtractor()

	res := e.Extract([]byte{0xff, 0xfe, 0x00, 0x41}, "text/plain")
	if res.Reason != ReasonInvalidEncoding {
		t.Errorf("reason = %q, want %q", res.Reason, ReasonInvalidEncoding)
	}
}

func TestExtractStripsControlChars(t *testing.T) {
	e := NewPlainTextExtractor()

	res := e.Extract([]byte("a\x00b\nc\td"), "text/plain")
	if !res.HasText() {
		t.Fatalf("expected text, got reason %q", res.Reason)
	}
	if res.Text != "ab\nc\td" {
		t.Errorf("text = %q", res.Text)
	}
}
