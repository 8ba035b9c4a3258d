package extractor

// NoTextReason explains why extraction produced no usable text.
type NoTextReason string

const (
	ReasonNone            NoTextReason = ""
	ReasonEmptyFile       NoTextReason = "EMPTY_FILE"
	ReasonUnsupportedType NoTextReason = "UNSUPPORTED_CONTENT_TYPE"
	ReasonInvalidEncoding NoTextReason = "INVALID_ENCODING"
)

// Result is the outcome of an extraction attempt. Either Text is non-empty
// or Reason says why it is not; extraction itself never fails with an error.
type Result struct {
	Text   string
	Reason NoTextReason
}

func (r Result) HasText() bool {
	return r.Reason == ReasonNone && r.Text != ""
}

// TextExtractor turns an uploaded file body into plain text.
type TextExtractor interface {
	Extract(data []byte, contentType string) Result
	Supports(contentType string) bool
}
