package chunker

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	multipleSpaces   = regexp.MustCompile(`[ \t]+`)
	multipleNewlines = regexp.MustCompile(`\n{3,}`)
)

// Config holds the size bounds for splitting. Sizes are in runes, not bytes,
// so multi-byte text is never cut inside a character.
type Config struct {
	MinSize         int
	TargetSize      int
	MaxSize         int
	TokenMultiplier float64
}

func DefaultConfig() Config {
	return Config{
		MinSize:         200,
		TargetSize:      800,
		MaxSize:         1000,
		TokenMultiplier: 1.3,
	}
}

// Fragment is one retrieval-sized slice of a document.
type Fragment struct {
	Index      int
	Content    string
	TokenCount int
}

type Splitter struct {
	cfg Config
}

func New(cfg Config) *Splitter {
	return &Splitter{cfg: cfg}
}

// Split normalizes text and divides it into fragments close to the target
// size without exceeding the maximum. Blank input yields an empty list.
func (s *Splitter) Split(text string) []Fragment {
	if strings.TrimSpace(text) == "" {
		return []Fragment{}
	}

	normalized := Normalize(text)
	raw := s.splitIntoChunks(normalized)

	fragments := make([]Fragment, len(raw))
	for i, content := range raw {
		fragments[i] = Fragment{
			Index:      i,
			Content:    content,
			TokenCount: s.EstimateTokenCount(content),
		}
	}
	return fragments
}

// Normalize collapses runs of spaces/tabs to one space and three or more
// newlines to exactly two, preserving paragraph boundaries.
func Normalize(text string) string {
	normalized := strings.TrimSpace(text)
	normalized = multipleSpaces.ReplaceAllString(normalized, " ")
	normalized = multipleNewlines.ReplaceAllString(normalized, "\n\n")
	return normalized
}

// EstimateTokenCount approximates tokens as word count times a fixed
// multiplier, rounded up. It is a heuristic, not a tokenizer.
func (s *Splitter) EstimateTokenCount(text string) int {
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) * s.cfg.TokenMultiplier))
}

func (s *Splitter) splitIntoChunks(content string) []string {
	var chunks []string
	paragraphs := strings.Split(content, "\n\n")
	var current strings.Builder
	currentLen := 0

	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		paragraphLen := utf8.RuneCountInString(paragraph)

		// Flush before appending would push the buffer past the max.
		if currentLen+paragraphLen > s.cfg.MaxSize && currentLen > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentLen = 0
		}

		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(paragraph)
		currentLen += paragraphLen

		if currentLen >= s.cfg.TargetSize {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentLen = 0
		}
	}

	if currentLen > 0 {
		last := strings.TrimSpace(current.String())

		// A short trailing fragment is merged onto the previous one instead
		// of being emitted on its own.
		if utf8.RuneCountInString(last) < s.cfg.MinSize && len(chunks) > 0 {
			previous := chunks[len(chunks)-1]
			chunks = chunks[:len(chunks)-1]
			last = previous + "\n\n" + last
		}

		if utf8.RuneCountInString(last) > s.cfg.MaxSize {
			chunks = append(chunks, s.sliceLargeChunk(last)...)
		} else {
			chunks = append(chunks, last)
		}
	}

	// A single paragraph larger than the max can still be sitting in the
	// list; slice anything oversized.
	final := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if utf8.RuneCountInString(chunk) > s.cfg.MaxSize {
			final = append(final, s.sliceLargeChunk(chunk)...)
		} else {
			final = append(final, chunk)
		}
	}

	return final
}

func (s *Splitter) sliceLargeChunk(chunk string) []string {
	var slices []string
	runes := []rune(chunk)

	for len(runes) > s.cfg.MaxSize {
		cut := findCutPoint(runes, s.cfg.TargetSize)
		slices = append(slices, strings.TrimSpace(string(runes[:cut])))
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}

	if len(runes) > 0 {
		slices = append(slices, string(runes))
	}

	return slices
}

// findCutPoint searches backward from the target position to half of it for
// a sentence-ending character, then for any whitespace, before giving up and
// cutting at the target itself.
func findCutPoint(runes []rune, target int) int {
	if target >= len(runes) {
		return len(runes)
	}

	for i := target; i > target/2; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}

	for i := target; i > target/2; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}

	return target
}
