package knowledge

import (
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Chunker splits text into fixed-size rune windows with overlap.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. size must be positive and overlap must be
// smaller than size; the zero-ish defaults are 1000/200.
func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return Chunker{size: size, overlap: overlap}
}

// Split cuts text into chunks of up to size runes, each starting
// size-overlap runes after the previous one. Whitespace-only chunks are
// dropped, so the result never contains empty entries.
func (c Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []string

	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// SplitSource splits text after source-specific normalization: .html
// documents are reduced to their visible text first.
func (c Chunker) SplitSource(name, text string) []string {
	if strings.EqualFold(filepath.Ext(name), ".html") {
		text = stripHTML(text)
	}
	return c.Split(text)
}

// stripHTML extracts the visible text of an HTML document, skipping
// script and style contents. Malformed input degrades to whatever the
// tokenizer can recover, never to an error.
func stripHTML(s string) string {
	var (
		b    strings.Builder
		skip int
	)

	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}
