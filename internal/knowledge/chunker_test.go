package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerSplit(t *testing.T) {
	c := NewChunker(10, 3)

	chunks := c.Split(strings.Repeat("a", 25))
	// Windows start every 7 runes: [0,10) [7,17) [14,24) [21,25).
	require.Len(t, chunks, 4)
	assert.Equal(t, 10, len([]rune(chunks[0])))
	assert.Equal(t, 4, len([]rune(chunks[3])))
}

func TestChunkerSplitShortText(t *testing.T) {
	c := NewChunker(1000, 200)

	chunks := c.Split("short document")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short document", chunks[0])
}

func TestChunkerSplitEmpty(t *testing.T) {
	c := NewChunker(1000, 200)

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\t  "))
}

func TestChunkerOverlap(t *testing.T) {
	c := NewChunker(10, 4)

	text := "0123456789abcdefghij"
	chunks := c.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	// The tail of each chunk reappears at the head of the next.
	assert.Equal(t, "6789", chunks[0][6:])
	assert.True(t, strings.HasPrefix(chunks[1], "6789"))
}

func TestChunkerRuneBoundaries(t *testing.T) {
	c := NewChunker(5, 1)

	text := "日本語のテキストを分割します"
	chunks := c.Split(text)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.True(t, len([]rune(chunk)) <= 5)
		// No mojibake from byte-level cuts.
		assert.NotContains(t, chunk, "�")
	}
}

func TestChunkerDefaults(t *testing.T) {
	c := NewChunker(0, -1)
	assert.Equal(t, 1000, c.size)
	assert.Equal(t, 200, c.overlap)

	// Overlap >= size collapses to the default ratio.
	c = NewChunker(100, 100)
	assert.Equal(t, 20, c.overlap)
}

func TestSplitSourceStripsHTML(t *testing.T) {
	c := NewChunker(1000, 200)

	page := `<html><head><style>body{color:red}</style>
<script>alert("x")</script></head>
<body><h1>Title</h1><p>First paragraph.</p><p>Second one.</p></body></html>`

	chunks := c.SplitSource("page.html", page)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Title First paragraph. Second one.", chunks[0])
	assert.NotContains(t, chunks[0], "alert")
	assert.NotContains(t, chunks[0], "color:red")
}

func TestSplitSourcePlainTextUntouched(t *testing.T) {
	c := NewChunker(1000, 200)

	text := "a < b and b > c"
	chunks := c.SplitSource("math.txt", text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}
