package llm

import (
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/interlock-tracker/internal/textextract"
)

// DefaultChunkChars keeps a chunk well inside common model context limits.
const DefaultChunkChars = 12000

// Chunk is a bounded slice of document text sent in one completion.
type Chunk struct {
	Index     int
	FirstPage int
	LastPage  int
	Text      string
}

// ChunkText packs page lines into chunks of at most maxChars runes, splitting
// on line boundaries. A single line longer than maxChars is cut.
func ChunkText(pages []textextract.Page, maxChars int) []Chunk {
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}
	var (
		chunks []Chunk
		b      strings.Builder
		size   int
		first  int
		last   int
	)
	flush := func() {
		if strings.TrimSpace(b.String()) != "" {
			chunks = append(chunks, Chunk{
				Index:     len(chunks),
				FirstPage: first,
				LastPage:  last,
				Text:      strings.TrimRight(b.String(), "\n"),
			})
		}
		b.Reset()
		size = 0
		first = 0
	}
	add := func(page int, line string) {
		n := utf8.RuneCountInString(line) + 1
		if size > 0 && size+n > maxChars {
			flush()
		}
		if first == 0 {
			first = page
		}
		last = page
		b.WriteString(line)
		b.WriteByte('\n')
		size += n
	}

	for _, p := range pages {
		for _, line := range strings.Split(p.Text, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			for _, piece := range splitLongLine(line, maxChars-1) {
				add(p.Number, piece)
			}
		}
	}
	flush()
	return chunks
}

func splitLongLine(line string, max int) []string {
	if max < 1 {
		max = 1
	}
	if utf8.RuneCountInString(line) <= max {
		return []string{line}
	}
	var out []string
	r := []rune(line)
	for len(r) > max {
		out = append(out, string(r[:max]))
		r = r[max:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}
