package service

import (
	"strings"

	"github.com/cloo-solutions/docchat/internal/domain"
)

// SegmentConfig controls how page text is split into chunks for embedding.
type SegmentConfig struct {
	// ChunkSize is the target maximum chunk length in runes.
	ChunkSize int
	// Overlap is the number of runes carried over between adjacent chunks.
	Overlap int
}

// DefaultSegmentConfig provides sane defaults for segmentation.
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		ChunkSize: 1000,
		Overlap:   200,
	}
}

// separators are tried in priority order; the empty string is a
// character-level fallback for text with no natural break points.
var separators = []string{"\n\n", "\n", " ", ""}

// Segmenter splits raw page text into overlapping chunks. Splitting backs
// off to finer separators only where a candidate segment still exceeds the
// target size.
type Segmenter struct {
	cfg SegmentConfig
}

// NewSegmenter creates a Segmenter with the given configuration.
func NewSegmenter(cfg SegmentConfig) *Segmenter {
	if cfg.ChunkSize <= 0 {
		cfg = DefaultSegmentConfig()
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = cfg.ChunkSize / 2
	}
	return &Segmenter{cfg: cfg}
}

// Segment splits one page's text into chunks. Chunk indices start at
// startIndex and continue in emission order, so indices stay unique across
// the whole document rather than resetting per page. A page with no
// non-whitespace text yields no chunks.
func (s *Segmenter) Segment(pageText string, pageNumber int, documentID string, startIndex int) []domain.Chunk {
	clean := strings.TrimSpace(pageText)
	if clean == "" {
		return nil
	}

	pieces := s.split(clean, separators)

	chunks := make([]domain.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		text := strings.TrimSpace(piece)
		if text == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Text:       text,
			PageNumber: pageNumber,
			DocumentID: documentID,
			ChunkIndex: startIndex + len(chunks),
		})
	}

	return chunks
}

func (s *Segmenter) split(text string, seps []string) []string {
	if runeLen(text) <= s.cfg.ChunkSize {
		return []string{text}
	}

	sep, rest := pickSeparator(text, seps)
	if sep == "" {
		return s.hardSplit(text)
	}

	parts := strings.Split(text, sep)

	var out []string
	var pending []string
	flush := func() {
		if len(pending) > 0 {
			out = append(out, s.merge(pending, sep)...)
			pending = nil
		}
	}

	for _, part := range parts {
		if runeLen(part) <= s.cfg.ChunkSize {
			pending = append(pending, part)
			continue
		}
		// Oversized segment: emit what we have, then back off to the
		// next finer separator for this segment only.
		flush()
		out = append(out, s.split(part, rest)...)
	}
	flush()

	return out
}

// merge joins small segments back together up to the chunk size, seeding
// each new chunk with the trailing segments of the previous one so adjacent
// chunks overlap by at most cfg.Overlap runes.
func (s *Segmenter) merge(parts []string, sep string) []string {
	sepLen := runeLen(sep)

	var chunks []string
	var cur []string
	total := 0

	for _, part := range parts {
		pl := runeLen(part)

		if total > 0 && total+sepLen+pl > s.cfg.ChunkSize {
			chunks = append(chunks, strings.Join(cur, sep))
			for len(cur) > 0 && (total > s.cfg.Overlap || total+sepLen+pl > s.cfg.ChunkSize) {
				total -= runeLen(cur[0])
				if len(cur) > 1 {
					total -= sepLen
				}
				cur = cur[1:]
			}
		}

		if total > 0 {
			total += sepLen
		}
		cur = append(cur, part)
		total += pl
	}

	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, sep))
	}

	return chunks
}

// hardSplit cuts text into fixed-size rune windows stepped by
// ChunkSize-Overlap. Last resort for text with no usable separators.
func (s *Segmenter) hardSplit(text string) []string {
	runes := []rune(text)
	step := s.cfg.ChunkSize - s.cfg.Overlap
	if step <= 0 {
		step = s.cfg.ChunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.cfg.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func pickSeparator(text string, seps []string) (string, []string) {
	for i, sep := range seps {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, seps[i+1:]
		}
	}
	return "", nil
}

func runeLen(s string) int {
	return len([]rune(s))
}
