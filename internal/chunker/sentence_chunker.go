package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"ragchat/internal/domain"
)

// Metadata keys attached to every segment.
const (
	MetaChunkIndex = "chunk"
	MetaPath       = "path"
)

var sentencePattern = regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`)

// SentenceChunker splits text into sentence-based segments with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	// Overlap must leave room to advance.
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

// Sentences returns the trimmed, non-empty sentences of text.
func Sentences(text string) []string {
	var out []string
	for _, s := range sentencePattern.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Chunk splits content into segments attributed to sourceID.
// Path is recorded in metadata so passages can be traced back to their file.
func (c *SentenceChunker) Chunk(sourceID, path, content string) []domain.Segment {
	sentences := Sentences(content)
	if len(sentences) == 0 {
		return nil
	}
	var segments []domain.Segment
	i := 0
	idx := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		segments = append(segments, domain.Segment{
			Text:     strings.Join(sentences[i:end], " "),
			SourceID: sourceID,
			Metadata: map[string]string{
				MetaPath:       path,
				MetaChunkIndex: strconv.Itoa(idx),
			},
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		idx++
	}
	return segments
}
