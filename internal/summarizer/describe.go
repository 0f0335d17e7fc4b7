// Package summarizer derives short descriptions of document sources for query routing.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"ragchat/internal/chunker"
)

const (
	defaultMaxSentences = 2
	defaultMaxChars     = 200
	ellipsis            = "..."
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Describer picks the sentences of a source that best set it apart from the
// other sources, so a classifying router can tell them apart.
type Describer struct {
	maxSentences int
	maxChars     int
	stopwords    map[string]struct{}
}

// NewDescriber returns a Describer keeping at most maxSentences sentences and
// maxChars characters. Non-positive values select the defaults.
func NewDescriber(maxSentences, maxChars int) *Describer {
	if maxSentences <= 0 {
		maxSentences = defaultMaxSentences
	}
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &Describer{maxSentences: maxSentences, maxChars: maxChars, stopwords: defaultStopwords()}
}

// Describe scores each sentence of text by the weight of its terms, where a term
// weighs its frequency in text times its inverse frequency across text and others.
// Terms shared by every source add little. Selected sentences keep document order.
func (d *Describer) Describe(text string, others []string) string {
	sentences := chunker.Sentences(text)
	if len(sentences) == 0 {
		return ""
	}
	weights := d.termWeights(text, others)

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := d.tokens(sent)
		seen := make(map[string]struct{}, len(toks))
		sum := 0.0
		for _, tok := range toks {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			sum += weights[tok]
		}
		if len(toks) > 0 {
			sum /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = scored{idx: i, score: sum}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	k := min(d.maxSentences, len(scores))
	selected := make([]int, k)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, k)
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return truncate(strings.Join(out, " "), d.maxChars)
}

func (d *Describer) termWeights(text string, others []string) map[string]float64 {
	tf := make(map[string]float64)
	for _, tok := range d.tokens(text) {
		tf[tok]++
	}
	maxTF := 0.0
	for _, v := range tf {
		maxTF = max(maxTF, v)
	}

	df := make(map[string]int, len(tf))
	for tok := range tf {
		df[tok] = 1
	}
	for _, other := range others {
		seen := make(map[string]struct{})
		for _, tok := range d.tokens(other) {
			if _, ok := tf[tok]; !ok {
				continue
			}
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	n := float64(len(others) + 1)
	weights := make(map[string]float64, len(tf))
	for tok, count := range tf {
		idf := math.Log((1+n)/(1+float64(df[tok]))) + 1
		weights[tok] = count / maxTF * idf
	}
	return weights
}

func (d *Describer) tokens(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := d.stopwords[t]; !stop {
			out = append(out, t)
		}
	}
	return out
}

// truncate cuts s to at most maxChars runes, at a word boundary when there is one.
func truncate(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	keep := maxChars - len(ellipsis)
	if keep <= 0 {
		return string([]rune(s)[:maxChars])
	}
	cut := string([]rune(s)[:keep])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + ellipsis
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with",
		"as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these", "those", "from",
		"up", "down", "over", "under", "so", "such", "into", "about", "between", "through", "before", "after", "out",
		"can", "will", "just", "should", "you", "your", "we", "our", "they", "their", "he", "she", "not", "no", "do",
		"does", "has", "have", "had", "all", "any", "each", "more", "most", "other", "some", "when", "what", "which",
		"who", "how",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
