package language

import (
	"math"
	"sort"

	"github.com/ieee0824/arpalm/corpus"
	"github.com/ieee0824/arpalm/internal/mathutil"
)

// NGramModel is a read-only back-off model used for scoring.
type NGramModel struct {
	Order      int
	Entries    []map[string]ngramEntry // Entries[k-1]: order-k n-grams by joined tokens
	OOVLogProb float64                 // natural log probability for unknown words; 0 = LogZero
}

type ngramEntry struct {
	LogProb    float64
	LogBackoff float64
}

// NewNGramModel creates an empty n-gram model.
func NewNGramModel(order int) *NGramModel {
	m := &NGramModel{
		Order:   order,
		Entries: make([]map[string]ngramEntry, order),
	}
	for k := range m.Entries {
		m.Entries[k] = make(map[string]ngramEntry)
	}
	return m
}

func (m *NGramModel) add(ngram []string, logProb, logBackoff float64) {
	m.Entries[len(ngram)-1][joinKey(ngram)] = ngramEntry{LogProb: logProb, LogBackoff: logBackoff}
}

// LogProb returns the natural log probability of a word given its history.
// Uses backoff when the exact n-gram is not found: each missing order adds
// the back-off weight of the shortened history, when listed.
func (m *NGramModel) LogProb(history []string, word string) float64 {
	n := min(m.Order, len(history)+1)
	ngram := make([]string, 0, n)
	backoff := 0.0

	for ; n >= 1; n-- {
		ctx := history[len(history)-(n-1):]
		ngram = append(append(ngram[:0], ctx...), word)
		if e, ok := m.Entries[n-1][joinKey(ngram)]; ok {
			return backoff + e.LogProb
		}
		if n > 1 {
			if e, ok := m.Entries[n-2][joinKey(ctx)]; ok {
				backoff += e.LogBackoff
			}
		}
	}
	if m.OOVLogProb != 0 {
		return m.OOVLogProb
	}
	return mathutil.LogZero
}

// Contains reports whether word is in the unigram vocabulary.
func (m *NGramModel) Contains(word string) bool {
	_, ok := m.Entries[0][word]
	return ok
}

// SentenceLogProb returns the total log probability of a sentence (word sequence).
// Automatically adds <s> at the beginning and </s> at the end.
func (m *NGramModel) SentenceLogProb(words []string) float64 {
	total := 0.0
	history := []string{corpus.SentenceStart}
	for _, w := range words {
		total += m.LogProb(history, w)
		history = append(history, w)
	}
	total += m.LogProb(history, corpus.SentenceEnd)
	return total
}

// Perplexity returns the per-word perplexity of the sentences, counting the
// sentence end of each. Words missing from the vocabulary are skipped and
// counted as OOV unless OOVLogProb is set.
func (m *NGramModel) Perplexity(sentences [][]string) (ppl float64, oov int) {
	total, n := 0.0, 0
	for _, words := range sentences {
		history := []string{corpus.SentenceStart}
		for i := 0; i <= len(words); i++ {
			w := corpus.SentenceEnd
			if i < len(words) {
				w = words[i]
			}
			if !m.Contains(w) && m.OOVLogProb == 0 {
				oov++
				history = append(history, w)
				continue
			}
			total += m.LogProb(history, w)
			history = append(history, w)
			n++
		}
	}
	if n == 0 {
		return math.Inf(1), oov
	}
	return math.Exp(-total / float64(n)), oov
}

// Vocab returns all words in the unigram vocabulary, sorted.
func (m *NGramModel) Vocab() []string {
	words := make([]string, 0, len(m.Entries[0]))
	for w := range m.Entries[0] {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
