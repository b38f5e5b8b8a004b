// Package corpus turns raw transcript lines into normalized token sequences.
package corpus

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Sentence boundary markers. They are never stripped by token normalization.
const (
	SentenceStart = "<s>"
	SentenceEnd   = "</s>"
)

// Case selects case folding applied to every line.
type Case int

const (
	CaseKeep Case = iota
	CaseLower
	CaseUpper
)

// ParseCase maps "", "lower" and "upper" to a Case.
func ParseCase(s string) (Case, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "keep":
		return CaseKeep, nil
	case "lower":
		return CaseLower, nil
	case "upper":
		return CaseUpper, nil
	}
	return CaseKeep, fmt.Errorf("unknown case folding %q (want lower or upper)", s)
}

func (c Case) String() string {
	switch c {
	case CaseLower:
		return "lower"
	case CaseUpper:
		return "upper"
	}
	return ""
}

// Options controls line normalization.
type Options struct {
	Case        Case
	AddStart    bool // wrap lines lacking markers with <s> ... </s>
	UnicodeNorm bool // NFC-normalize each line
	TokenNorm   bool // strip punctuation-like characters from token edges
}

// utteranceID matches "<s> ... </s> (id)" transcript lines.
var utteranceID = regexp.MustCompile(`^(.*` + regexp.QuoteMeta(SentenceEnd) + `)\s*\([^()]*\)$`)

// Normalizer applies Options to lines and tokens. A Normalizer is not safe for
// concurrent use because the case folders keep internal state.
type Normalizer struct {
	opts   Options
	folder cases.Caser
}

// NewNormalizer creates a Normalizer for the given options.
func NewNormalizer(opts Options) *Normalizer {
	n := &Normalizer{opts: opts}
	switch opts.Case {
	case CaseLower:
		n.folder = cases.Lower(language.Und)
	case CaseUpper:
		n.folder = cases.Upper(language.Und)
	}
	return n
}

// Options returns the options the normalizer was created with.
func (n *Normalizer) Options() Options {
	return n.opts
}

func (n *Normalizer) fold(s string) string {
	if n.opts.UnicodeNorm {
		s = norm.NFC.String(s)
	}
	if n.opts.Case != CaseKeep {
		s = n.folder.String(s)
	}
	return s
}

// Line normalizes one corpus line. It returns false when the line yields no
// tokens and must not be counted as a sentence.
func (n *Normalizer) Line(line string) ([]string, bool) {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	if m := utteranceID.FindStringSubmatch(line); m != nil {
		line = m[1]
	}

	words := strings.Fields(n.fold(line))
	if len(words) == 0 {
		return nil, false
	}
	if n.opts.Case == CaseUpper {
		for i, w := range words {
			words[i] = restoreMarker(w)
		}
	}

	if n.opts.AddStart && !hasMarkers(words) {
		seq := make([]string, 0, len(words)+2)
		seq = append(seq, SentenceStart)
		for _, w := range words {
			if w != SentenceStart && w != SentenceEnd {
				seq = append(seq, w)
			}
		}
		words = append(seq, SentenceEnd)
	}

	if n.opts.TokenNorm {
		kept := words[:0]
		for _, w := range words {
			if w == SentenceStart || w == SentenceEnd {
				kept = append(kept, w)
				continue
			}
			if w = StripToken(w); w != "" {
				kept = append(kept, w)
			}
		}
		words = kept
	}

	if len(words) == 0 {
		return nil, false
	}
	return words, true
}

// Token normalizes a single vocabulary token: Unicode normalization, case
// folding and, when enabled, edge stripping. Markers pass through unchanged.
func (n *Normalizer) Token(token string) string {
	token = strings.TrimSpace(n.fold(token))
	if n.opts.Case == CaseUpper {
		token = restoreMarker(token)
	}
	if n.opts.TokenNorm && token != SentenceStart && token != SentenceEnd {
		token = StripToken(token)
	}
	return token
}

// restoreMarker undoes upper-case folding of <s> and </s>.
func restoreMarker(w string) string {
	switch w {
	case "<S>":
		return SentenceStart
	case "</S>":
		return SentenceEnd
	}
	return w
}

func hasMarkers(words []string) bool {
	return words[0] == SentenceStart && words[len(words)-1] == SentenceEnd
}

// StripToken removes leading and trailing runes whose general category is
// punctuation, symbol, other, mark or separator.
func StripToken(token string) string {
	return strings.TrimFunc(token, excluded)
}

func excluded(r rune) bool {
	return unicode.In(r, unicode.P, unicode.S, unicode.C, unicode.M, unicode.Z)
}
