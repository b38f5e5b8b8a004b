// Package lexicon loads vocabulary word lists used to extend a model's
// unigram coverage beyond the training corpus.
package lexicon

import (
	"bufio"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ieee0824/arpalm/corpus"
)

const maxLineSize = 64 * 1024

// WordList holds the tokens read from a word file.
type WordList struct {
	Tokens  []string // normalized tokens in file order, duplicates kept
	Skipped int      // malformed lines
}

// Load reads a word list with one token per line. Blank lines are ignored.
// Lines that are not valid UTF-8, hold more than one token, exceed 64 KiB or
// normalize to nothing are skipped and counted in Skipped. A nil normalizer
// only trims surrounding whitespace.
func Load(r io.Reader, n *corpus.Normalizer) (*WordList, error) {
	if n == nil {
		n = corpus.NewNormalizer(corpus.Options{})
	}
	wl := &WordList{}
	br := bufio.NewReaderSize(r, maxLineSize)

	for {
		raw, isPrefix, err := br.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isPrefix {
			// longer than any token: drain the rest of the line and skip it
			for isPrefix && err == nil {
				_, isPrefix, err = br.ReadLine()
			}
			if err != nil && err != io.EOF {
				return nil, err
			}
			wl.Skipped++
			continue
		}

		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}
		if !utf8.ValidString(line) || strings.IndexFunc(line, unicode.IsSpace) >= 0 {
			wl.Skipped++
			continue
		}
		token := n.Token(line)
		if token == "" {
			wl.Skipped++
			continue
		}
		wl.Tokens = append(wl.Tokens, token)
	}

	return wl, nil
}

// LoadFile is a convenience wrapper that opens a file path.
func LoadFile(path string, n *corpus.Normalizer) (*WordList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, n)
}
