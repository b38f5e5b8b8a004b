package corpus

import (
	"bufio"
	"io"
)

const maxLineSize = 1024 * 1024

// Reader yields normalized sentences from a line-oriented corpus.
type Reader struct {
	scanner   *bufio.Scanner
	norm      *Normalizer
	sentences int
	skipped   int
}

// NewReader wraps r. Lines are normalized with n; a nil n keeps lines as
// whitespace-split tokens without further processing.
func NewReader(r io.Reader, n *Normalizer) *Reader {
	if n == nil {
		n = NewNormalizer(Options{})
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{scanner: scanner, norm: n}
}

// Next returns the next non-empty sentence, or io.EOF once the input is
// exhausted.
func (r *Reader) Next() ([]string, error) {
	for r.scanner.Scan() {
		words, ok := r.norm.Line(r.scanner.Text())
		if !ok {
			r.skipped++
			continue
		}
		r.sentences++
		return words, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Sentences returns the number of sentences returned so far.
func (r *Reader) Sentences() int { return r.sentences }

// Skipped returns the number of lines that normalized to nothing.
func (r *Reader) Skipped() int { return r.skipped }
