package language

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ieee0824/arpalm/internal/mathutil"
)

// countScale converts a probability read from an ARPA file back to an
// approximate integer count. ARPA files do not carry the training counts.
const countScale = 1000

// Write emits the model in ARPA format. Entries with zero probability are
// omitted and each order's \data\ count is the number of entries written.
func (b *Builder) Write(w io.Writer) error {
	if !b.computed {
		return ErrNotComputed
	}
	b.logger.Debug("writing ARPA model")

	bw := bufio.NewWriter(w)
	sections := make([][]string, b.cfg.MaxOrder)
	for k := 1; k <= b.cfg.MaxOrder; k++ {
		sections[k-1] = b.sectionLines(k)
	}

	fmt.Fprintln(bw, b.headerComment())
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "\\data\\")
	for k, lines := range sections {
		if len(lines) > 0 {
			fmt.Fprintf(bw, "ngram %d=%d\n", k+1, len(lines))
		}
	}
	fmt.Fprintln(bw)

	for k, lines := range sections {
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(bw, "\\%d-grams:\n", k+1)
		for _, line := range lines {
			bw.WriteString(line)
			bw.WriteByte('\n')
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintln(bw, "\\end\\")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write ARPA: %w", err)
	}
	return nil
}

// WriteFile writes the model to path, replacing any existing file.
func (b *Builder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		b.logger.Error("create ARPA file", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := b.Write(f); err != nil {
		f.Close()
		b.logger.Error("write ARPA file", zap.String("path", path), zap.Error(err))
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	b.logger.Info("ARPA file written", zap.String("path", path))
	return nil
}

func (b *Builder) headerComment() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Corpus: %d sentences; %d words,", b.sentences, b.sum1)
	for k := 1; k <= b.cfg.MaxOrder; k++ {
		fmt.Fprintf(&sb, " %d %d-grams,", b.TypeCount(k), k)
	}
	sb.WriteString(" ")
	sb.WriteString(b.smoother.Describe(b.mass))
	if b.norm.Options().TokenNorm {
		sb.WriteString(" with simple normalization")
	}
	return sb.String()
}

// sectionLines formats the order-k entries, contexts and words in
// lexicographic order. A zero-probability n-gram is written, with log10
// probability -99, only when it is the context of a written higher-order
// entry.
func (b *Builder) sectionLines(order int) []string {
	var lines []string
	withAlpha := order < b.cfg.MaxOrder
	ngram := make([]string, order)

	for _, c := range b.table(order).sorted() {
		copy(ngram, c.tokens)
		for _, w := range c.words() {
			ngram[order-1] = w
			if !b.listed(order, ngram) {
				continue
			}
			p := c.probs[w]
			line := mathutil.FormatLog10(p) + " " + strings.Join(ngram, " ")
			if withAlpha {
				line += " " + mathutil.FormatLog10(b.alpha(order, ngram))
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// listed reports whether an order-k n-gram belongs in the model: it has a
// positive probability or it prefixes a listed n-gram of order k+1.
func (b *Builder) listed(order int, ngram []string) bool {
	if b.table(order).prob(ngram[:order-1], ngram[order-1]) > 0 {
		return true
	}
	if order >= b.cfg.MaxOrder {
		return false
	}
	next := b.table(order + 1).lookup(ngram)
	if next == nil {
		return false
	}
	longer := append(append(make([]string, 0, order+1), ngram...), "")
	for w := range next.counts {
		longer[order] = w
		if b.listed(order+1, longer) {
			return true
		}
	}
	return false
}

// ReadARPA reconstructs a Builder from an ARPA file. Probabilities and
// back-off weights are taken from the file; counts are approximated as
// round(p * 1000). The file's highest order overrides cfg.MaxOrder, and the
// result can take more data and be recomputed.
//
// Parsing is lenient: lines that do not have the shape of an entry of the
// current section are skipped.
func ReadARPA(r io.Reader, cfg Config, opts ...Option) (*Builder, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	// Skip until \data\ section, picking up the sentence count on the way.
	sentences, found := 0, false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "\\data\\" {
			found = true
			break
		}
		if strings.HasPrefix(line, "Corpus:") {
			fmt.Sscanf(line, "Corpus: %d sentences;", &sentences)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("parse ARPA: missing \\data\\ section")
	}

	// Parse ngram counts
	sizes := make(map[int]int)
	maxOrder := 0
	line := ""
	for scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ngram ") {
			parts := strings.SplitN(line[6:], "=", 2)
			if len(parts) == 2 {
				order, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
				n, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
				if err1 == nil && err2 == nil && order > 0 {
					sizes[order] = n
					maxOrder = max(maxOrder, order)
				}
			}
			continue
		}
		break
	}
	if maxOrder == 0 {
		return nil, errors.New("parse ARPA: no ngram counts in \\data\\ section")
	}

	cfg.MaxOrder = maxOrder
	b, err := NewBuilder(cfg, opts...)
	if err != nil {
		return nil, err
	}
	for k := 1; k <= maxOrder; k++ {
		b.tables[k-1] = newGramTable(k, sizes[k])
		if k < maxOrder {
			b.alphas[k-1] = make(map[string]float64, sizes[k])
		}
	}

	// Parse n-gram sections
	order, skipped := 0, 0
sections:
	for {
		switch {
		case line == "\\end\\":
			break sections
		case strings.HasPrefix(line, "\\") && strings.HasSuffix(line, "-grams:"):
			order = 0
			n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(line, "\\"), "-grams:"))
			if err == nil && n >= 1 && n <= maxOrder {
				order = n
			}
		case line == "" || order == 0:
		default:
			if !b.parseEntry(order, line) {
				skipped++
			}
		}
		if !scanner.Scan() {
			break
		}
		line = strings.TrimSpace(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	b.sentences = sentences
	if uni := b.table(1).lookup(nil); uni != nil {
		for _, n := range uni.counts {
			b.sum1 += n
		}
	}
	b.computed = true
	b.logger.Info("ARPA model read",
		zap.Int("max_order", maxOrder),
		zap.Int("unigrams", b.TypeCount(1)),
		zap.Int("skipped_lines", skipped))
	return b, nil
}

// parseEntry stores one "log10p w1 ... wk [log10alpha]" line. The alpha
// column is recognized by field count, so numeric-looking words are never
// mistaken for weights.
func (b *Builder) parseEntry(order int, line string) bool {
	fields := strings.Fields(line)
	hasAlpha := false
	switch len(fields) {
	case order + 1:
	case order + 2:
		hasAlpha = true
	default:
		return false
	}

	logProb, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return false
	}
	alpha := 1.0
	if hasAlpha {
		logAlpha, err := strconv.ParseFloat(fields[order+1], 64)
		if err != nil {
			return false
		}
		alpha = math.Pow(10, logAlpha)
	}

	words := fields[1 : order+1]
	p := math.Pow(10, logProb)
	c := b.table(order).getOrCreate(words[:order-1])
	c.counts[words[order-1]] = int(math.Round(p * countScale))
	c.probs[words[order-1]] = p
	if order < b.cfg.MaxOrder {
		b.alphas[order-1][joinKey(words)] = alpha
	}
	return true
}

// ReadARPAFile is a convenience wrapper that opens a file path.
func ReadARPAFile(path string, cfg Config, opts ...Option) (*Builder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadARPA(f, cfg, opts...)
}

// LoadARPA reads a language model in ARPA format for scoring.
// Log probabilities in ARPA files are base-10; they are converted to natural log.
func LoadARPA(r io.Reader) (*NGramModel, error) {
	b, err := ReadARPA(r, DefaultConfig())
	if err != nil {
		return nil, err
	}
	return b.Model()
}
