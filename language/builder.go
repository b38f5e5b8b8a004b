package language

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/ieee0824/arpalm/corpus"
	"github.com/ieee0824/arpalm/internal/mathutil"
	"github.com/ieee0824/arpalm/lexicon"
)

var (
	// ErrInvalidConfig reports an out-of-range or unknown estimator setting.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrEmptyVocabulary is returned by Compute when no unigram was observed.
	ErrEmptyVocabulary = errors.New("empty vocabulary: no input")
	// ErrNotComputed is returned when probabilities are requested before Compute.
	ErrNotComputed = errors.New("model not computed")
)

// Config holds estimation parameters.
type Config struct {
	MaxOrder     int     // highest n-gram order
	Method       Method  // smoothing method
	DiscountMass float64 // fixed discount mass, also the back-off numerator; [0, 1)
	DiscountStep float64 // auto discount grid step; (0, 1)
}

// DefaultConfig returns the default trigram Good-Turing configuration.
func DefaultConfig() Config {
	return Config{
		MaxOrder:     3,
		Method:       MethodGoodTuring,
		DiscountMass: 0.5,
		DiscountStep: 0.05,
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.MaxOrder < 1 {
		return fmt.Errorf("%w: max order %d must be at least 1", ErrInvalidConfig, c.MaxOrder)
	}
	if !(c.DiscountMass >= 0 && c.DiscountMass < 1) {
		return fmt.Errorf("%w: discount mass %g out of range [0, 1)", ErrInvalidConfig, c.DiscountMass)
	}
	if !(c.DiscountStep > 0 && c.DiscountStep < 1) {
		return fmt.Errorf("%w: discount step %g out of range (0, 1)", ErrInvalidConfig, c.DiscountStep)
	}
	return nil
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for progress reporting.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithNormalizer sets the line and token normalizer used by ReadCorpus,
// AddText and ReadWordFile.
func WithNormalizer(n *corpus.Normalizer) Option {
	return func(b *Builder) {
		if n != nil {
			b.norm = n
		}
	}
}

// Builder accumulates n-gram counts and estimates a back-off model.
// A Builder is not safe for concurrent use; ingest everything, then Compute,
// then Write.
type Builder struct {
	cfg      Config
	smoother Smoother
	norm     *corpus.Normalizer
	logger   *zap.Logger

	tables []*gramTable         // tables[k-1] holds order-k counts
	alphas []map[string]float64 // alphas[k-1] holds back-off weights of order-k n-grams

	sentences int
	sum1      int     // total of all order-1 counts
	mass      float64 // discount mass in effect after Compute
	computed  bool
}

// NewBuilder creates an empty Builder. The smoothing method and its
// parameters are validated here.
func NewBuilder(cfg Config, opts ...Option) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	smoother, err := newSmoother(cfg)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		cfg:      cfg,
		smoother: smoother,
		norm:     corpus.NewNormalizer(corpus.Options{}),
		logger:   zap.NewNop(),
		tables:   make([]*gramTable, cfg.MaxOrder),
		alphas:   make([]map[string]float64, cfg.MaxOrder),
		mass:     cfg.DiscountMass,
	}
	for k := 1; k <= cfg.MaxOrder; k++ {
		b.tables[k-1] = newGramTable(k, 0)
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Builder) table(order int) *gramTable {
	return b.tables[order-1]
}

// AddSentence counts every n-gram of orders 1..MaxOrder in a token sequence.
// Tokens are counted as given; no markers are added.
func (b *Builder) AddSentence(words []string) {
	if len(words) == 0 {
		return
	}
	b.sentences++
	for j := range words {
		maxK := min(b.cfg.MaxOrder, len(words)-j)
		for k := 1; k <= maxK; k++ {
			ctx := words[j : j+k-1]
			c := b.table(k).getOrCreate(ctx)
			c.counts[words[j+k-1]]++
		}
		b.sum1++
	}
}

// ReadCorpus normalizes and counts every line of r. It returns the number of
// sentences read.
func (b *Builder) ReadCorpus(r io.Reader) (int, error) {
	reader := corpus.NewReader(r, b.norm)
	for {
		words, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return reader.Sentences(), fmt.Errorf("read corpus: %w", err)
		}
		b.AddSentence(words)
	}
	b.logger.Info("corpus read",
		zap.Int("sentences", reader.Sentences()),
		zap.Int("skipped_lines", reader.Skipped()))
	return reader.Sentences(), nil
}

// AddText counts the lines of an in-memory text.
func (b *Builder) AddText(text string) (int, error) {
	return b.ReadCorpus(strings.NewReader(text))
}

// AddWords injects each token not yet in the vocabulary as a unigram with
// the given count. Existing words are left unchanged, and nothing is added
// when count is not positive. It returns the number of new words.
func (b *Builder) AddWords(tokens []string, count int) int {
	if count <= 0 {
		return 0
	}
	uni := b.table(1).getOrCreate(nil)
	added := 0
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, ok := uni.counts[tok]; ok {
			continue
		}
		uni.counts[tok] = count
		b.sum1 += count
		added++
	}
	return added
}

// ReadWordFile loads a one-token-per-line word list and injects its words
// with the given count. Malformed lines are skipped and only logged.
func (b *Builder) ReadWordFile(path string, count int) (*lexicon.WordList, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: word count %d must be at least 1", ErrInvalidConfig, count)
	}
	wl, err := lexicon.LoadFile(path, b.norm)
	if err != nil {
		return nil, fmt.Errorf("read word file: %w", err)
	}
	added := b.AddWords(wl.Tokens, count)
	b.logger.Info("word file read",
		zap.String("path", path),
		zap.Int("new_words", added),
		zap.Int("tokens", len(wl.Tokens)),
		zap.Int("skipped_lines", wl.Skipped),
		zap.Int("count", count))
	return wl, nil
}

// Compute estimates probabilities and back-off weights. Calling it again
// recomputes from the current counts.
func (b *Builder) Compute() error {
	uni := b.table(1).lookup(nil)
	if uni == nil || len(uni.counts) == 0 || b.sum1 <= 0 {
		return ErrEmptyVocabulary
	}
	for _, t := range b.tables {
		t.resetEstimates()
	}
	b.mass = b.smoother.estimate(b)
	b.computeBackoff()
	b.computed = true

	b.logger.Debug("model computed",
		zap.String("method", b.smoother.Name()),
		zap.Float64("discount_mass", b.mass),
		zap.Int("words", b.sum1),
		zap.Int("unigrams", b.TypeCount(1)))
	return nil
}

// MaxOrder returns the highest n-gram order.
func (b *Builder) MaxOrder() int { return b.cfg.MaxOrder }

// Method returns the smoothing method.
func (b *Builder) Method() Method { return b.cfg.Method }

// SentenceCount returns the number of sentences counted.
func (b *Builder) SentenceCount() int { return b.sentences }

// TokenCount returns the total of all unigram counts.
func (b *Builder) TokenCount() int { return b.sum1 }

// DiscountMass returns the discount mass in effect. After Compute in auto
// mode this is the selected candidate.
func (b *Builder) DiscountMass() float64 { return b.mass }

// TypeCount returns the number of distinct n-grams of the given order.
func (b *Builder) TypeCount(order int) int {
	if order < 1 || order > b.cfg.MaxOrder {
		return 0
	}
	return b.table(order).types()
}

func (b *Builder) split(ngram []string) ([]string, string, bool) {
	if len(ngram) == 0 || len(ngram) > b.cfg.MaxOrder {
		return nil, "", false
	}
	return ngram[:len(ngram)-1], ngram[len(ngram)-1], true
}

// Count returns the count of an n-gram.
func (b *Builder) Count(ngram ...string) int {
	ctx, w, ok := b.split(ngram)
	if !ok {
		return 0
	}
	return b.table(len(ngram)).count(ctx, w)
}

// Prob returns the estimated conditional probability P(w_k | w_1..w_k-1).
func (b *Builder) Prob(ngram ...string) float64 {
	ctx, w, ok := b.split(ngram)
	if !ok {
		return 0
	}
	return b.table(len(ngram)).prob(ctx, w)
}

// BackoffWeight returns the back-off weight of an n-gram, 1.0 when none is set.
func (b *Builder) BackoffWeight(ngram ...string) float64 {
	if len(ngram) == 0 || len(ngram) >= b.cfg.MaxOrder {
		return 1.0
	}
	return b.alpha(len(ngram), ngram)
}

// InterpolationWeight returns the Kneser-Ney interpolation weight of a
// context, or 0 for other methods and unknown contexts.
func (b *Builder) InterpolationWeight(context ...string) float64 {
	order := len(context) + 1
	if order < 2 || order > b.cfg.MaxOrder {
		return 0
	}
	if c := b.table(order).lookup(context); c != nil {
		return c.gamma
	}
	return 0
}

// Model returns a back-off scoring model over the estimated tables.
func (b *Builder) Model() (*NGramModel, error) {
	if !b.computed {
		return nil, ErrNotComputed
	}
	m := NewNGramModel(b.cfg.MaxOrder)
	for k := 1; k <= b.cfg.MaxOrder; k++ {
		for _, c := range b.table(k).contexts {
			for w := range c.counts {
				ngram := append(append(make([]string, 0, k), c.tokens...), w)
				if !b.listed(k, ngram) {
					continue
				}
				p := c.probs[w]
				logBackoff := 0.0
				if k < b.cfg.MaxOrder {
					logBackoff = naturalLog(b.alpha(k, ngram))
				}
				m.add(ngram, naturalLog(p), logBackoff)
			}
		}
	}
	return m, nil
}

// naturalLog converts to natural log, flooring at the ARPA log10 zero so a
// model matches the one read back from its ARPA file.
func naturalLog(p float64) float64 {
	if p <= 0 {
		return mathutil.ARPALogZero * math.Ln10
	}
	return math.Log(p)
}
