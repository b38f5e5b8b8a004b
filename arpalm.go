package arpalm

import (
	"fmt"
	"io"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/ieee0824/arpalm/corpus"
	"github.com/ieee0824/arpalm/language"
)

// Estimator is the top-level ARPA language model builder.
type Estimator struct {
	Config     language.Config
	CorpusOpts corpus.Options
	WordFile   string // optional vocabulary file, one token per line
	WordCount  int    // count given to each new word of WordFile

	logger      *zap.Logger
	builder     *language.Builder
	wordsLoaded bool
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithConfig sets the order and smoothing parameters.
func WithConfig(cfg language.Config) Option {
	return func(e *Estimator) {
		e.Config = cfg
	}
}

// WithCorpusOptions sets the corpus normalization.
func WithCorpusOptions(opts corpus.Options) Option {
	return func(e *Estimator) {
		e.CorpusOpts = opts
	}
}

// WithLogger sets the logger passed down to the builder.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWordFile adds the words of path that the corpus does not contain,
// each with the given count. The file is read when the model is computed.
func WithWordFile(path string, count int) Option {
	return func(e *Estimator) {
		e.WordFile = path
		e.WordCount = count
	}
}

// New creates an Estimator with an empty builder.
func New(opts ...Option) (*Estimator, error) {
	e := &Estimator{
		Config:    language.DefaultConfig(),
		WordCount: 1,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.WordFile != "" && e.WordCount < 1 {
		return nil, fmt.Errorf("%w: word count %d must be at least 1", language.ErrInvalidConfig, e.WordCount)
	}

	b, err := language.NewBuilder(e.Config,
		language.WithLogger(e.logger),
		language.WithNormalizer(corpus.NewNormalizer(e.CorpusOpts)))
	if err != nil {
		return nil, fmt.Errorf("create builder: %w", err)
	}
	e.builder = b
	return e, nil
}

// Builder returns the underlying builder for direct access to counts and
// probabilities.
func (e *Estimator) Builder() *language.Builder {
	return e.builder
}

// TrainFiles counts the sentences of each corpus file in order.
func (e *Estimator) TrainFiles(paths ...string) error {
	for _, path := range paths {
		if err := e.trainFile(path); err != nil {
			return err
		}
	}
	return nil
}

func (e *Estimator) trainFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	n, err := e.builder.ReadCorpus(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	e.logger.Debug("corpus file read", zap.String("path", path), zap.Int("sentences", n))
	return nil
}

// TrainText counts the lines of an in-memory text.
func (e *Estimator) TrainText(text string) error {
	_, err := e.builder.AddText(text)
	return err
}

// Compute injects the word file, once, and estimates the model.
func (e *Estimator) Compute() error {
	if e.WordFile != "" && !e.wordsLoaded {
		if _, err := e.builder.ReadWordFile(e.WordFile, e.WordCount); err != nil {
			return err
		}
		e.wordsLoaded = true
	}
	return e.builder.Compute()
}

// Write computes the model and writes it to w in ARPA format.
func (e *Estimator) Write(w io.Writer) error {
	if err := e.Compute(); err != nil {
		return err
	}
	return e.builder.Write(w)
}

// WriteFile computes the model and writes it to path in ARPA format.
func (e *Estimator) WriteFile(path string) error {
	if err := e.Compute(); err != nil {
		return err
	}
	return e.builder.WriteFile(path)
}

// LoadModel reads an ARPA file for scoring. oovLog10 is the log10
// probability given to unknown words; 0 disables it.
func LoadModel(path string, oovLog10 float64) (*language.NGramModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open language model: %w", err)
	}
	defer f.Close()
	m, err := language.LoadARPA(f)
	if err != nil {
		return nil, fmt.Errorf("load language model: %w", err)
	}
	if oovLog10 != 0 {
		m.OOVLogProb = oovLog10 * math.Ln10 // convert log10 to natural log
	}
	return m, nil
}
