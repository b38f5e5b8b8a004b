package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ieee0824/arpalm"
	"github.com/ieee0824/arpalm/internal/config"
)

func main() {
	configPath := flag.String("config", "", "YAML build configuration (flags override it)")
	order := flag.Int("order", 3, "N-gram order (2=bigram, 3=trigram)")
	method := flag.String("method", "good_turing", "smoothing: fixed, auto, good_turing, kneser_ney")
	mass := flag.Float64("discount-mass", 0.5, "discount mass [0.0, 1.0)")
	step := flag.Float64("discount-step", 0.05, "auto discount grid step (0.0, 1.0)")
	foldCase := flag.String("case", "", "fold case (values: lower, upper)")
	addStart := flag.Bool("add-start", false, "wrap lines lacking them with <s> ... </s>")
	tokenNorm := flag.Bool("norm", false, "strip punctuation from token edges")
	unicodeNorm := flag.Bool("unicode-norm", false, "NFC-normalize input lines")
	text := flag.String("text", "", "train on this text in addition to the input files")
	wordFile := flag.String("word-file", "", "add words from this file with -word-count")
	wordCount := flag.Int("word-count", 1, "count set for each new word of -word-file")
	output := flag.String("output", "", "output file (default: stdout)")
	verbose := flag.Bool("v", false, "log progress to stderr")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lmbuild [options] [input-files...]")
		fmt.Fprintln(os.Stderr, "  Builds an ARPA back-off N-gram language model from text.")
		fmt.Fprintln(os.Stderr, "  Input: one sentence per line, words separated by spaces.")
		fmt.Fprintln(os.Stderr, "  If no input files or -text are given, reads from stdin.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		log.Fatal("initialize logger: ", err)
	}
	defer logger.Sync()

	cfg := config.Default()
	if *configPath != "" {
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Fatal("load configuration", zap.Error(err))
		}
	}

	// explicitly set flags override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "order":
			cfg.Order = *order
		case "method":
			cfg.Method = *method
		case "discount-mass":
			cfg.DiscountMass = *mass
		case "discount-step":
			cfg.DiscountStep = *step
		case "case":
			cfg.Corpus.Case = *foldCase
		case "add-start":
			cfg.Corpus.AddStart = *addStart
		case "norm":
			cfg.Corpus.TokenNorm = *tokenNorm
		case "unicode-norm":
			cfg.Corpus.UnicodeNorm = *unicodeNorm
		case "word-file":
			cfg.WordFile = *wordFile
		case "word-count":
			cfg.WordCount = *wordCount
		case "output":
			cfg.Output = *output
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "lmbuild: %v\n", err)
		os.Exit(2)
	}
	lc, _ := cfg.LanguageConfig()

	opts := []arpalm.Option{
		arpalm.WithConfig(lc),
		arpalm.WithCorpusOptions(cfg.CorpusOptions()),
		arpalm.WithLogger(logger),
	}
	if cfg.WordFile != "" {
		opts = append(opts, arpalm.WithWordFile(cfg.WordFile, cfg.WordCount))
	}
	est, err := arpalm.New(opts...)
	if err != nil {
		logger.Fatal("create estimator", zap.Error(err))
	}

	if flag.NArg() == 0 && *text == "" {
		if _, err := est.Builder().ReadCorpus(os.Stdin); err != nil {
			logger.Fatal("read stdin", zap.Error(err))
		}
	}
	if err := est.TrainFiles(flag.Args()...); err != nil {
		logger.Fatal("read corpus", zap.Error(err))
	}
	if *text != "" {
		if err := est.TrainText(*text); err != nil {
			logger.Fatal("read text", zap.Error(err))
		}
	}

	if cfg.Output != "" {
		err = est.WriteFile(cfg.Output)
	} else {
		err = est.Write(os.Stdout)
	}
	if err != nil {
		logger.Fatal("write ARPA", zap.Error(err))
	}

	b := est.Builder()
	logger.Info("model built",
		zap.Int("order", b.MaxOrder()),
		zap.String("method", b.Method().String()),
		zap.Int("sentences", b.SentenceCount()),
		zap.Int("words", b.TokenCount()))
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfgZap := zap.NewProductionConfig()
	cfgZap.Level.SetLevel(zapcore.WarnLevel)
	if verbose {
		cfgZap.Level.SetLevel(zapcore.DebugLevel)
	}
	cfgZap.OutputPaths = []string{"stderr"}
	cfgZap.Encoding = "console"
	cfgZap.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfgZap.Build()
}
