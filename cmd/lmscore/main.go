package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/ieee0824/arpalm"
	"github.com/ieee0824/arpalm/corpus"
	"github.com/ieee0824/arpalm/language"
)

func main() {
	lmPath := flag.String("lm", "", "path to language model (ARPA format)")
	oovProb := flag.Float64("oov-prob", 0, "OOV unigram log10 probability (e.g. -5.0, 0=skip OOV words)")
	foldCase := flag.String("case", "", "fold case (values: lower, upper)")
	tokenNorm := flag.Bool("norm", false, "strip punctuation from token edges")
	unicodeNorm := flag.Bool("unicode-norm", false, "NFC-normalize input lines")
	verbose := flag.Bool("v", false, "print the score of every sentence")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lmscore -lm LM [options] [input-files...]")
		fmt.Fprintln(os.Stderr, "  Scores sentences against an ARPA model and reports perplexity.")
		fmt.Fprintln(os.Stderr, "  If no input files given, reads from stdin.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *lmPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	fold, err := corpus.ParseCase(*foldCase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	model, err := arpalm.LoadModel(*lmPath, *oovProb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	norm := corpus.NewNormalizer(corpus.Options{Case: fold, TokenNorm: *tokenNorm, UnicodeNorm: *unicodeNorm})

	var sentences [][]string
	if flag.NArg() == 0 {
		sentences, err = readSentences(os.Stdin, norm)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			os.Exit(1)
		}
	}
	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open %s: %v\n", path, err)
			continue
		}
		s, err := readSentences(f, norm)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
			os.Exit(1)
		}
		sentences = append(sentences, s...)
	}

	if *verbose {
		for _, words := range sentences {
			fmt.Printf("%.4f\t%s\n", sentenceLog10(model, words), strings.Join(words, " "))
		}
	}

	ppl, oov := model.Perplexity(sentences)
	words := 0
	for _, s := range sentences {
		words += len(s)
	}
	fmt.Printf("%d sentences, %d words, %d OOVs\n", len(sentences), words, oov)
	fmt.Printf("ppl = %.2f\n", ppl)
}

// readSentences returns the normalized sentences of r without the <s> and
// </s> markers, which scoring adds itself.
func readSentences(r io.Reader, norm *corpus.Normalizer) ([][]string, error) {
	reader := corpus.NewReader(r, norm)
	var out [][]string
	for {
		tokens, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		words := make([]string, 0, len(tokens))
		for _, t := range tokens {
			if t != corpus.SentenceStart && t != corpus.SentenceEnd {
				words = append(words, t)
			}
		}
		if len(words) > 0 {
			out = append(out, words)
		}
	}
}

// sentenceLog10 returns the log10 probability of a sentence, skipping OOV
// words the same way perplexity does.
func sentenceLog10(model *language.NGramModel, words []string) float64 {
	ppl, oov := model.Perplexity([][]string{words})
	n := len(words) + 1 - oov
	if n == 0 || math.IsInf(ppl, 1) {
		return math.Inf(-1)
	}
	return -float64(n) * math.Log10(ppl)
}
