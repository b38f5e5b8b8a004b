package language

import (
	"math"
	"strings"
	"testing"

	"github.com/ieee0824/arpalm/corpus"
)

const testARPA = `\data\
ngram 1=4
ngram 2=3

\1-grams:
-1.0	</s>
-1.0	<s>	-0.5
-0.5	東京
-0.7	タワー	-0.3

\2-grams:
-0.3	<s>	東京
-0.4	東京	タワー
-0.2	タワー	</s>

\end\
`

func TestLoadARPA(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	if model.Order != 2 {
		t.Errorf("Order = %d, want 2", model.Order)
	}
	if len(model.Entries[0]) != 4 {
		t.Errorf("len(Entries[0]) = %d, want 4", len(model.Entries[0]))
	}
	if len(model.Entries[1]) != 3 {
		t.Errorf("len(Entries[1]) = %d, want 3", len(model.Entries[1]))
	}

	// log10 prob = -0.5 -> ln prob = -0.5 * ln(10)
	if e, ok := model.Entries[0]["東京"]; ok {
		want := -0.5 * math.Ln10
		if math.Abs(e.LogProb-want) > 1e-10 {
			t.Errorf("東京 unigram LogProb = %f, want %f", e.LogProb, want)
		}
		if e.LogBackoff != 0 {
			t.Errorf("東京 unigram LogBackoff = %f, want 0", e.LogBackoff)
		}
	} else {
		t.Error("missing unigram for 東京")
	}
}

func TestLogProb_Bigram(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	// P(東京 | <s>) should use the bigram
	lp := model.LogProb([]string{"<s>"}, "東京")
	want := -0.3 * math.Ln10
	if math.Abs(lp-want) > 1e-10 {
		t.Errorf("LogProb(<s>, 東京) = %f, want %f", lp, want)
	}
}

func TestLogProb_Backoff(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	// P(東京 | タワー) -- no bigram exists, should backoff
	// backoff(タワー) + P_unigram(東京)
	lp := model.LogProb([]string{"タワー"}, "東京")
	backoff := -0.3 * math.Ln10
	unigramLP := -0.5 * math.Ln10
	want := backoff + unigramLP
	if math.Abs(lp-want) > 1e-10 {
		t.Errorf("LogProb(タワー, 東京) = %f, want %f", lp, want)
	}

	// </s> has no back-off weight, so only the unigram remains
	lp = model.LogProb([]string{"</s>"}, "東京")
	if math.Abs(lp-unigramLP) > 1e-10 {
		t.Errorf("LogProb(</s>, 東京) = %f, want %f", lp, unigramLP)
	}
}

func TestLogProb_Unknown(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	if lp := model.LogProb([]string{"<s>"}, "大阪"); lp > -1e29 {
		t.Errorf("LogProb(<s>, 大阪) = %g, want LogZero", lp)
	}
	model.OOVLogProb = -10
	if lp := model.LogProb([]string{"<s>"}, "大阪"); lp != -10 {
		t.Errorf("LogProb(<s>, 大阪) = %g, want -10", lp)
	}
	if model.Contains("大阪") {
		t.Error("Contains(大阪) = true, want false")
	}
	if !model.Contains("東京") {
		t.Error("Contains(東京) = false, want true")
	}
}

func TestSentenceLogProb(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	words := []string{"東京", "タワー"}
	lp := model.SentenceLogProb(words)
	// P(<s>, 東京) + P(東京, タワー) + P(タワー, </s>)
	want := -0.3*math.Ln10 + -0.4*math.Ln10 + -0.2*math.Ln10
	if math.Abs(lp-want) > 1e-10 {
		t.Errorf("SentenceLogProb = %f, want %f", lp, want)
	}
	if len(words) != 2 {
		t.Errorf("SentenceLogProb modified its input: %q", words)
	}
}

func TestPerplexity(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	ppl, oov := model.Perplexity([][]string{{"東京", "タワー"}})
	if oov != 0 {
		t.Errorf("oov = %d, want 0", oov)
	}
	if want := math.Pow(10, 0.3); math.Abs(ppl-want) > 1e-9 {
		t.Errorf("perplexity = %f, want %f", ppl, want)
	}

	// ラーメン is skipped; </s> then backs off to its unigram
	ppl, oov = model.Perplexity([][]string{{"東京", "ラーメン"}})
	if oov != 1 {
		t.Errorf("oov = %d, want 1", oov)
	}
	if want := math.Pow(10, 0.65); math.Abs(ppl-want) > 1e-9 {
		t.Errorf("perplexity = %f, want %f", ppl, want)
	}

	if ppl, _ := model.Perplexity(nil); !math.IsInf(ppl, 1) {
		t.Errorf("perplexity of nothing = %f, want +Inf", ppl)
	}
}

func TestVocab(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	vocab := model.Vocab()
	if len(vocab) != 4 {
		t.Errorf("len(Vocab) = %d, want 4", len(vocab))
	}
	for i := 1; i < len(vocab); i++ {
		if vocab[i-1] >= vocab[i] {
			t.Errorf("Vocab not sorted: %q", vocab)
			break
		}
	}
}

func TestBuilderModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodFixed
	cfg.MaxOrder = 2
	b := newTestBuilder(t, cfg, corpus.Options{})
	if _, err := b.Model(); err != ErrNotComputed {
		t.Errorf("Model before Compute error = %v, want ErrNotComputed", err)
	}
	b.AddSentence(withMarkers("a", "b"))
	b.AddSentence(withMarkers("a", "c"))
	if err := b.Compute(); err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	model, err := b.Model()
	if err != nil {
		t.Fatalf("Model error: %v", err)
	}

	if lp := model.LogProb([]string{"<s>"}, "a"); math.Abs(lp-math.Log(0.5)) > 1e-12 {
		t.Errorf("LogProb(<s>, a) = %f, want %f", lp, math.Log(0.5))
	}

	// b is only followed by </s>: alpha(b) = 0.5 / (1 - P(</s>))
	alpha := 0.5 / (1 - 0.125)
	want := math.Log(alpha) + math.Log(0.0625)
	if lp := model.LogProb([]string{"b"}, "c"); math.Abs(lp-want) > 1e-12 {
		t.Errorf("LogProb(b, c) = %f, want %f", lp, want)
	}

	// histories longer than the model order are truncated
	long := model.LogProb([]string{"x", "y", "a"}, "b")
	short := model.LogProb([]string{"a"}, "b")
	if long != short {
		t.Errorf("LogProb with long history = %f, want %f", long, short)
	}
}

func TestTrigramBackoffChain(t *testing.T) {
	b := newTestBuilder(t, DefaultConfig(), corpus.Options{})
	b.AddSentence(withMarkers("go", "forward"))
	b.AddSentence(withMarkers("go", "back"))
	b.AddSentence(withMarkers("turn", "back"))
	if err := b.Compute(); err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	model, err := b.Model()
	if err != nil {
		t.Fatalf("Model error: %v", err)
	}

	// "turn forward" is unseen: back off through alpha(<s> turn) and alpha(turn)
	want := math.Log(b.BackoffWeight("<s>", "turn")) +
		math.Log(b.BackoffWeight("turn")) +
		math.Log(b.Prob("forward"))
	if lp := model.LogProb([]string{"<s>", "turn"}, "forward"); math.Abs(lp-want) > 1e-12 {
		t.Errorf("LogProb(<s> turn, forward) = %f, want %f", lp, want)
	}

	// "turn back" is seen as a trigram
	want = math.Log(b.Prob("<s>", "turn", "back"))
	if lp := model.LogProb([]string{"<s>", "turn"}, "back"); math.Abs(lp-want) > 1e-12 {
		t.Errorf("LogProb(<s> turn, back) = %f, want %f", lp, want)
	}
}
