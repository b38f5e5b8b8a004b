package language

import (
	"math"
	"testing"

	"github.com/ieee0824/arpalm/corpus"
)

func unigramMass(b *Builder) float64 {
	sum := 0.0
	for _, p := range b.table(1).lookup(nil).probs {
		sum += p
	}
	return sum
}

func TestFixedDiscount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodFixed
	cfg.MaxOrder = 2
	cfg.DiscountMass = 0.5
	b := newTestBuilder(t, cfg, corpus.Options{})
	if _, err := b.AddText("a b\na c\n"); err != nil {
		t.Fatalf("AddText error: %v", err)
	}
	if err := b.Compute(); err != nil {
		t.Fatalf("Compute error: %v", err)
	}

	tests := []struct {
		ngram []string
		want  float64
	}{
		{[]string{"a"}, 0.25},
		{[]string{"b"}, 0.125},
		{[]string{"a", "b"}, 0.25}, // 1 * 0.5 / count(a)
		{[]string{"b", "a"}, 0},
	}
	for _, tt := range tests {
		if got := b.Prob(tt.ngram...); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Prob(%q) = %g, want %g", tt.ngram, got, tt.want)
		}
	}

	if got := unigramMass(b); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("sum of unigram probabilities = %g, want deflator 0.5", got)
	}
	// a is followed by b and c: alpha = 0.5 / (1 - 0.25)
	if got := b.BackoffWeight("a"); math.Abs(got-2.0/3.0) > 1e-12 {
		t.Errorf("BackoffWeight(a) = %g, want %g", got, 2.0/3.0)
	}
	if got := b.BackoffWeight("b"); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("BackoffWeight(b) = %g, want 0.5", got)
	}
}

func TestFixedDiscountDeflatorSum(t *testing.T) {
	for _, mass := range []float64{0.1, 0.3, 0.7} {
		cfg := DefaultConfig()
		cfg.Method = MethodFixed
		cfg.DiscountMass = mass
		b := newTestBuilder(t, cfg, corpus.Options{AddStart: true, Case: corpus.CaseLower})
		if _, err := b.AddText("The quick brown fox\njumps over the lazy dog\nthe end\n"); err != nil {
			t.Fatalf("AddText error: %v", err)
		}
		if err := b.Compute(); err != nil {
			t.Fatalf("Compute error: %v", err)
		}
		if got := unigramMass(b); math.Abs(got-(1-mass)) > 1e-9 {
			t.Errorf("mass %g: sum P(w) = %g, want %g", mass, got, 1-mass)
		}
	}
}

func TestAutoDiscount(t *testing.T) {
	s := AutoDiscount{Step: 0.25}
	got := s.candidates()
	want := []float64{0.25, 0.5, 0.75}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("candidates[%d] = %g, want %g", i, got[i], want[i])
		}
	}
	if n := len(AutoDiscount{Step: 0.1}.candidates()); n != 9 {
		t.Errorf("step 0.1 yields %d candidates, want 9", n)
	}

	cfg := DefaultConfig()
	cfg.Method = MethodAuto
	cfg.DiscountStep = 0.1
	b := newTestBuilder(t, cfg, corpus.Options{AddStart: true})
	if _, err := b.AddText("a b a\nb b c\n"); err != nil {
		t.Fatalf("AddText error: %v", err)
	}
	if err := b.Compute(); err != nil {
		t.Fatalf("Compute error: %v", err)
	}

	// Unigram likelihood grows with the deflator, so the smallest mass wins.
	if got := b.DiscountMass(); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("DiscountMass = %g, want 0.1", got)
	}
	if got := unigramMass(b); math.Abs(got-0.9) > 1e-9 {
		t.Errorf("sum P(w) = %g, want 0.9", got)
	}
}

func TestGoodTuringCount(t *testing.T) {
	hist := map[int]int{1: 3, 2: 1, 4: 2}
	tests := []struct {
		c    int
		want float64
	}{
		{1, 2.0 / 3.0}, // 2 * N(2) / N(1)
		{2, 2},         // N(3) = 0
		{3, 3},         // N(3) = 0
		{4, 4},         // N(5) = 0
	}
	for _, tt := range tests {
		if got := goodTuringCount(hist, tt.c); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("goodTuringCount(%d) = %g, want %g", tt.c, got, tt.want)
		}
	}
}

func TestGoodTuring(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOrder = 2
	b := newTestBuilder(t, cfg, corpus.Options{})
	// unigrams: a=3, b=2, c=1, d=1 -> N(1)=2, N(2)=1, N(3)=1
	if _, err := b.AddText("a b\na b\na c\nd\n"); err != nil {
		t.Fatalf("AddText error: %v", err)
	}
	if err := b.Compute(); err != nil {
		t.Fatalf("Compute error: %v", err)
	}

	// c*: a=3 (N(4) = 0), b=3 (3 N(3) / N(2)), c=d=1 (2 N(2) / N(1)),
	// rescaled by their sum 8
	tests := []struct {
		ngram []string
		want  float64
	}{
		{[]string{"c"}, 1.0 / 8},
		{[]string{"d"}, 1.0 / 8},
		{[]string{"b"}, 3.0 / 8},
		{[]string{"a"}, 3.0 / 8},
		// bigrams: (a,b)=2, (a,c)=1 -> N(1)=1, N(2)=1, N(3)=0
		{[]string{"a", "b"}, 2.0 / 3},
		{[]string{"a", "c"}, 2.0 / 3},
	}
	for _, tt := range tests {
		if got := b.Prob(tt.ngram...); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Prob(%q) = %g, want %g", tt.ngram, got, tt.want)
		}
	}
}

func TestGoodTuringUnigramMass(t *testing.T) {
	tests := []struct {
		name string
		text string
		opts corpus.Options
	}{
		{"singletons", "go forward ten meters\n", corpus.Options{AddStart: true}},
		{"mixed counts", "the cat sat on the mat\na dog sat on a log\nthe dog ran\n", corpus.Options{}},
		{"no singletons", "a b\na b\n", corpus.Options{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder(t, DefaultConfig(), tt.opts)
			if _, err := b.AddText(tt.text); err != nil {
				t.Fatalf("AddText error: %v", err)
			}
			if err := b.Compute(); err != nil {
				t.Fatalf("Compute error: %v", err)
			}
			if got := unigramMass(b); math.Abs(got-1) > 1e-9 {
				t.Errorf("sum P(w) = %g, want 1", got)
			}
		})
	}
}

func TestGoodTuringClipsProbabilities(t *testing.T) {
	b := newTestBuilder(t, DefaultConfig(), corpus.Options{AddStart: true})
	if _, err := b.AddText("go forward ten meters\nturn left\n"); err != nil {
		t.Fatalf("AddText error: %v", err)
	}
	if err := b.Compute(); err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	for k := 1; k <= b.MaxOrder(); k++ {
		for _, c := range b.table(k).contexts {
			for w, p := range c.probs {
				if p <= 0 || p > 1 {
					t.Errorf("order %d: P(%q | %q) = %g, want in (0, 1]", k, w, c.tokens, p)
				}
			}
		}
	}
	// every trigram is a singleton in its context
	if got := b.Prob("<s>", "go", "forward"); got != 1 {
		t.Errorf("Prob(<s> go forward) = %g, want 1", got)
	}
	if got := b.Prob("<s>", "go"); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Prob(<s> go) = %g, want 0.5", got)
	}
}

func TestKneserNey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodKneserNey
	cfg.MaxOrder = 2
	b := newTestBuilder(t, cfg, corpus.Options{})
	if _, err := b.AddText("a b\nc b\na c\n"); err != nil {
		t.Fatalf("AddText error: %v", err)
	}
	if err := b.Compute(); err != nil {
		t.Fatalf("Compute error: %v", err)
	}

	tests := []struct {
		ngram []string
		want  float64
	}{
		{[]string{"b"}, 2.0 / 3}, // follows a and c
		{[]string{"c"}, 1.0 / 3}, // follows a
		{[]string{"a"}, 0},       // never follows anything
		{[]string{"a", "b"}, (1 - 0.75) / 2},
		{[]string{"c", "b"}, (1 - 0.75) / 1},
	}
	for _, tt := range tests {
		if got := b.Prob(tt.ngram...); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Prob(%q) = %g, want %g", tt.ngram, got, tt.want)
		}
	}

	if got := b.InterpolationWeight("a"); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("InterpolationWeight(a) = %g, want 0.75", got)
	}
	if got := b.InterpolationWeight("zzz"); got != 0 {
		t.Errorf("InterpolationWeight(zzz) = %g, want 0", got)
	}
}

func TestKneserNeyUnigramFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodKneserNey
	cfg.MaxOrder = 1
	b := newTestBuilder(t, cfg, corpus.Options{})
	if _, err := b.AddText("a b a\n"); err != nil {
		t.Fatalf("AddText error: %v", err)
	}
	if err := b.Compute(); err != nil {
		t.Fatalf("Compute error: %v", err)
	}
	if got := b.Prob("a"); math.Abs(got-2.0/3) > 1e-12 {
		t.Errorf("Prob(a) = %g, want %g", got, 2.0/3)
	}
	if got := unigramMass(b); math.Abs(got-1) > 1e-12 {
		t.Errorf("sum P(w) = %g, want 1", got)
	}
}

func TestSmootherNames(t *testing.T) {
	tests := []struct {
		s    Smoother
		name string
		desc string
	}{
		{FixedDiscount{Mass: 0.5}, "fixed", "with fixed discount mass 0.5"},
		{AutoDiscount{Step: 0.1}, "auto", "with auto discount mass 0.3 (step 0.1)"},
		{GoodTuring{}, "good_turing", "with Good-Turing discounting"},
		{KneserNey{Discount: 0.75}, "kneser_ney", "with Kneser-Ney discount 0.75"},
	}
	for _, tt := range tests {
		if got := tt.s.Name(); got != tt.name {
			t.Errorf("Name() = %q, want %q", got, tt.name)
		}
		if got := tt.s.Describe(0.3); got != tt.desc {
			t.Errorf("Describe() = %q, want %q", got, tt.desc)
		}
	}
}
