package language

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// Method identifies a smoothing algorithm.
type Method int

const (
	MethodFixed Method = iota
	MethodAuto
	MethodGoodTuring
	MethodKneserNey
)

var methodNames = map[Method]string{
	MethodFixed:      "fixed",
	MethodAuto:       "auto",
	MethodGoodTuring: "good_turing",
	MethodKneserNey:  "kneser_ney",
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod maps a method name to a Method.
func ParseMethod(name string) (Method, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m, s := range methodNames {
		if s == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown smoothing method %q", ErrInvalidConfig, name)
}

// KneserNeyDiscount is the absolute discount used by Kneser-Ney smoothing.
const KneserNeyDiscount = 0.75

// Smoother converts the counts of a Builder into conditional probabilities.
// The set of implementations is closed: FixedDiscount, AutoDiscount,
// GoodTuring and KneserNey.
type Smoother interface {
	// Name returns the method name.
	Name() string
	// Describe returns the method summary written to the ARPA header comment.
	Describe(mass float64) string
	// estimate fills the probability tables and returns the discount mass
	// used for back-off weights.
	estimate(b *Builder) float64
}

func newSmoother(cfg Config) (Smoother, error) {
	switch cfg.Method {
	case MethodFixed:
		return FixedDiscount{Mass: cfg.DiscountMass}, nil
	case MethodAuto:
		return AutoDiscount{Step: cfg.DiscountStep}, nil
	case MethodGoodTuring:
		return GoodTuring{Mass: cfg.DiscountMass}, nil
	case MethodKneserNey:
		return KneserNey{Discount: KneserNeyDiscount, Mass: cfg.DiscountMass}, nil
	}
	return nil, fmt.Errorf("%w: unknown smoothing method %v", ErrInvalidConfig, cfg.Method)
}

// FixedDiscount reserves a fixed fraction of the mass of every distribution
// for back-off (Katz style).
type FixedDiscount struct {
	Mass float64
}

func (FixedDiscount) Name() string { return MethodFixed.String() }

func (FixedDiscount) Describe(mass float64) string {
	return fmt.Sprintf("with fixed discount mass %g", mass)
}

func (s FixedDiscount) estimate(b *Builder) float64 {
	katzEstimate(b, 1.0-s.Mass)
	return s.Mass
}

// AutoDiscount picks the discount mass from the grid step, 2*step, ... < 1
// that maximizes the unigram log-likelihood of the training counts.
type AutoDiscount struct {
	Step float64
}

func (AutoDiscount) Name() string { return MethodAuto.String() }

func (s AutoDiscount) Describe(mass float64) string {
	return fmt.Sprintf("with auto discount mass %g (step %g)", mass, s.Step)
}

func (s AutoDiscount) estimate(b *Builder) float64 {
	best, bestLL := s.Step, math.Inf(-1)
	for _, mass := range s.candidates() {
		ll := unigramLogLikelihood(b, 1.0-mass)
		if ll > bestLL {
			best, bestLL = mass, ll
		}
	}
	b.logger.Info("auto discount selected",
		zap.Float64("discount_mass", best),
		zap.Float64("log_likelihood", bestLL),
		zap.Int("candidates", len(s.candidates())))
	katzEstimate(b, 1.0-best)
	return best
}

func (s AutoDiscount) candidates() []float64 {
	var out []float64
	for i := 1; float64(i)*s.Step < 1.0; i++ {
		out = append(out, float64(i)*s.Step)
	}
	return out
}

// unigramLogLikelihood scores the training unigram counts under
// P(w) = count(w) * deflator / sum_1.
func unigramLogLikelihood(b *Builder, deflator float64) float64 {
	ll := 0.0
	uni := b.table(1).lookup(nil)
	for _, c := range uni.counts {
		if c <= 0 {
			continue
		}
		ll += float64(c) * math.Log(float64(c)*deflator/float64(b.sum1))
	}
	return ll
}

// katzEstimate sets P(w) = c(w) * deflator / sum_1 and, for higher orders,
// P(w | ctx) = c(ctx, w) * deflator / c(ctx), where c(ctx) is the count of
// the context n-gram one order down.
func katzEstimate(b *Builder, deflator float64) {
	for _, c := range b.table(1).contexts {
		for w, n := range c.counts {
			if n > 0 {
				c.probs[w] = float64(n) * deflator / float64(b.sum1)
			}
		}
	}
	for k := 2; k <= b.cfg.MaxOrder; k++ {
		lower := b.table(k - 1)
		for _, c := range b.table(k).contexts {
			denom := lower.count(c.tokens[:k-2], c.tokens[k-2])
			if denom <= 0 {
				continue
			}
			for w, n := range c.counts {
				if n > 0 {
					c.probs[w] = float64(n) * deflator / float64(denom)
				}
			}
		}
	}
}

// GoodTuring re-estimates counts from frequency-of-frequencies statistics.
// The unigram distribution is rescaled to sum to 1 after the N(1)/2
// correction.
type GoodTuring struct {
	Mass float64 // back-off numerator
}

func (GoodTuring) Name() string { return MethodGoodTuring.String() }

func (GoodTuring) Describe(float64) string {
	return "with Good-Turing discounting"
}

func (s GoodTuring) estimate(b *Builder) float64 {
	for k := 1; k <= b.cfg.MaxOrder; k++ {
		t := b.table(k)
		hist := countOfCounts(t)
		for _, c := range t.contexts {
			var total float64
			if k == 1 {
				total = float64(b.sum1)
				if n1 := hist[1]; n1 > 0 {
					total -= float64(n1) / 2
				}
			} else {
				total = float64(c.total())
			}
			if total <= 0 {
				continue
			}
			for w, n := range c.counts {
				if n <= 0 {
					continue
				}
				c.probs[w] = min(goodTuringCount(hist, n)/total, 1.0)
			}
		}
	}
	normalize(b.table(1).lookup(nil).probs)
	return s.Mass
}

// normalize scales a distribution to sum to 1.
func normalize(probs map[string]float64) {
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	if sum <= 0 {
		return
	}
	for w, p := range probs {
		probs[w] = p / sum
	}
}

// countOfCounts returns N(c), the number of distinct n-grams of the table
// seen exactly c times, summed across contexts.
func countOfCounts(t *gramTable) map[int]int {
	hist := make(map[int]int)
	for _, c := range t.contexts {
		for _, n := range c.counts {
			if n > 0 {
				hist[n]++
			}
		}
	}
	return hist
}

// goodTuringCount returns c* = (c+1) N(c+1) / N(c), or c when either
// frequency of frequencies is zero.
func goodTuringCount(hist map[int]int, c int) float64 {
	nc, next := hist[c], hist[c+1]
	if nc == 0 || next == 0 {
		return float64(c)
	}
	return float64(c+1) * float64(next) / float64(nc)
}

// KneserNey applies absolute discounting to higher orders and a
// continuation-count distribution to unigrams. The interpolation weight of
// each context is recorded but not mixed into the stored probabilities.
type KneserNey struct {
	Discount float64
	Mass     float64 // back-off numerator
}

func (KneserNey) Name() string { return MethodKneserNey.String() }

func (s KneserNey) Describe(float64) string {
	return fmt.Sprintf("with Kneser-Ney discount %g", s.Discount)
}

func (s KneserNey) estimate(b *Builder) float64 {
	s.estimateUnigrams(b)
	for k := 2; k <= b.cfg.MaxOrder; k++ {
		for _, c := range b.table(k).contexts {
			total := c.total()
			if total <= 0 {
				continue
			}
			seen := 0
			for w, n := range c.counts {
				if n <= 0 {
					continue
				}
				seen++
				if p := math.Max(float64(n)-s.Discount, 0) / float64(total); p > 0 {
					c.probs[w] = p
				}
			}
			c.gamma = s.Discount * float64(seen) / float64(total)
		}
	}
	return s.Mass
}

// estimateUnigrams normalizes continuation counts, the number of distinct
// bigram contexts each word follows. Without bigrams it falls back to the
// relative frequency.
func (s KneserNey) estimateUnigrams(b *Builder) {
	uni := b.table(1).lookup(nil)
	cont := make(map[string]int)
	totalCont := 0
	if b.cfg.MaxOrder >= 2 {
		for _, c := range b.table(2).contexts {
			for w, n := range c.counts {
				if n > 0 {
					cont[w]++
					totalCont++
				}
			}
		}
	}
	for w, n := range uni.counts {
		if n <= 0 {
			continue
		}
		if totalCont == 0 {
			uni.probs[w] = float64(n) / float64(b.sum1)
		} else if cont[w] > 0 {
			uni.probs[w] = float64(cont[w]) / float64(totalCont)
		}
	}
}
