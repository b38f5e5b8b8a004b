package language

import (
	"slices"
	"sort"
	"strconv"
	"strings"
)

// joinKey encodes tokens as a map key. A single token is its own key; longer
// sequences are length-prefixed ("2:go7:forward") so token content cannot
// collide with the encoding. Keys are only compared within one order.
func joinKey(tokens []string) string {
	if len(tokens) == 1 {
		return tokens[0]
	}
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(strconv.Itoa(len(t)))
		sb.WriteByte(':')
		sb.WriteString(t)
	}
	return sb.String()
}

// gramContext holds everything observed after one (k-1)-token context.
type gramContext struct {
	tokens []string
	counts map[string]int
	probs  map[string]float64
	gamma  float64 // Kneser-Ney interpolation weight
}

func (c *gramContext) total() int {
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}

// words returns the observed next words in sorted order.
func (c *gramContext) words() []string {
	words := make([]string, 0, len(c.counts))
	for w := range c.counts {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// gramTable maps (k-1)-token contexts to their order-k counts.
type gramTable struct {
	order    int
	contexts map[string]*gramContext
}

func newGramTable(order, sizeHint int) *gramTable {
	return &gramTable{
		order:    order,
		contexts: make(map[string]*gramContext, sizeHint),
	}
}

// lookup returns the context or nil without inserting it.
func (t *gramTable) lookup(ctx []string) *gramContext {
	return t.contexts[joinKey(ctx)]
}

// getOrCreate returns the context, inserting an empty one when absent.
func (t *gramTable) getOrCreate(ctx []string) *gramContext {
	key := joinKey(ctx)
	c, ok := t.contexts[key]
	if !ok {
		c = &gramContext{
			tokens: slices.Clone(ctx),
			counts: make(map[string]int),
			probs:  make(map[string]float64),
		}
		t.contexts[key] = c
	}
	return c
}

func (t *gramTable) count(ctx []string, word string) int {
	if c := t.lookup(ctx); c != nil {
		return c.counts[word]
	}
	return 0
}

func (t *gramTable) prob(ctx []string, word string) float64 {
	if c := t.lookup(ctx); c != nil {
		return c.probs[word]
	}
	return 0
}

// types returns the number of distinct n-grams in the table.
func (t *gramTable) types() int {
	n := 0
	for _, c := range t.contexts {
		n += len(c.counts)
	}
	return n
}

// sorted returns the contexts in lexicographic token order.
func (t *gramTable) sorted() []*gramContext {
	out := make([]*gramContext, 0, len(t.contexts))
	for _, c := range t.contexts {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *gramContext) int {
		return slices.Compare(a.tokens, b.tokens)
	})
	return out
}

func (t *gramTable) resetEstimates() {
	for _, c := range t.contexts {
		clear(c.probs)
		c.gamma = 0
	}
}
