package language

// computeBackoff sets, for every n-gram h of order k < MaxOrder,
//
//	alpha(h) = mass / (1 - sum_w P_k(w | h[1:]))
//
// where w ranges over the words observed after h in the order k+1 table.
// When the sum reaches 1 there is no residual mass and alpha is 1.
func (b *Builder) computeBackoff() {
	for k := 1; k < b.cfg.MaxOrder; k++ {
		lower, next := b.table(k), b.table(k+1)
		weights := make(map[string]float64, lower.types())

		for _, c := range lower.contexts {
			h := make([]string, k)
			copy(h, c.tokens)
			for w := range c.counts {
				h[k-1] = w
				sum := 0.0
				if followers := next.lookup(h); followers != nil {
					for w2 := range followers.counts {
						sum += lower.prob(h[1:], w2)
					}
				}
				weights[joinKey(h)] = backoffWeight(b.mass, sum)
			}
		}
		b.alphas[k-1] = weights
	}
}

func backoffWeight(mass, sum float64) float64 {
	if sum >= 1.0 {
		return 1.0
	}
	return mass / (1.0 - sum)
}

// alpha returns the stored weight of an order-k n-gram, 1.0 when unset.
func (b *Builder) alpha(order int, ngram []string) float64 {
	if order >= b.cfg.MaxOrder || b.alphas[order-1] == nil {
		return 1.0
	}
	if a, ok := b.alphas[order-1][joinKey(ngram)]; ok {
		return a
	}
	return 1.0
}
