package mathutil

import (
	"fmt"
	"math"
)

// LogZero represents log(0), used as negative infinity in log-domain arithmetic.
const LogZero = -1e30

// ARPALogZero is the log10 value written in place of log10(0) in ARPA files.
const ARPALogZero = -99.0

// Log10 returns log10(p), or ARPALogZero when p is not positive.
func Log10(p float64) float64 {
	if p <= 0 || math.IsNaN(p) {
		return ARPALogZero
	}
	return math.Log10(p)
}

// FormatLog10 formats log10(p) with four decimals, the fixed-point layout of
// ARPA numeric fields. A value that rounds to zero is always written "0.0000".
func FormatLog10(p float64) string {
	s := fmt.Sprintf("%6.4f", Log10(p))
	if s == "-0.0000" {
		return "0.0000"
	}
	return s
}
