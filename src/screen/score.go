package screen

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// estimateIdentity converts a shared hash count to a containment identity
// estimate via the Jaccard-like ratio (shared / |signature|)^(1/k). The full
// and empty cases are forced so 1^(1/k) can't surface as -0 and 0^0 never
// appears.
func estimateIdentity(common uint64, denom int, kmerSize int) float64 {
	if common == uint64(denom) {
		return 1.0
	}
	if common == 0 {
		return 0.0
	}
	jaccard := float64(common) / float64(denom)
	return math.Pow(jaccard, 1.0/float64(kmerSize))
}

// pValueWithin returns P(X >= x) for X ~ Binomial(sketchSize, setSize/kmerSpace):
// the chance of seeing at least this many shared hashes if the mixture's
// distinct k-mers were a random subset of k-mer space
func pValueWithin(x, setSize uint64, kmerSpace float64, sketchSize int) float64 {
	if x == 0 {
		return 1.0
	}
	r := float64(setSize) / kmerSpace
	if r > 1.0 {
		r = 1.0
	}
	dist := distuv.Binomial{N: float64(sketchSize), P: r}
	return dist.Survival(float64(x) - 1.0)
}
