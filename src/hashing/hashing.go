/*
	the hashing package contains the k-mer hashing primitives, codon translation and the chunk k-mer extractor used by the screen and sketch commands
*/
package hashing

import (
	"github.com/spaolacci/murmur3"
)

// complementBases is the lookup table used during reverse complementation
var complementBases [256]byte

func init() {
	for i := range complementBases {
		complementBases[i] = 'N'
	}
	complementBases['A'] = 'T'
	complementBases['T'] = 'A'
	complementBases['C'] = 'G'
	complementBases['G'] = 'C'
	complementBases['a'] = 't'
	complementBases['t'] = 'a'
	complementBases['c'] = 'g'
	complementBases['g'] = 'c'
}

// Parameters collects the hashing settings declared by a reference sketch
type Parameters struct {
	KmerSize     int
	Use64        bool
	Seed         uint32
	Noncanonical bool
	PreserveCase bool
	Translate    bool
	alphabet     [256]bool
}

// NewParameters is the constructor for a set of hashing parameters
func NewParameters(kmerSize int, use64 bool, seed uint32, noncanonical, preserveCase, translate bool, alphabet string) *Parameters {
	params := &Parameters{
		KmerSize:     kmerSize,
		Use64:        use64,
		Seed:         seed,
		Noncanonical: noncanonical,
		PreserveCase: preserveCase,
		Translate:    translate,
	}
	for i := 0; i < len(alphabet); i++ {
		params.alphabet[alphabet[i]] = true
	}
	return params
}

// HashKmer hashes a k-mer with the requested width, always carrying the result as a uint64.
// The 64-bit flavour takes the low word of the 128-bit murmur3 digest.
func HashKmer(kmer []byte, use64 bool, seed uint32) uint64 {
	if use64 {
		h1, _ := murmur3.Sum128WithSeed(kmer, seed)
		return h1
	}
	return uint64(murmur3.Sum32WithSeed(kmer, seed))
}

// ReverseComplement returns the reverse complement of a sequence, leaving the input untouched
func ReverseComplement(seq []byte) []byte {
	rc := make([]byte, len(seq))
	for i, j := 0, len(seq)-1; j >= 0; i, j = i+1, j-1 {
		rc[i] = complementBases[seq[j]]
	}
	return rc
}
