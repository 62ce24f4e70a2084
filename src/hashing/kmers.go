package hashing

import (
	"bytes"

	"github.com/sift-bio/sift/src/minhash"
)

// HashCounter receives every hash emitted from a chunk, in addition to the
// chunk's MinHash heap. The screen engine uses it for its shared-hash
// counters; a nil counter is allowed (e.g. when building a sketch).
type HashCounter interface {
	Increment(hv uint64)
}

// ProcessChunk streams the valid k-mers of a chunk of sequence data,
// offering each hash to the supplied heap and counter. Records within the
// chunk are separated by '*', which can never sit inside a valid window.
// The chunk is upper cased in place unless the parameters preserve case.
func ProcessChunk(seq []byte, params *Parameters, sketch *minhash.MinHashHeap, counter HashCounter) {
	if !params.PreserveCase {
		for i := 0; i < len(seq); i++ {
			if seq[i] > 96 && seq[i] < 123 {
				seq[i] -= 32
			}
		}
	}

	// the reverse complement of the whole chunk is shared by the canonical
	// comparison and the three reverse translation frames
	var seqRev []byte
	if !params.Noncanonical || params.Translate {
		seqRev = ReverseComplement(seq)
	}

	frames := 1
	if params.Translate {
		frames = 6
	}

	for i := 0; i < frames; i++ {
		frame := i % 3
		rev := i > 2

		frameSeq := seq
		if params.Translate {
			strand := seq
			if rev {
				strand = seqRev
			}
			frameSeq = Translate(strand[frame:])
		}
		length := len(frameSeq)

		// lastGood tracks the rightmost validated position: a window is only
		// emitted once every position up to its end has been checked, and an
		// invalid symbol restarts the window just past itself
		lastGood := -1
		for j := 0; j <= length-params.KmerSize; j++ {
			for lastGood < j+params.KmerSize-1 && lastGood < length-1 {
				lastGood++
				if params.Translate {
					if frameSeq[lastGood] == Stop {
						j = lastGood + 1
					}
				} else if !params.alphabet[frameSeq[lastGood]] {
					j = lastGood + 1
				}
			}
			if j > length-params.KmerSize {
				break
			}

			kmer := frameSeq[j : j+params.KmerSize]
			if !params.Translate && !params.Noncanonical {
				kmerRev := seqRev[length-j-params.KmerSize : length-j]
				if bytes.Compare(kmer, kmerRev) > 0 {
					kmer = kmerRev
				}
			}

			hv := HashKmer(kmer, params.Use64, params.Seed)
			sketch.TryInsert(hv)
			if counter != nil {
				counter.Increment(hv)
			}
		}
	}
}
