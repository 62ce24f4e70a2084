package hashing

// Stop is the residue produced for stop codons and for any codon containing a base outside ACGT
const Stop = '*'

// aminoAcids holds the standard codon table, indexed by 16*first + 4*second + third over base codes A=0 C=1 G=2 T=3
const aminoAcids = "KNKN" + "TTTT" + "RSRS" + "IIMI" +
	"QHQH" + "PPPP" + "RRRR" + "LLLL" +
	"EDED" + "AAAA" + "GGGG" + "VVVV" +
	"*Y*Y" + "SSSS" + "*CWC" + "LFLF"

// baseCode converts an upper case nucleotide to its 2-bit code, anything else to -1
var baseCode [256]int8

func init() {
	for i := range baseCode {
		baseCode[i] = -1
	}
	baseCode['A'] = 0
	baseCode['C'] = 1
	baseCode['G'] = 2
	baseCode['T'] = 3
}

// aaFromCodon returns the residue encoded by the codon starting at src[0]
func aaFromCodon(src []byte) byte {
	b0 := baseCode[src[0]]
	b1 := baseCode[src[1]]
	b2 := baseCode[src[2]]
	if b0 < 0 || b1 < 0 || b2 < 0 {
		return Stop
	}
	return aminoAcids[b0<<4|b1<<2|b2]
}

// Translate translates a nucleotide strand to residues, reading from the start of the supplied
// slice (the caller applies the frame offset). The result holds len(src)/3 residues.
func Translate(src []byte) []byte {
	residues := make([]byte, len(src)/3)
	for n, a := 0, 0; a < len(residues); a, n = a+1, n+3 {
		residues[a] = aaFromCodon(src[n:])
	}
	return residues
}
