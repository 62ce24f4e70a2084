/*
	the sketch package holds the reference sketch model and the .msh file reader/writer
*/
package sketch

import (
	"fmt"
	"io/ioutil"
	"math"
	"sort"

	"gopkg.in/vmihailenco/msgpack.v2"

	"github.com/sift-bio/sift/src/hashing"
	"github.com/sift-bio/sift/src/misc"
)

// AlphabetNucleotide is the alphabet of a nucleotide sketch
const AlphabetNucleotide = "ACGT"

// AlphabetProtein is the alphabet of an amino acid sketch
const AlphabetProtein = "ACDEFGHIKLMNPQRSTVWY"

// Extension is the file extension of a serialised sketch
const Extension = "msh"

// Reference is one sketched reference sequence
type Reference struct {
	Name    string
	Comment string
	Length  uint64

	// Hashes is the bottom-k signature, sorted ascending
	Hashes []uint64
}

// Sketch is the set of reference signatures plus the hashing settings they were built with
type Sketch struct {
	KmerSize     int
	SketchSize   int
	HashSeed     uint32
	Use64        bool
	Noncanonical bool
	PreserveCase bool
	Alphabet     string
	References   []*Reference
}

// NewSketch is the constructor for an empty sketch
func NewSketch(kmerSize, sketchSize int, hashSeed uint32, use64, noncanonical, preserveCase bool, alphabet string) *Sketch {
	return &Sketch{
		KmerSize:     kmerSize,
		SketchSize:   sketchSize,
		HashSeed:     hashSeed,
		Use64:        use64,
		Noncanonical: noncanonical,
		PreserveCase: preserveCase,
		Alphabet:     alphabet,
	}
}

// AddReference appends a reference signature to the sketch
func (Sketch *Sketch) AddReference(name, comment string, length uint64, hashes []uint64) {
	Sketch.References = append(Sketch.References, &Reference{
		Name:    name,
		Comment: comment,
		Length:  length,
		Hashes:  hashes,
	})
}

// Translate reports whether mixtures screened against this sketch need 6-frame translation
func (Sketch *Sketch) Translate() bool {
	return Sketch.Alphabet == AlphabetProtein
}

// KmerSpace returns |alphabet|^k, the cardinality of the universe of possible k-mers
func (Sketch *Sketch) KmerSpace() float64 {
	return math.Pow(float64(len(Sketch.Alphabet)), float64(Sketch.KmerSize))
}

// Params returns the hashing parameters declared by the sketch
func (Sketch *Sketch) Params() *hashing.Parameters {
	return hashing.NewParameters(Sketch.KmerSize, Sketch.Use64, Sketch.HashSeed, Sketch.Noncanonical, Sketch.PreserveCase, Sketch.Translate(), Sketch.Alphabet)
}

// Save writes the sketch to a .msh file
func (Sketch *Sketch) Save(path string) error {
	if err := misc.CheckExt(path, []string{Extension}); err != nil {
		return err
	}
	b, err := msgpack.Marshal(Sketch)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, b, 0644)
}

// LoadSketch reads a sketch back from a .msh file
func LoadSketch(path string) (*Sketch, error) {
	if err := misc.CheckExt(path, []string{Extension}); err != nil {
		return nil, err
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sketch := &Sketch{}
	if err := msgpack.Unmarshal(data, sketch); err != nil {
		return nil, fmt.Errorf("malformed sketch file: %v (%v)", path, err)
	}
	if len(sketch.Alphabet) == 0 || sketch.KmerSize < 1 || sketch.SketchSize < 1 {
		return nil, fmt.Errorf("malformed sketch file: %v (missing header fields)", path)
	}

	// signatures are stored sorted ascending (see Reference.Hashes)
	for _, ref := range sketch.References {
		if !sort.SliceIsSorted(ref.Hashes, func(i, j int) bool { return ref.Hashes[i] < ref.Hashes[j] }) {
			return nil, fmt.Errorf("malformed sketch file: %v (unsorted signature for %v)", path, ref.Name)
		}
	}
	return sketch, nil
}
