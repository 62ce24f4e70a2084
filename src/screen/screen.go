/*
	the screen package contains the streaming containment screen engine: the inverted index, the hashing pipeline, aggregation and scoring, and the winner-takes-all reallocator
*/
package screen

import (
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/sift-bio/sift/src/misc"
	"github.com/sift-bio/sift/src/seqio"
	"github.com/sift-bio/sift/src/sketch"
)

// Config collects the runtime settings for one screen run
type Config struct {
	Sketch         *sketch.Sketch
	Mixtures       []string
	NumProc        int
	WinnerTakesAll bool
	IdentityMin    float64
	PValueMax      float64
	MinCov         uint32
}

// Result holds the screen report for one reference
type Result struct {
	Identity           float64
	Shared             uint64
	SketchSize         int
	MedianMultiplicity uint32
	PValue             float64
	Name               string
	Comment            string
}

// Screener runs the containment screen for a loaded sketch
type Screener struct {
	config   *Config
	refIndex *RefIndex
}

// ValidateMixtures checks the mixture arguments before any file is opened:
// STDIN ("-") is only legal as the first mixture and every other argument
// must be a readable file
func ValidateMixtures(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no mixture inputs supplied")
	}
	for i, path := range paths {
		if path == "-" {
			if i != 0 {
				return fmt.Errorf("'-' for STDIN must be the first mixture")
			}
			continue
		}
		if err := misc.CheckFile(path); err != nil {
			return err
		}
	}
	return nil
}

// NewScreener is the constructor for a Screener; it builds the inverted
// index and the shared-hash counters from the reference sketch
func NewScreener(config *Config) *Screener {
	return &Screener{
		config:   config,
		refIndex: NewRefIndex(config.Sketch),
	}
}

// GetRefIndex returns the inverted index built from the reference sketch
func (Screener *Screener) GetRefIndex() *RefIndex {
	return Screener.refIndex
}

// Run streams the mixtures, aggregates the counters and writes the report.
// Progress goes to the log; the report lines go to the supplied writer.
func (Screener *Screener) Run(out io.Writer) error {
	conf := Screener.config

	if conf.Sketch.Translate() {
		log.Printf("translating from %d mixture input(s)...", len(conf.Mixtures))
	} else {
		log.Printf("streaming from %d mixture input(s)...", len(conf.Mixtures))
	}
	inputs, err := seqio.OpenAll(conf.Mixtures, false)
	if err != nil {
		return err
	}

	// run the hashing pipeline
	boss := newBoss(conf.Sketch.Params(), Screener.refIndex, conf.Sketch.SketchSize, conf.NumProc, inputs)
	merged, recordCount, err := boss.stream()
	if err != nil {
		return err
	}
	if recordCount == 0 {
		return fmt.Errorf("did not find sequence records in the mixture inputs")
	}
	log.Printf("\tsequence records processed: %d", recordCount)

	// the merged bottom-k heap estimates the mixture's distinct k-mer count
	setSize := uint64(merged.EstimateSetSize())
	log.Printf("\testimated distinct k-mers in mixture: %d", setSize)
	if setSize == 0 {
		log.Printf("WARNING: no valid k-mers in the mixture inputs")
	}

	log.Printf("summing shared hashes...")
	results := Screener.aggregate(setSize)

	log.Printf("writing output...")
	for _, result := range results {
		fmt.Fprintf(out, "%v\t%d/%d\t%d\t%v\t%v\t%v\n", result.Identity, result.Shared, result.SketchSize, result.MedianMultiplicity, result.PValue, result.Name, result.Comment)
	}
	return nil
}

// aggregate sums the shared-hash counters per reference, optionally
// reallocates to winners, and scores each reference. Results are returned in
// reference index order with the identity and p-value filters applied.
func (Screener *Screener) aggregate(setSize uint64) []*Result {
	conf := Screener.config
	sk := conf.Sketch
	refCount := len(sk.References)

	shared := make([]uint64, refCount)
	depths := make([][]uint32, refCount)
	for _, hv := range Screener.refIndex.SortedHashes() {
		count := Screener.refIndex.Count(hv)
		if count < conf.MinCov {
			continue
		}
		for _, i := range Screener.refIndex.Bucket(hv) {
			shared[i]++
			depths[i] = append(depths[i], count)
		}
	}

	if conf.WinnerTakesAll {
		log.Printf("reallocating shared hashes to winners...")
		Screener.reallocateToWinners(shared, depths)
	}

	results := make([]*Result, 0, refCount)
	for i, ref := range sk.References {
		if shared[i] == 0 && conf.IdentityMin >= 0 {
			continue
		}
		identity := estimateIdentity(shared[i], len(ref.Hashes), sk.KmerSize)
		if identity < conf.IdentityMin {
			continue
		}
		pValue := pValueWithin(shared[i], setSize, sk.KmerSpace(), len(ref.Hashes))
		if pValue > conf.PValueMax {
			continue
		}
		sort.Slice(depths[i], func(a, b int) bool { return depths[i][a] < depths[i][b] })
		var median uint32
		if shared[i] > 0 {
			median = depths[i][shared[i]/2]
		}
		results = append(results, &Result{
			Identity:           identity,
			Shared:             shared[i],
			SketchSize:         len(ref.Hashes),
			MedianMultiplicity: median,
			PValue:             pValue,
			Name:               ref.Name,
			Comment:            ref.Comment,
		})
	}
	return results
}

// reallocateToWinners assigns every counted hash to the single reference
// with the best identity score, ties broken by larger reference length, with
// a remaining full tie going to the last index in the bucket. Hashes are
// visited in ascending order and buckets in ascending reference index, so
// the reallocation is deterministic.
func (Screener *Screener) reallocateToWinners(shared []uint64, depths [][]uint32) {
	conf := Screener.config
	refs := conf.Sketch.References

	// score with the pre-reallocation counts
	scores := make([]float64, len(refs))
	for i := range refs {
		scores[i] = estimateIdentity(shared[i], len(refs[i].Hashes), conf.Sketch.KmerSize)
	}
	for i := range refs {
		shared[i] = 0
		depths[i] = depths[i][:0]
	}

	for _, hv := range Screener.refIndex.SortedHashes() {
		count := Screener.refIndex.Count(hv)
		if count < conf.MinCov {
			continue
		}
		winner := -1
		var maxScore float64
		var maxLength uint64
		for _, i := range Screener.refIndex.Bucket(hv) {
			if winner < 0 || scores[i] > maxScore || (scores[i] == maxScore && refs[i].Length >= maxLength) {
				winner = i
				maxScore = scores[i]
				maxLength = refs[i].Length
			}
		}
		shared[winner]++
		depths[winner] = append(depths[winner], count)
	}
}
