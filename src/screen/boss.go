package screen

import (
	"io"
	"sync"

	"github.com/sift-bio/sift/src/hashing"
	"github.com/sift-bio/sift/src/minhash"
	"github.com/sift-bio/sift/src/seqio"
)

// chunkSize is the target size of the sequence chunks handed to the workers
const chunkSize = 1 << 20

// recordSeparator stops k-mers straddling records within a chunk: it is not a
// nucleotide and it is the stop residue in translated mode
const recordSeparator = '*'

// hashTask is one unit of work: an owned chunk of sequence and a borrowed heap
type hashTask struct {
	chunk  []byte
	sketch *minhash.MinHashHeap
}

// theBoss reads the mixture inputs, assembles chunks and dispatches them to
// the hashing minions
type theBoss struct {
	params      *hashing.Parameters
	refIndex    *RefIndex
	sketchSize  int
	numProc     int
	inputs      *seqio.RoundRobin
	pool        chan *minhash.MinHashHeap
	heaps       []*minhash.MinHashHeap
	recordCount uint64
}

// newBoss is the constructor for the pipeline orchestrator
func newBoss(params *hashing.Parameters, refIndex *RefIndex, sketchSize, numProc int, inputs *seqio.RoundRobin) *theBoss {
	return &theBoss{
		params:     params,
		refIndex:   refIndex,
		sketchSize: sketchSize,
		numProc:    numProc,
		inputs:     inputs,
		pool:       make(chan *minhash.MinHashHeap, 2*numProc+2),
	}
}

// acquireHeap grabs a reusable heap from the pool, creating and registering a
// new one when the pool is empty. Only the boss touches the registry.
func (theBoss *theBoss) acquireHeap() *minhash.MinHashHeap {
	select {
	case sketch := <-theBoss.pool:
		return sketch
	default:
		sketch := minhash.NewMinHashHeap(theBoss.params.Use64, theBoss.sketchSize, nil)
		theBoss.heaps = append(theBoss.heaps, sketch)
		return sketch
	}
}

// stream drives the whole pipeline: round robin reading, chunk assembly, the
// hashing minions and the final heap merge. It returns the merged bottom-k
// heap for the mixture and the number of records processed.
func (theBoss *theBoss) stream() (*minhash.MinHashHeap, uint64, error) {

	// launch the hashing minions
	work := make(chan *hashTask, theBoss.numProc)
	var wg sync.WaitGroup
	wg.Add(theBoss.numProc)
	for i := 0; i < theBoss.numProc; i++ {
		go func() {
			defer wg.Done()
			for task := range work {
				hashing.ProcessChunk(task.chunk, theBoss.params, task.sketch, theBoss.refIndex)
				theBoss.pool <- task.sketch
			}
		}()
	}

	// read the inputs in a round robin, assembling records into chunks
	buffer := make([]byte, 0, chunkSize)
	kmerSize := theBoss.params.KmerSize
	var streamErr error
	for {
		record, err := theBoss.inputs.Next()
		done := err == io.EOF
		if err != nil && !done {
			streamErr = err
			break
		}

		// flush when the chunk is big enough, or when the inputs are spent
		projected := 0
		if !done && len(record.Seq) >= kmerSize {
			projected = len(record.Seq) + 1
		}
		if (len(buffer)+projected > chunkSize || done) && len(buffer) > 0 {
			work <- &hashTask{chunk: buffer, sketch: theBoss.acquireHeap()}
			buffer = make([]byte, 0, chunkSize)
		}
		if done {
			break
		}

		// records too short to hold a k-mer still count as processed
		theBoss.recordCount++
		if len(record.Seq) >= kmerSize {
			buffer = append(buffer, recordSeparator)
			buffer = append(buffer, record.Seq...)
		}
	}

	// wait for the minions and collect the heaps
	close(work)
	wg.Wait()
	theBoss.inputs.Close()
	if streamErr != nil {
		return nil, theBoss.recordCount, streamErr
	}

	// fold every worker heap into a fresh heap of the same size: the global
	// bottom-k estimate for the mixture
	merged := minhash.NewMinHashHeap(theBoss.params.Use64, theBoss.sketchSize, nil)
	for _, sketch := range theBoss.heaps {
		for _, hv := range sketch.ToSortedList() {
			merged.TryInsert(hv)
		}
	}
	return merged, theBoss.recordCount, nil
}
