// Copyright © 2020 the SIFT authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"io"
	"log"
	"math"
	"path/filepath"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/sift-bio/sift/src/hashing"
	"github.com/sift-bio/sift/src/minhash"
	"github.com/sift-bio/sift/src/misc"
	"github.com/sift-bio/sift/src/seqio"
	"github.com/sift-bio/sift/src/sketch"
	"github.com/sift-bio/sift/src/version"
)

// the command line arguments
var (
	output       *string // the sketch file to write
	kmerSize     *int    // k-mer size for sketching
	sketchSize   *int    // number of minimum hashes kept per reference
	hashSeed     *int    // seed for the hash function
	protein      *bool   // treat the inputs as amino acid sequences
	noncanonical *bool   // hash the forward strand only
	preserveCase *bool   // keep lower case characters (default is to upper case them)
	bloomFilter  *bool   // only admit hashes into a signature once they have been seen twice
	individual   *bool   // sketch every record separately, rather than one reference per file
)

// the sketch command (used by cobra)
var sketchCmd = &cobra.Command{
	Use:   "sketch <input> [<input>] ...",
	Short: "Sketch reference sequences into bottom-k MinHash signatures",
	Long: `Sketch reference sequences into bottom-k MinHash signatures.

By default each input file becomes one reference in the sketch; use
--individual to make every sequence record a reference. The resulting .msh
file is the <queries> argument of 'sift screen'.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSketch(args)
	},
}

/*
  A function to initialise the command line arguments
*/
func init() {
	RootCmd.AddCommand(sketchCmd)
	output = sketchCmd.Flags().StringP("output", "o", "", "sketch file to write (must end in .msh)")
	kmerSize = sketchCmd.Flags().IntP("kmerSize", "k", 21, "k-mer size for sketching")
	sketchSize = sketchCmd.Flags().IntP("sketchSize", "s", 1000, "number of minimum hashes kept per reference")
	hashSeed = sketchCmd.Flags().Int("seed", 42, "seed for the hash function")
	protein = sketchCmd.Flags().BoolP("protein", "a", false, "treat the inputs as amino acid sequences")
	noncanonical = sketchCmd.Flags().BoolP("noncanonical", "n", false, "hash the forward strand only (no canonical k-mers)")
	preserveCase = sketchCmd.Flags().Bool("preserveCase", false, "keep lower case characters rather than upper casing the sequences")
	bloomFilter = sketchCmd.Flags().BoolP("bloomFilter", "b", false, "use a bloom filter to keep single-copy k-mers out of the signatures")
	individual = sketchCmd.Flags().BoolP("individual", "i", false, "sketch every sequence record separately, rather than one reference per file")
	sketchCmd.MarkFlagRequired("output")
}

/*
  A function to check user supplied parameters
*/
func sketchParamCheck(args []string) error {
	if err := misc.CheckExt(*output, []string{sketch.Extension}); err != nil {
		return fmt.Errorf("output file must end in .msh: %v", *output)
	}
	for _, input := range args {
		if input == "-" {
			continue
		}
		if err := misc.CheckFile(input); err != nil {
			return err
		}
	}
	if *kmerSize < 1 {
		return fmt.Errorf("k-mer size must be at least 1, got: %v", *kmerSize)
	}
	if *sketchSize < 1 {
		return fmt.Errorf("sketch size must be at least 1, got: %v", *sketchSize)
	}
	return nil
}

/*
  The main function for the sketch sub-command
*/
func runSketch(args []string) {
	// start profiling if requested
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}

	// check the parameters
	misc.ErrorCheck(sketchParamCheck(args))
	log.Printf("this is SIFT (version %v)", version.GetVersion())

	// collect the sketching settings; the hash width follows the k-mer space
	alphabet := sketch.AlphabetNucleotide
	if *protein {
		alphabet = sketch.AlphabetProtein
	}
	use64 := math.Pow(float64(len(alphabet)), float64(*kmerSize)) > math.Pow(2.0, 32.0)
	forward := *noncanonical || *protein
	newSketch := sketch.NewSketch(*kmerSize, *sketchSize, uint32(*hashSeed), use64, forward, *preserveCase, alphabet)

	// the builder hashes the records as they are, so translation is off even for amino acid inputs
	params := hashing.NewParameters(*kmerSize, use64, uint32(*hashSeed), forward, *preserveCase, false, alphabet)

	// sketch each input
	log.Printf("sketching %d input(s)...", len(args))
	for _, input := range args {
		stream, err := seqio.OpenStream(input, *protein)
		misc.ErrorCheck(err)

		fileSketch := minhash.NewMinHashHeap(use64, *sketchSize, newBloomFilter())
		var fileLength uint64
		fileComment := ""
		for {
			record, err := stream.Next()
			if err == io.EOF {
				break
			}
			misc.ErrorCheck(err)
			if *individual {
				recordSketch := minhash.NewMinHashHeap(use64, *sketchSize, newBloomFilter())
				hashing.ProcessChunk(record.Seq, params, recordSketch, nil)
				newSketch.AddReference(record.Name, "", uint64(len(record.Seq)), recordSketch.ToSortedList())
				continue
			}
			if fileComment == "" {
				fileComment = record.Name
			}
			fileLength += uint64(len(record.Seq))
			hashing.ProcessChunk(record.Seq, params, fileSketch, nil)
		}
		stream.Close()
		if !*individual {
			newSketch.AddReference(filepath.Base(input), fileComment, fileLength, fileSketch.ToSortedList())
		}
	}
	if len(newSketch.References) == 0 {
		misc.ErrorCheck(fmt.Errorf("did not find sequence records in the inputs"))
	}

	// write the sketch file
	log.Printf("writing %v...", *output)
	misc.ErrorCheck(newSketch.Save(*output))
	log.Printf("\treferences sketched: %d", len(newSketch.References))
	log.Printf("finished %v", misc.PrintMemUsage())
}

// newBloomFilter returns a filter for the sketch builder, or nil when the gate is off
func newBloomFilter() *minhash.BloomFilter {
	if !*bloomFilter {
		return nil
	}
	return minhash.NewDefaultBloomFilter()
}
