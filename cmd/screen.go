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
	"log"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/sift-bio/sift/src/misc"
	"github.com/sift-bio/sift/src/screen"
	"github.com/sift-bio/sift/src/sketch"
	"github.com/sift-bio/sift/src/version"
)

// the command line arguments
var (
	winnerTakesAll *bool    // reallocate shared hashes to the best scoring reference
	identityMin    *float64 // minimum identity to report
	pValueMax      *float64 // maximum p-value to report
	minCov         *int     // minimum multiplicity for a hash to count as observed
)

// the screen command (used by cobra)
var screenCmd = &cobra.Command{
	Use:   "screen <queries>.msh <mixture> [<mixture>] ...",
	Short: "Screen a mixture of sequences for the references held in a sketch",
	Long: `Screen a mixture of sequences for the references held in a sketch.

The queries must be a single SIFT sketch file (.msh), created with 'sift sketch'.
The mixture files can be contigs or reads, FASTA or FASTQ, gzipped or not, and
'-' can be given as the first mixture to read from STDIN. Mixture sequences are
assumed to be nucleotides and are 6-frame translated when the queries are amino
acids. The output fields are [identity, shared-hashes, median-multiplicity,
p-value, query-ID, query-comment].`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runScreen(args)
	},
}

/*
  A function to initialise the command line arguments
*/
func init() {
	RootCmd.AddCommand(screenCmd)
	winnerTakesAll = screenCmd.Flags().BoolP("winner", "w", false, "winner-takes-all strategy for identity estimates: hashes shared by multiple references only count towards the best scoring one")
	identityMin = screenCmd.Flags().Float64P("identity", "i", 0.0, "minimum identity to report; inclusive unless 0, in which case only identities greater than zero are reported; -1 reports everything")
	pValueMax = screenCmd.Flags().Float64P("pvalue", "v", 1.0, "maximum p-value to report")
	minCov = screenCmd.Flags().IntP("minCov", "c", 1, "minimum number of observations of a hash for it to count as shared")
}

/*
  A function to check user supplied parameters
*/
func screenParamCheck(args []string) error {
	if err := misc.CheckExt(args[0], []string{sketch.Extension}); err != nil {
		return fmt.Errorf("%v does not look like a sketch (.msh)", args[0])
	}
	if err := misc.CheckFile(args[0]); err != nil {
		return err
	}
	if err := screen.ValidateMixtures(args[1:]); err != nil {
		return err
	}
	if args[1] == "-" {
		if err := misc.CheckSTDIN(); err != nil {
			return err
		}
	}
	if *identityMin < -1.0 || *identityMin > 1.0 {
		return fmt.Errorf("minimum identity must be between -1 and 1, got: %v", *identityMin)
	}
	if *pValueMax < 0.0 || *pValueMax > 1.0 {
		return fmt.Errorf("maximum p-value must be between 0 and 1, got: %v", *pValueMax)
	}
	if *minCov < 1 {
		return fmt.Errorf("minimum hash coverage must be at least 1, got: %v", *minCov)
	}
	if *proc < 1 {
		return fmt.Errorf("number of processors must be at least 1, got: %v", *proc)
	}
	return nil
}

/*
  The main function for the screen sub-command
*/
func runScreen(args []string) {
	// start profiling if requested
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}

	// check the parameters
	misc.ErrorCheck(screenParamCheck(args))
	log.Printf("this is SIFT (version %v)", version.GetVersion())

	// load the reference sketch
	log.Printf("loading %v...", args[0])
	querySketch, err := sketch.LoadSketch(args[0])
	misc.ErrorCheck(err)
	log.Printf("\treferences: %d", len(querySketch.References))

	// set up the screener
	screener := screen.NewScreener(&screen.Config{
		Sketch:         querySketch,
		Mixtures:       args[1:],
		NumProc:        *proc,
		WinnerTakesAll: *winnerTakesAll,
		IdentityMin:    *identityMin,
		PValueMax:      *pValueMax,
		MinCov:         uint32(*minCov),
	})
	log.Printf("\tdistinct hashes: %d", screener.GetRefIndex().Distinct())

	// stream the mixtures and write the report
	misc.ErrorCheck(screener.Run(os.Stdout))
	log.Printf("finished %v", misc.PrintMemUsage())
}
