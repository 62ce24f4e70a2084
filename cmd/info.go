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

	"github.com/spf13/cobra"

	"github.com/sift-bio/sift/src/misc"
	"github.com/sift-bio/sift/src/sketch"
)

// the info command (used by cobra)
var infoCmd = &cobra.Command{
	Use:   "info <sketch>.msh",
	Short: "Print the settings and references held in a sketch file",
	Long:  `Print the settings and references held in a sketch file`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runInfo(args[0])
	},
}

func init() {
	RootCmd.AddCommand(infoCmd)
}

/*
  The main function for the info sub-command
*/
func runInfo(path string) {
	misc.ErrorCheck(misc.CheckFile(path))
	loadedSketch, err := sketch.LoadSketch(path)
	misc.ErrorCheck(err)

	hashBits := 32
	if loadedSketch.Use64 {
		hashBits = 64
	}
	fmt.Printf("sketch file:\t%v\n", path)
	fmt.Printf("k-mer size:\t%d\n", loadedSketch.KmerSize)
	fmt.Printf("sketch size:\t%d\n", loadedSketch.SketchSize)
	fmt.Printf("hash:\t\tmurmur3 (%d-bit, seed %d)\n", hashBits, loadedSketch.HashSeed)
	fmt.Printf("alphabet:\t%v\n", loadedSketch.Alphabet)
	fmt.Printf("canonical:\t%v\n", !loadedSketch.Noncanonical)
	fmt.Printf("preserve case:\t%v\n", loadedSketch.PreserveCase)
	fmt.Printf("references:\t%d\n", len(loadedSketch.References))
	fmt.Printf("\n[hashes]\t[length]\t[name]\t[comment]\n")
	for _, ref := range loadedSketch.References {
		fmt.Printf("%d\t%d\t%v\t%v\n", len(ref.Hashes), ref.Length, ref.Name, ref.Comment)
	}
}
