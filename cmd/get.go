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
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/mholt/archiver"
	"github.com/spf13/cobra"
)

// available reference sketch databases to download
var availDb = []string{"refseq-viral", "refseq-fungal", "card-amr"}
var availK = []string{"21"}
var md5sums = map[string]string{
	"refseq-viral.21":  "1c8f4c2a62a52f1b9cf5a2e4a91d73b4",
	"refseq-fungal.21": "7be2ce1f0d4c99a1d28a752b6da4cb86",
	"card-amr.21":      "40c08ab7e5b1f1a97d31e05be58e4721",
}

// url to download databases from
var dbUrl = "https://github.com/sift-bio/sift-db/raw/master/sketches/"

// the command line arguments
var (
	database *string // the database to download
	dbKmer   *string // the k-mer size the database was sketched at
	dbDir    *string // the location to store the database
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Download a pre-built reference sketch database",
	Long:  `Download a pre-built reference sketch database`,
	Run: func(cmd *cobra.Command, args []string) {
		runGet()
	},
}

func init() {
	RootCmd.AddCommand(getCmd)
	database = getCmd.Flags().StringP("database", "d", "refseq-viral", "database to download (please choose: refseq-viral/refseq-fungal/card-amr)")
	dbKmer = getCmd.Flags().StringP("kmerSize", "k", "21", "the k-mer size the database was sketched at (only 21 available atm)")
	dbDir = getCmd.PersistentFlags().StringP("out", "o", ".", "directory to save the database to")
}

/*
  A function to check user supplied parameters
*/
func getParamCheck() error {
	// check requested db exists in sift records
	checkPass := false
	for _, avail := range availDb {
		if *database == avail {
			checkPass = true
		}
	}
	if checkPass == false {
		return fmt.Errorf("unrecognised DB: %v\n\nplease choose either: refseq-viral/refseq-fungal/card-amr", *database)
	}
	checkPass = false
	for _, avail := range availK {
		if *dbKmer == avail {
			checkPass = true
		}
	}
	if checkPass == false {
		return fmt.Errorf("k-mer size not available: %v\n\nplease choose either: 21, ", *dbKmer)
	}
	// setup the dbDir
	if _, err := os.Stat(*dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(*dbDir, 0700); err != nil {
			return fmt.Errorf("directory creation failed: %v\n\ncan't create specified output directory for the database", *dbDir)
		}
	}
	return nil
}

/*
  A function to download the database tarball
*/
func DownloadFile(savePath string, url string) error {
	outFile, err := os.Create(savePath)
	if err != nil {
		return err
	}
	defer outFile.Close()
	response, err := http.Get(url)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	_, err = io.Copy(outFile, response.Body)
	if err != nil {
		return err
	}
	return nil
}

/*
  A function to calculate md5
*/
func getMD5(savePath string) error {
	var dbMD5 string
	file, err := os.Open(savePath)
	if err != nil {
		return err
	}
	defer file.Close()
	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return err
	}
	hashInBytes := hash.Sum(nil)[:16]
	dbMD5 = hex.EncodeToString(hashInBytes)
	lookup := fmt.Sprintf("%v.%v", *database, *dbKmer)
	if dbMD5 != md5sums[lookup] {
		return errors.New("md5sum for downloaded tarball did not match record")
	}
	return nil
}

/*
  The main function for the get sub-command
*/
func runGet() {
	if err := getParamCheck(); err != nil {
		fmt.Println("could not run sift get...")
		fmt.Println(err)
		os.Exit(1)
	}

	// download the db
	fmt.Printf("downloading the pre-built %v sketch database...\n", *database)
	dbFile := fmt.Sprintf("%v.%v.tar", *database, *dbKmer)
	dbUrl += dbFile
	dbSave := fmt.Sprintf("%v/%v", *dbDir, dbFile)
	if err := DownloadFile(dbSave, dbUrl); err != nil {
		fmt.Println("could not download the tarball")
		fmt.Println(err)
		os.Exit(1)
	}
	// unpack the db
	fmt.Println("unpacking...")
	if err := getMD5(dbSave); err != nil {
		fmt.Println("could not unpack the tarball")
		fmt.Println(err)
		os.Exit(1)
	}
	if err := archiver.DefaultTar.Unarchive(dbSave, *dbDir); err != nil {
		fmt.Println("could not unpack the tarball")
		fmt.Println(err)
		os.Exit(1)
	}
	// finished
	if err := os.Remove(dbSave); err != nil {
		fmt.Println("could not cleanup...")
		fmt.Println(err)
		os.Exit(1)
	}
	dbSave = fmt.Sprintf("%v/%v.%v.msh", *dbDir, *database, *dbKmer)
	fmt.Printf("database saved to: %v\n", dbSave)
	fmt.Printf("now run `sift screen %v <mixture>` or `sift screen --help` for full options\n", dbSave)
}
