package screen

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/sift-bio/sift/src/hashing"
	"github.com/sift-bio/sift/src/minhash"
	"github.com/sift-bio/sift/src/sketch"
)

///////////////////////////////////////////////////////////////////////////////////////////////

/*
TEST DATA

The end-to-end fixtures use a tiny sketch space: k = 3, seed = 42, 32-bit
hashes, ACGT alphabet, 5 hashes per signature. The mixture sequence is
palindromic in canonical k-mer space: it holds exactly 5 distinct canonical
3-mers, each observed twice.
*/

var (
	testKmerSize   = 3
	testSeed       = uint32(42)
	testSketchSize = 5
	mixtureSeq     = "AAACCCGGGTTT"

	// hashes above 2^32 can never be produced by the 32-bit hasher
	absentHashes = []uint64{1 << 33, 1 << 34, 1 << 35, 1 << 36, 1 << 37}
)

// signatureOf returns the bottom-k signature of a nucleotide sequence
func signatureOf(seq string) []uint64 {
	params := hashing.NewParameters(testKmerSize, false, testSeed, false, false, false, sketch.AlphabetNucleotide)
	sig := minhash.NewMinHashHeap(false, testSketchSize, nil)
	hashing.ProcessChunk([]byte(seq), params, sig, nil)
	return sig.ToSortedList()
}

// nucTestSketch wraps references in a sketch using the test settings
func nucTestSketch(refs ...*sketch.Reference) *sketch.Sketch {
	sk := sketch.NewSketch(testKmerSize, testSketchSize, testSeed, false, false, false, sketch.AlphabetNucleotide)
	sk.References = append(sk.References, refs...)
	return sk
}

// writeFasta drops a FASTA fixture into a directory and returns its path
func writeFasta(t *testing.T, dir, name string, seqs ...string) string {
	var b bytes.Buffer
	for i, seq := range seqs {
		fmt.Fprintf(&b, ">record%d\n%v\n", i, seq)
	}
	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, b.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runScreen runs a screener and captures its report
func runScreen(conf *Config) (string, error) {
	var buf bytes.Buffer
	err := NewScreener(conf).Run(&buf)
	return buf.String(), err
}

// reportLines splits a report into its non-empty lines
func reportLines(report string) []string {
	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}

// fieldsOf splits one report line into its 6 tab-separated fields
func fieldsOf(t *testing.T, line string) []string {
	fields := strings.Split(line, "\t")
	if len(fields) != 6 {
		t.Fatalf("report line should have 6 fields, got %d: %v", len(fields), line)
	}
	return fields
}

func tmpDir(t *testing.T) string {
	tmp, err := ioutil.TempDir("", "sift-screen-test")
	if err != nil {
		t.Fatal(err)
	}
	return tmp
}

///////////////////////////////////////////////////////////////////////////////////////////////

// a reference fully contained in the mixture scores identity 1.0
func TestContainedReference(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	sig := signatureOf(mixtureSeq)
	if len(sig) != testSketchSize {
		t.Fatalf("fixture should yield a full signature, got %d hashes", len(sig))
	}
	conf := &Config{
		Sketch:      nucTestSketch(&sketch.Reference{Name: "R1", Comment: "test ref", Length: uint64(len(mixtureSeq)), Hashes: sig}),
		Mixtures:    []string{writeFasta(t, tmp, "mix.fna", mixtureSeq)},
		NumProc:     1,
		IdentityMin: 0.0,
		PValueMax:   1.0,
		MinCov:      1,
	}
	report, err := runScreen(conf)
	if err != nil {
		t.Fatal(err)
	}
	lines := reportLines(report)
	if len(lines) != 1 {
		t.Fatalf("expected 1 report line, got %d", len(lines))
	}
	fields := fieldsOf(t, lines[0])
	if fields[0] != "1" {
		t.Fatalf("expected identity 1, got %v", fields[0])
	}
	if fields[1] != "5/5" {
		t.Fatalf("expected 5/5 shared hashes, got %v", fields[1])
	}
	// every canonical 3-mer of the mixture occurs exactly twice
	if fields[2] != "2" {
		t.Fatalf("expected a median multiplicity of 2, got %v", fields[2])
	}
	pValue, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		t.Fatal(err)
	}
	if pValue < 0 || pValue > 0.05 {
		t.Fatalf("expected a small p-value for a fully contained reference, got %v", pValue)
	}
	if fields[4] != "R1" || fields[5] != "test ref" {
		t.Fatalf("unexpected name/comment fields: %v %v", fields[4], fields[5])
	}
}

// a mixture with no valid k-mers produces a warning and an empty report
func TestEmptyMixture(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	conf := &Config{
		Sketch:      nucTestSketch(&sketch.Reference{Name: "R1", Length: 12, Hashes: signatureOf(mixtureSeq)}),
		Mixtures:    []string{writeFasta(t, tmp, "mix.fna", "N")},
		NumProc:     1,
		IdentityMin: 0.0,
		PValueMax:   1.0,
		MinCov:      1,
	}
	report, err := runScreen(conf)
	if err != nil {
		t.Fatal(err)
	}
	if len(reportLines(report)) != 0 {
		t.Fatalf("expected an empty report, got: %v", report)
	}
}

// zero sequence records is a fatal condition
func TestZeroRecords(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	emptyFile := filepath.Join(tmp, "empty.fna")
	if err := ioutil.WriteFile(emptyFile, nil, 0644); err != nil {
		t.Fatal(err)
	}
	conf := &Config{
		Sketch:      nucTestSketch(&sketch.Reference{Name: "R1", Length: 12, Hashes: signatureOf(mixtureSeq)}),
		Mixtures:    []string{emptyFile},
		NumProc:     1,
		IdentityMin: 0.0,
		PValueMax:   1.0,
		MinCov:      1,
	}
	if _, err := runScreen(conf); err == nil {
		t.Fatal("a mixture with no records should be an error")
	}
}

// two references sharing hashes both score without reallocation; with
// winner-takes-all the weaker reference loses its shared hashes
func TestWinnerTakesAll(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	sig1 := signatureOf(mixtureSeq)
	sig2 := append(append([]uint64{}, sig1[:3]...), absentHashes[0], absentHashes[1])
	refs := []*sketch.Reference{
		{Name: "R1", Length: 12, Hashes: sig1},
		{Name: "R2", Length: 10, Hashes: sig2},
	}
	mixture := writeFasta(t, tmp, "mix.fna", mixtureSeq)

	conf := &Config{
		Sketch:      nucTestSketch(refs...),
		Mixtures:    []string{mixture},
		NumProc:     1,
		IdentityMin: 0.0,
		PValueMax:   1.0,
		MinCov:      1,
	}
	report, err := runScreen(conf)
	if err != nil {
		t.Fatal(err)
	}
	lines := reportLines(report)
	if len(lines) != 2 {
		t.Fatalf("expected both references to be reported, got %d lines", len(lines))
	}
	r2fields := fieldsOf(t, lines[1])
	if r2fields[1] != "3/5" {
		t.Fatalf("expected R2 to share 3/5 hashes, got %v", r2fields[1])
	}
	r2identity, err := strconv.ParseFloat(r2fields[0], 64)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r2identity-math.Pow(0.6, 1.0/3.0)) > 1e-9 {
		t.Fatalf("unexpected R2 identity: %v", r2identity)
	}

	// rerun with reallocation: R1 scores higher, so it wins every shared hash
	conf.WinnerTakesAll = true
	report, err = runScreen(conf)
	if err != nil {
		t.Fatal(err)
	}
	lines = reportLines(report)
	if len(lines) != 1 {
		t.Fatalf("expected only the winner to be reported, got %d lines", len(lines))
	}
	r1fields := fieldsOf(t, lines[0])
	if r1fields[4] != "R1" || r1fields[1] != "5/5" {
		t.Fatalf("expected R1 to win all 5 hashes, got: %v", lines[0])
	}
}

// reallocation ties break by larger reference length, then to the last reference in the bucket
func TestWinnerTieBreaks(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	sig := signatureOf(mixtureSeq)
	mixture := writeFasta(t, tmp, "mix.fna", mixtureSeq)

	run := func(lengthA, lengthB uint64) []string {
		conf := &Config{
			Sketch: nucTestSketch(
				&sketch.Reference{Name: "A", Length: lengthA, Hashes: sig},
				&sketch.Reference{Name: "B", Length: lengthB, Hashes: sig},
			),
			Mixtures:       []string{mixture},
			NumProc:        1,
			WinnerTakesAll: true,
			IdentityMin:    0.0,
			PValueMax:      1.0,
			MinCov:         1,
		}
		report, err := runScreen(conf)
		if err != nil {
			t.Fatal(err)
		}
		return reportLines(report)
	}

	// equal scores: the longer reference wins
	lines := run(20, 10)
	if len(lines) != 1 || fieldsOf(t, lines[0])[4] != "A" {
		t.Fatalf("expected the longer reference to win, got: %v", lines)
	}

	// equal scores and equal lengths: the last reference in the bucket wins
	lines = run(10, 10)
	if len(lines) != 1 || fieldsOf(t, lines[0])[4] != "B" {
		t.Fatalf("expected the full tie to resolve to the last reference, got: %v", lines)
	}
}

// with a negative identity floor, references with no shared hashes still appear
func TestShowAll(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	conf := &Config{
		Sketch:      nucTestSketch(&sketch.Reference{Name: "R1", Length: 12, Hashes: absentHashes}),
		Mixtures:    []string{writeFasta(t, tmp, "mix.fna", mixtureSeq)},
		NumProc:     1,
		IdentityMin: -1.0,
		PValueMax:   1.0,
		MinCov:      1,
	}
	report, err := runScreen(conf)
	if err != nil {
		t.Fatal(err)
	}
	lines := reportLines(report)
	if len(lines) != 1 {
		t.Fatalf("expected the unmatched reference to be reported, got %d lines", len(lines))
	}
	fields := fieldsOf(t, lines[0])
	if fields[0] != "0" || fields[1] != "0/5" || fields[2] != "0" || fields[3] != "1" {
		t.Fatalf("expected identity 0, 0/5 shared, median 0 and p-value 1, got: %v", lines[0])
	}
}

// a protein sketch triggers 6-frame translation of the nucleotide mixture
func TestProteinScreen(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	// build a mixture whose reverse strand frame 2 translates to AAAAAAAA
	rcSeq := "CC" + strings.Repeat("GCT", 8)
	dna := hashing.ReverseComplement([]byte(rcSeq))
	peptide := hashing.Translate(hashing.ReverseComplement(dna)[2:])
	if string(peptide) != "AAAAAAAA" {
		t.Fatalf("fixture broke: expected AAAAAAAA, got %v", string(peptide))
	}

	// sketch the peptide directly
	params := hashing.NewParameters(testKmerSize, false, testSeed, true, false, false, sketch.AlphabetProtein)
	sig := minhash.NewMinHashHeap(false, testSketchSize, nil)
	hashing.ProcessChunk(append([]byte(nil), peptide...), params, sig, nil)
	if sig.Cardinality() == 0 {
		t.Fatal("fixture broke: peptide yielded no hashes")
	}

	proteinSketch := sketch.NewSketch(testKmerSize, testSketchSize, testSeed, false, true, false, sketch.AlphabetProtein)
	proteinSketch.AddReference("P1", "", uint64(len(peptide)), sig.ToSortedList())

	conf := &Config{
		Sketch:      proteinSketch,
		Mixtures:    []string{writeFasta(t, tmp, "mix.fna", string(dna))},
		NumProc:     1,
		IdentityMin: 0.0,
		PValueMax:   1.0,
		MinCov:      1,
	}
	report, err := runScreen(conf)
	if err != nil {
		t.Fatal(err)
	}
	lines := reportLines(report)
	if len(lines) != 1 {
		t.Fatalf("expected the translated match to be reported, got %d lines", len(lines))
	}
	fields := fieldsOf(t, lines[0])
	if fields[0] != "1" || fields[1] != fmt.Sprintf("%d/%d", sig.Cardinality(), sig.Cardinality()) {
		t.Fatalf("expected a fully contained translated reference, got: %v", lines[0])
	}
}

// the hash multiplicity counters and median respond to mixture depth
func TestMedianMultiplicity(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	conf := &Config{
		Sketch:      nucTestSketch(&sketch.Reference{Name: "R1", Length: 12, Hashes: signatureOf(mixtureSeq)}),
		Mixtures:    []string{writeFasta(t, tmp, "mix.fna", mixtureSeq, mixtureSeq)},
		NumProc:     1,
		IdentityMin: 0.0,
		PValueMax:   1.0,
		MinCov:      1,
	}
	report, err := runScreen(conf)
	if err != nil {
		t.Fatal(err)
	}
	lines := reportLines(report)
	if len(lines) != 1 {
		t.Fatalf("expected 1 report line, got %d", len(lines))
	}
	if fields := fieldsOf(t, lines[0]); fields[2] != "4" {
		t.Fatalf("expected a median multiplicity of 4 from the doubled mixture, got %v", fields[2])
	}
}

// hashes below the observation threshold do not count as shared
func TestMinCov(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	conf := &Config{
		Sketch:      nucTestSketch(&sketch.Reference{Name: "R1", Length: 12, Hashes: signatureOf(mixtureSeq)}),
		Mixtures:    []string{writeFasta(t, tmp, "mix.fna", mixtureSeq)},
		NumProc:     1,
		IdentityMin: 0.0,
		PValueMax:   1.0,
		MinCov:      3,
	}
	report, err := runScreen(conf)
	if err != nil {
		t.Fatal(err)
	}
	if len(reportLines(report)) != 0 {
		t.Fatalf("every hash is observed twice, so minCov 3 should empty the report, got: %v", report)
	}
}

// STDIN is only legal as the first mixture
func TestValidateMixtures(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)
	mixture := writeFasta(t, tmp, "mix.fna", mixtureSeq)

	if err := ValidateMixtures([]string{"-"}); err != nil {
		t.Fatalf("STDIN as the first mixture should be legal: %v", err)
	}
	if err := ValidateMixtures([]string{mixture, "-"}); err == nil {
		t.Fatal("STDIN as a later mixture should be rejected")
	}
	if err := ValidateMixtures([]string{}); err == nil {
		t.Fatal("an empty mixture list should be rejected")
	}
	if err := ValidateMixtures([]string{filepath.Join(tmp, "missing.fna")}); err == nil {
		t.Fatal("a missing mixture file should be rejected")
	}
}

// the report must be byte-identical regardless of worker count
func TestDeterminism(t *testing.T) {
	tmp := tmpDir(t)
	defer os.RemoveAll(tmp)

	sig1 := signatureOf(mixtureSeq)
	sig2 := append(append([]uint64{}, sig1[:3]...), absentHashes[0], absentHashes[1])
	seqs := make([]string, 50)
	for i := range seqs {
		seqs[i] = mixtureSeq
	}
	mixture := writeFasta(t, tmp, "mix.fna", seqs...)

	run := func(numProc int) string {
		conf := &Config{
			Sketch: nucTestSketch(
				&sketch.Reference{Name: "R1", Length: 12, Hashes: sig1},
				&sketch.Reference{Name: "R2", Length: 10, Hashes: sig2},
			),
			Mixtures:    []string{mixture},
			NumProc:     numProc,
			IdentityMin: -1.0,
			PValueMax:   1.0,
			MinCov:      1,
		}
		report, err := runScreen(conf)
		if err != nil {
			t.Fatal(err)
		}
		return report
	}

	serial := run(1)
	for _, numProc := range []int{2, 4} {
		if parallel := run(numProc); parallel != serial {
			t.Fatalf("report changed with %d workers:\n%v\nvs\n%v", numProc, parallel, serial)
		}
	}
	if serial != run(1) {
		t.Fatal("report changed between identical runs")
	}
}
