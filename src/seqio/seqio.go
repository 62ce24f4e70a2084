/*
	the seqio package decodes FASTA/FASTQ sequence streams (gzipped or not, files or STDIN) and multiplexes them for the screen pipeline
*/
package seqio

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/biogo/biogo/alphabet"
	bseqio "github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq/linear"
)

// Record is one decoded sequence record
type Record struct {
	Name string
	Seq  []byte
}

// Stream decodes sequence records from a single input
type Stream struct {
	path    string
	scanner *bseqio.Scanner
	closers []io.Closer
}

// OpenStream opens a sequence file (or STDIN when the path is "-"), sniffing
// gzip compression from the magic bytes and the record format from the first
// character ('>' FASTA, '@' FASTQ)
func OpenStream(path string, protein bool) (*Stream, error) {
	stream := &Stream{path: path}

	var raw io.Reader
	if path == "-" {
		raw = os.Stdin
	} else {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		stream.closers = append(stream.closers, fh)
		raw = fh
	}

	br := bufio.NewReader(raw)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			stream.Close()
			return nil, fmt.Errorf("could not read gzip stream %v: %v", path, err)
		}
		stream.closers = append(stream.closers, gz)
		br = bufio.NewReader(gz)
	}

	// an empty stream is legal; it just yields no records
	first, err := br.Peek(1)
	if err == io.EOF {
		return stream, nil
	}
	if err != nil {
		stream.Close()
		return nil, err
	}

	var alpha alphabet.Alphabet = alphabet.DNA
	if protein {
		alpha = alphabet.Protein
	}
	var reader bseqio.Reader
	switch first[0] {
	case '>':
		reader = fasta.NewReader(br, linear.NewSeq("", nil, alpha))
	case '@':
		reader = fastq.NewReader(br, linear.NewQSeq("", nil, alpha, alphabet.Sanger))
	default:
		stream.Close()
		return nil, fmt.Errorf("unrecognised sequence format in %v (expected FASTA or FASTQ)", path)
	}
	stream.scanner = bseqio.NewScanner(reader)
	return stream, nil
}

// Next returns the next record from the stream, or io.EOF once it is drained
func (Stream *Stream) Next() (*Record, error) {
	if Stream.scanner == nil {
		return nil, io.EOF
	}
	if !Stream.scanner.Next() {
		if err := Stream.scanner.Error(); err != nil && err != io.EOF {
			return nil, fmt.Errorf("could not decode %v: %v", Stream.path, err)
		}
		return nil, io.EOF
	}
	switch seq := Stream.scanner.Seq().(type) {
	case *linear.Seq:
		return &Record{Name: seq.Name(), Seq: alphabet.LettersToBytes(seq.Seq)}, nil
	case *linear.QSeq:
		b := make([]byte, len(seq.Seq))
		for i, ql := range seq.Seq {
			b[i] = byte(ql.L)
		}
		return &Record{Name: seq.Name(), Seq: b}, nil
	default:
		return nil, fmt.Errorf("could not decode %v: unexpected sequence type", Stream.path)
	}
}

// Close releases the underlying file handles
func (Stream *Stream) Close() error {
	var err error
	for i := len(Stream.closers) - 1; i >= 0; i-- {
		if cerr := Stream.closers[i].Close(); cerr != nil {
			err = cerr
		}
	}
	return err
}

// RoundRobin multiplexes several streams, yielding one record from each open
// stream in turn and dropping streams as they drain
type RoundRobin struct {
	streams []*Stream
	cur     int
}

// OpenAll opens every input ready for round robin reading
func OpenAll(paths []string, protein bool) (*RoundRobin, error) {
	rr := &RoundRobin{}
	for _, path := range paths {
		stream, err := OpenStream(path, protein)
		if err != nil {
			rr.Close()
			return nil, err
		}
		rr.streams = append(rr.streams, stream)
	}
	return rr, nil
}

// Next returns one record from the current stream and advances to the next
// stream; io.EOF signals that every stream is drained
func (RoundRobin *RoundRobin) Next() (*Record, error) {
	for len(RoundRobin.streams) > 0 {
		if RoundRobin.cur >= len(RoundRobin.streams) {
			RoundRobin.cur = 0
		}
		record, err := RoundRobin.streams[RoundRobin.cur].Next()
		if err == io.EOF {
			RoundRobin.streams[RoundRobin.cur].Close()
			RoundRobin.streams = append(RoundRobin.streams[:RoundRobin.cur], RoundRobin.streams[RoundRobin.cur+1:]...)
			continue
		}
		if err != nil {
			return nil, err
		}
		RoundRobin.cur++
		return record, nil
	}
	return nil, io.EOF
}

// Close releases any streams that have not been drained
func (RoundRobin *RoundRobin) Close() {
	for _, stream := range RoundRobin.streams {
		stream.Close()
	}
	RoundRobin.streams = nil
}
