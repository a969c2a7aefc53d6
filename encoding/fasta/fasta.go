// Package fasta reads FASTA-formatted sequence data.  A FASTA file holds a
// number of named sequences, each possibly wrapped over several lines:
//
// >read1
// ACGTAC
// GAGGAC
// >read2
// ACGT
//
// Sequence names are the stretch of characters immediately after '>' up to
// the first space; any text after the space is ignored, so '>read1 sampled
// from chr7' becomes 'read1'.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// maxLineSize bounds a single input line.  Unwrapped whole-chromosome
// sequences on one line are common enough to warrant a large cap.
const maxLineSize = 1024 * 1024 * 300 // 300 MB

// Record is one named sequence.
type Record struct {
	Name string
	Seq  string
}

// Read parses all records from r, in file order.  Duplicate names and
// records with empty sequences are errors, as is sequence data before the
// first header.
func Read(r io.Reader) ([]Record, error) {
	var (
		recs    []Record
		seen    = map[string]bool{}
		name    string
		started bool
		seq     strings.Builder
	)
	flush := func() error {
		if !started {
			return nil
		}
		if seq.Len() == 0 {
			return errors.Errorf("sequence %q is empty", name)
		}
		if seen[name] {
			return errors.Errorf("duplicate sequence name %q", name)
		}
		seen[name] = true
		recs = append(recs, Record{Name: name, Seq: seq.String()})
		seq.Reset()
		return nil
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			name = strings.SplitN(line[1:], " ", 2)[0]
			if name == "" {
				return nil, errors.New("malformed FASTA input: empty sequence name")
			}
			started = true
			continue
		}
		if !started {
			return nil, errors.New("malformed FASTA input: sequence data before the first header")
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA data")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("no FASTA records found")
	}
	return recs, nil
}
