// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.
package main

/*
align-dist computes edit distances between every query and every target
sequence from two FASTA files and writes one TSV row per pair.
*/

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/grailbio/align/encoding/fasta"
	"github.com/grailbio/align/myers"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/base/vcontext"
	"github.com/pkg/errors"
)

var (
	modeFlag    = flag.String("mode", "NW", "Alignment mode: NW (global), HW (query infix of target), SHW (query prefix gap free), or OV (overlap)")
	kFlag       = flag.Int("k", -1, "Only report alignments with edit distance <= k; negative means unbounded. Small k is faster")
	cigarFlag   = flag.String("cigar", "", "Emit an alignment CIGAR column; '' (none), 'standard' (M/I/D) or 'extended' (=/X/I/D)")
	alphabet    = flag.String("alphabet", "", "Letters making up the sequences, e.g. ACGT. Empty derives the alphabet from the inputs")
	parallelism = flag.Int("parallelism", 0, "Maximum number of simultaneous alignment jobs; 0 = runtime.NumCPU()")
	outPath     = flag.String("out", "-", "Output TSV path; '-' writes to stdout, a .gz suffix compresses")
)

func alignDistUsage() {
	fmt.Printf("Usage: %s [OPTIONS] query.fasta target.fasta\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

// opts carries the parsed command line.
type opts struct {
	Mode        myers.Mode
	K           int
	Cigar       string
	Alphabet    string
	Parallelism int
}

// pairRow is one aligned (query, target) pair ready for output.
type pairRow struct {
	Query, Target string
	QLen, TLen    int
	Score         int
	Positions     []int
	Cigar         string
}

// alignRecords aligns every query against every target and returns the rows
// in (query, target) input order.
func alignRecords(queries, targets []fasta.Record, o opts) ([]pairRow, error) {
	var alpha *myers.Alphabet
	var err error
	if o.Alphabet != "" {
		alpha, err = myers.NewAlphabet(o.Alphabet)
	} else {
		var seqs []string
		for _, r := range queries {
			seqs = append(seqs, r.Seq)
		}
		for _, r := range targets {
			seqs = append(seqs, r.Seq)
		}
		alpha, err = myers.AlphabetFromSeqs(seqs...)
	}
	if err != nil {
		return nil, err
	}

	encode := func(recs []fasta.Record) ([][]byte, error) {
		seqs := make([][]byte, len(recs))
		for i, r := range recs {
			s, err := alpha.Encode(r.Seq)
			if err != nil {
				return nil, errors.Wrapf(err, "sequence %s", r.Name)
			}
			seqs[i] = s
		}
		return seqs, nil
	}
	qSeqs, err := encode(queries)
	if err != nil {
		return nil, err
	}
	tSeqs, err := encode(targets)
	if err != nil {
		return nil, err
	}

	aOpts := myers.Opts{
		AlphabetLen:   alpha.Len(),
		K:             o.K,
		Mode:          o.Mode,
		FindAlignment: o.Cigar != "",
	}
	nPairs := len(queries) * len(targets)
	rows := make([]pairRow, nPairs)
	jobs := o.Parallelism
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	if jobs > nPairs {
		jobs = nPairs
	}
	if nPairs == 0 {
		return rows, nil
	}
	err = traverse.Each(jobs, func(jobIdx int) error {
		for p := jobIdx; p < nPairs; p += jobs {
			qi, ti := p/len(targets), p%len(targets)
			res, err := myers.Align(qSeqs[qi], tSeqs[ti], aOpts)
			if err != nil {
				return errors.Wrapf(err, "aligning %s to %s", queries[qi].Name, targets[ti].Name)
			}
			row := pairRow{
				Query:     queries[qi].Name,
				Target:    targets[ti].Name,
				QLen:      len(qSeqs[qi]),
				TLen:      len(tSeqs[ti]),
				Score:     res.Score,
				Positions: res.Positions,
			}
			if res.Alignment != nil {
				var cigar string
				var err error
				if o.Cigar == "extended" {
					cigar, err = myers.CigarExtended(res.Alignment)
				} else {
					cigar, err = myers.Cigar(res.Alignment)
				}
				if err != nil {
					return err
				}
				row.Cigar = cigar
			}
			rows[p] = row
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// writeRows emits the TSV: one header line, then one line per pair.  A score
// of -1 marks pairs with no alignment within k; their positions column is
// empty.
func writeRows(w *tsv.Writer, rows []pairRow, withCigar bool) error {
	header := "#QUERY\tTARGET\tQLEN\tTLEN\tSCORE\tPOSITIONS"
	if withCigar {
		header += "\tCIGAR"
	}
	w.WriteString(header)
	if err := w.EndLine(); err != nil {
		return err
	}
	for _, row := range rows {
		w.WriteString(row.Query)
		w.WriteString(row.Target)
		w.WriteUint32(uint32(row.QLen))
		w.WriteUint32(uint32(row.TLen))
		w.WriteString(strconv.Itoa(row.Score))
		positions := make([]string, len(row.Positions))
		for i, p := range row.Positions {
			positions[i] = strconv.Itoa(p)
		}
		w.WriteString(strings.Join(positions, ","))
		if withCigar {
			w.WriteString(row.Cigar)
		}
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

func run(ctx context.Context, queryPath, targetPath, outPath string, o opts) error {
	queries, err := readFasta(ctx, queryPath)
	if err != nil {
		return errors.Wrapf(err, "reading %s", queryPath)
	}
	targets, err := readFasta(ctx, targetPath)
	if err != nil {
		return errors.Wrapf(err, "reading %s", targetPath)
	}
	rows, err := alignRecords(queries, targets, o)
	if err != nil {
		return err
	}
	out, err := createOutput(ctx, outPath)
	if err != nil {
		return err
	}
	if err := writeRows(tsv.NewWriter(out), rows, o.Cigar != ""); err != nil {
		_ = out.Close(ctx)
		return err
	}
	return out.Close(ctx)
}

func main() {
	flag.Usage = alignDistUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 2 {
		log.Fatalf("Expected exactly two positional arguments (query.fasta and target.fasta), got '%s'", strings.Join(flag.Args(), " "))
	}
	mode, err := myers.ParseMode(*modeFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	switch *cigarFlag {
	case "", "standard", "extended":
	default:
		log.Fatalf("Invalid -cigar value %q; want '', 'standard' or 'extended'", *cigarFlag)
	}
	ctx := vcontext.Background()
	o := opts{
		Mode:        mode,
		K:           *kFlag,
		Cigar:       *cigarFlag,
		Alphabet:    *alphabet,
		Parallelism: *parallelism,
	}
	if err := run(ctx, flag.Arg(0), flag.Arg(1), *outPath, o); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("exiting")
}
