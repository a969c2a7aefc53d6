// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package myers

import (
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Opts configures a single Align call.
type Opts struct {
	// AlphabetLen bounds the sequence values: every query and target element
	// must be in [0, AlphabetLen).
	AlphabetLen int
	// K bounds the reported score: only alignments scoring <= K are found,
	// and smaller K is faster.  A negative K grows the threshold
	// automatically until the exact best score is found.
	K int
	// Mode selects the boundary conditions, see Mode.
	Mode Mode
	// FindAlignment requests reconstruction of the edit operations for the
	// first reported end position.  Reconstruction costs extra time and
	// memory proportional to the searched area.
	FindAlignment bool
}

// DefaultOpts aligns over a nucleotide-sized alphabet with an unbounded
// score.
var DefaultOpts = Opts{
	AlphabetLen: 4,
	K:           -1,
	Mode:        ModeNW,
}

// Result holds the outcome of an Align call.  All slices are freshly
// allocated and owned by the caller.
type Result struct {
	// Score is the best edit distance found, or -1 when no score <= K
	// exists.  The latter is a normal outcome, not an error.
	Score int
	// Positions lists the zero-based target columns where the query ends
	// with the best score, in ascending order.  When the target is empty the
	// single position is -1.
	Positions []int
	// Alignment holds the edit operations for Positions[0], from the start
	// of the query to its end.  Gaps that are free under the mode are not
	// included.  Set only when requested and a score was found.
	Alignment []EditOp
}

// Align computes the edit distance between query and target under the given
// options.  Sequences are arrays of alphabet indices and are not modified.
func Align(query, target []byte, opts Opts) (Result, error) {
	if !opts.Mode.valid() {
		return Result{}, errors.Errorf("invalid alignment mode %d", int(opts.Mode))
	}
	if opts.AlphabetLen < 1 {
		return Result{}, errors.Errorf("alphabet length must be positive, got %d", opts.AlphabetLen)
	}
	if err := checkSymbols(query, opts.AlphabetLen, "query"); err != nil {
		return Result{}, err
	}
	if err := checkSymbols(target, opts.AlphabetLen, "target"); err != nil {
		return Result{}, err
	}

	if len(query) == 0 || len(target) == 0 {
		return alignDegenerate(query, target, opts), nil
	}

	numBlocks := ceilDiv(len(query), wordSize)
	pad := numBlocks*wordSize - len(query)
	peq := buildPeq(query, opts.AlphabetLen, numBlocks)
	traits := opts.Mode.traits()

	search := func(k int, tgt []byte, tr *columnTrace) (int, []int) {
		if opts.Mode == ModeNW {
			score, pos := searchNW(peq, pad, numBlocks, len(query), tgt, k, tr)
			if score < 0 {
				return -1, nil
			}
			return score, []int{pos}
		}
		// Interior cells of tgt's final column only end alignments when that
		// column is the true target end; the traceback replay may search a
		// shorter prefix, whose last column ends at the last row only.
		return searchSemiGlobal(peq, pad, numBlocks, len(query), tgt, k, traits, len(tgt) == len(target), tr)
	}

	// Adaptive threshold: one pass when the caller bounded the score,
	// otherwise doubling from the length difference, which lower-bounds the
	// distance.  The true distance never exceeds the longer sequence, so the
	// last pass is run at that cap and must succeed.
	kLimit := len(query) + len(target)
	maxLen := maxInt(len(query), len(target))
	var score int
	var positions []int
	if opts.K >= 0 {
		score, positions = search(minInt(opts.K, kLimit), target, nil)
	} else {
		k := minInt(maxInt(wordSize, absInt(len(query)-len(target))), maxLen)
		for {
			score, positions = search(k, target, nil)
			if score >= 0 || k >= maxLen {
				break
			}
			k = minInt(2*k, maxLen)
		}
	}

	res := Result{Score: score, Positions: positions}
	if opts.FindAlignment && score >= 0 {
		endCol := positions[0]
		prefix := target[:endCol+1]
		tr := newColumnTrace(numBlocks, endCol+1)
		replayScore, _ := search(score, prefix, tr)
		if replayScore != score {
			log.Panicf("myers: replay over %d columns found score %d, want %d", endCol+1, replayScore, score)
		}
		v := &matrixView{trace: tr, traits: traits}
		endRow := len(query)
		if traits.freeTargetGaps && v.cell(endCol+1, endRow) != score {
			// The alignment ends inside the final column with the query's
			// trailing gap free.  Pick the deepest such row, so the
			// reconstruction stays deterministic.
			endRow = -1
			for r := len(query) - 1; r >= 1; r-- {
				if v.cell(endCol+1, r) == score {
					endRow = r
					break
				}
			}
			if endRow < 0 {
				log.Panicf("myers: no cell in column %d matches score %d", endCol, score)
			}
		}
		res.Alignment = walkAlignment(query, prefix, endRow, endCol, score, traits, tr)
	}
	return res, nil
}

func checkSymbols(seq []byte, alphabetLen int, name string) error {
	for i, s := range seq {
		if int(s) >= alphabetLen {
			return errors.Errorf("%s[%d] = %d is outside the alphabet of length %d", name, i, s, alphabetLen)
		}
	}
	return nil
}

// alignDegenerate resolves the empty-sequence cases directly from the mode
// table: the edit matrix collapses to its boundary row or column.
func alignDegenerate(query, target []byte, opts Opts) Result {
	traits := opts.Mode.traits()
	var score int
	var positions []int
	var alignment []EditOp

	switch {
	case len(target) == 0:
		// Only the boundary column remains.  The single end position is -1:
		// there is no target column for the query to end at.
		if traits.freeTargetGaps {
			score = 0
		} else {
			score = len(query)
			if opts.FindAlignment {
				for i := 0; i < len(query); i++ {
					alignment = append(alignment, OpInsertQuery)
				}
			}
		}
		positions = []int{-1}
	case traits.freeQueryStart:
		// Empty query, free leading gap: every eligible end scores 0.
		score = 0
		if traits.freeQueryEnd {
			positions = make([]int, len(target))
			for c := range positions {
				positions[c] = c
			}
		} else {
			positions = []int{len(target) - 1}
		}
	default:
		// Empty query under NW: the whole target is consumed by gaps.
		score = len(target)
		positions = []int{len(target) - 1}
		if opts.FindAlignment {
			for i := 0; i < len(target); i++ {
				alignment = append(alignment, OpInsertTarget)
			}
		}
	}

	if opts.K >= 0 && score > opts.K {
		return Result{Score: -1}
	}
	return Result{Score: score, Positions: positions, Alignment: alignment}
}
