// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package myers

import (
	"github.com/grailbio/base/log"
)

// strongReduceInterval controls how often the band is trimmed with exact
// per-cell scores instead of the cheap bottom-cell bound.  The exact trim
// costs a word-length scan per block, so it runs on a sparse schedule.
const strongReduceInterval = 2048

// searchSemiGlobal runs the banded bit-vector search for the modes whose
// leading query gap is free (HW, SHW, OV).  Row 0 of every column starts at
// zero, so the horizontal delta entering the top block is always 0 and the
// band is anchored at block 0 for the whole pass.
//
// It returns the best score <= k and the ascending target columns achieving
// it, or (-1, nil) when no column qualifies.  When tr is non-nil every
// computed column is recorded for traceback.
//
// scanLastCol must be set only when target's final column is the true end of
// the full target: interior cells of that column are eligible alignment ends
// under free target gaps, but not when the search covers a prefix ending at
// a column that is interior in the full target (the traceback replay does
// exactly that).
func searchSemiGlobal(peq [][]uint64, pad, numBlocks, queryLen int, target []byte, k int, traits modeTraits, scanLastCol bool, tr *columnTrace) (int, []int) {
	if k > queryLen+len(target) {
		// Unbounded thresholds would activate blocks with no chance of
		// improving any score.  Callers clamp before invoking the engine.
		log.Panicf("myers: threshold %d exceeds combined sequence length %d", k, queryLen+len(target))
	}
	blocks := make([]block, numBlocks)
	lastBlock := 0
	if traits.freeTargetGaps {
		// Column 0 is free: every block starts at score 0 with flat deltas,
		// and the whole band is live.
		lastBlock = numBlocks - 1
	} else {
		lastBlock = minInt(ceilDiv(k+1, wordSize), numBlocks) - 1
		for b := 0; b <= lastBlock; b++ {
			blocks[b] = block{p: ^uint64(0), m: 0, score: (b + 1) * wordSize}
		}
	}

	bestScore := -1
	var positions []int
	for c := 0; c < len(target); c++ {
		eq := peq[target[c]]

		hout := 0
		for b := 0; b <= lastBlock; b++ {
			var h int
			blocks[b].p, blocks[b].m, h = stepBlock(blocks[b].p, blocks[b].m, eq[b], hout)
			blocks[b].score += h
			hout = h
		}

		// Ukkonen: grow the band one block when the boundary score still fits
		// under k and the next block can extend a path (its top row matches,
		// or the carry is negative).  Otherwise trim blocks whose bottom cell
		// proves every cell above it exceeds k.
		if lastBlock < numBlocks-1 && blocks[lastBlock].score-hout <= k &&
			(eq[lastBlock+1]&1 != 0 || hout < 0) {
			lastBlock++
			prev := blocks[lastBlock-1].score - hout
			blocks[lastBlock] = block{p: ^uint64(0), m: 0}
			var h int
			blocks[lastBlock].p, blocks[lastBlock].m, h = stepBlock(blocks[lastBlock].p, blocks[lastBlock].m, eq[lastBlock], hout)
			blocks[lastBlock].score = prev + wordSize + h
		} else {
			for lastBlock >= 0 && blocks[lastBlock].score >= k+wordSize {
				lastBlock--
			}
		}
		if c%strongReduceInterval == 0 {
			for lastBlock >= 0 && blocks[lastBlock].allCellsLarger(k) {
				lastBlock--
			}
		}
		// Row 0 restarts at zero in every column, so block 0 can hold a new
		// solution in a later column no matter how bad this one was.  The
		// band therefore never dies before the final column.
		if lastBlock < 0 {
			lastBlock = 0
		}

		if tr != nil {
			tr.save(c, blocks, 0, lastBlock)
		}

		if lastBlock == numBlocks-1 && (traits.freeQueryEnd || c == len(target)-1) {
			colScore := blocks[lastBlock].cell(pad)
			if colScore <= k && (bestScore == -1 || colScore <= bestScore) {
				if colScore != bestScore {
					positions = positions[:0]
					bestScore = colScore
					// Only equal or better scores matter from here on.
					k = colScore
				}
				positions = append(positions, c)
			}
		}
	}

	// Overlap mode also accepts ends inside the final column: any row there
	// may close the alignment with the target's trailing gap free.  Row 0 is
	// excluded, it would stand for an empty alignment.
	if traits.freeTargetGaps && scanLastCol && len(target) > 0 {
		lastCol := len(target) - 1
		for b := 0; b <= lastBlock; b++ {
			cells := blocks[b].cells()
			bottomRow := (b + 1) * wordSize // edit-matrix row of cells[0]
			for n := range cells {
				row := bottomRow - n
				if row > queryLen || row < 1 {
					continue
				}
				if row == queryLen {
					continue // already covered by the last-row scan
				}
				if s := cells[n]; s <= k && (bestScore == -1 || s <= bestScore) {
					if s != bestScore {
						positions = positions[:0]
						bestScore = s
						k = s
					}
					if len(positions) == 0 || positions[len(positions)-1] != lastCol {
						positions = append(positions, lastCol)
					}
				}
			}
		}
	}

	return bestScore, positions
}
