// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package myers

import (
	"github.com/grailbio/base/log"
)

// infCost marks cells outside the banded window.  Such cells are known to
// score above the threshold, so the backward walk never enters them.
const infCost = int(^uint(0)>>1) / 2

// columnTrace retains the per-column block states of a search pass so the
// alignment can be reconstructed without materializing the full edit matrix.
// Only blocks inside [first[c], last[c]] hold meaningful state for column c.
type columnTrace struct {
	numBlocks int
	ps        [][]uint64
	ms        [][]uint64
	scores    [][]int
	first     []int
	last      []int
}

func newColumnTrace(numBlocks, numColumns int) *columnTrace {
	tr := &columnTrace{
		numBlocks: numBlocks,
		ps:        make([][]uint64, numColumns),
		ms:        make([][]uint64, numColumns),
		scores:    make([][]int, numColumns),
		first:     make([]int, numColumns),
		last:      make([]int, numColumns),
	}
	for c := range tr.ps {
		tr.ps[c] = make([]uint64, numBlocks)
		tr.ms[c] = make([]uint64, numBlocks)
		tr.scores[c] = make([]int, numBlocks)
	}
	return tr
}

func (tr *columnTrace) save(c int, blocks []block, first, last int) {
	for b := first; b <= last; b++ {
		tr.ps[c][b] = blocks[b].p
		tr.ms[c][b] = blocks[b].m
		tr.scores[c][b] = blocks[b].score
	}
	tr.first[c] = first
	tr.last[c] = last
}

// matrixView resolves (column, row) indices of the edit matrix against a
// recorded search pass.  Column 0 and row 0 are the boundary vectors defined
// by the mode; column j >= 1 maps to recorded target column j-1.
type matrixView struct {
	trace  *columnTrace
	traits modeTraits
}

// cell returns the score of edit-matrix cell (row i, column j), or infCost
// when the cell lies outside the recorded band.
func (v *matrixView) cell(j, i int) int {
	if i == 0 {
		if v.traits.freeQueryStart {
			return 0
		}
		return j
	}
	if j == 0 {
		if v.traits.freeTargetGaps {
			return 0
		}
		return i
	}
	c := j - 1
	b := (i - 1) / wordSize
	if b < v.trace.first[c] || b > v.trace.last[c] {
		return infCost
	}
	bl := block{p: v.trace.ps[c][b], m: v.trace.ms[c][b], score: v.trace.scores[c][b]}
	// The block's bottom cell is row (b+1)*wordSize; walk up to row i.
	return bl.cell((b+1)*wordSize - i)
}

// walkAlignment reconstructs the edit operations of an optimal path ending at
// edit-matrix cell (endRow, endCol+1) with the given score.  The walk is
// iterative and chooses predecessors in a fixed priority order (diagonal
// match, diagonal mismatch, vertical, horizontal), which makes the returned
// alignment deterministic when several optimal paths exist.  Free boundary
// gaps are not emitted.
func walkAlignment(query, target []byte, endRow, endCol, score int, traits modeTraits, tr *columnTrace) []EditOp {
	v := &matrixView{trace: tr, traits: traits}
	ops := make([]EditOp, 0, endRow+endCol+2)
	i, j := endRow, endCol+1
	cur := score
	for {
		if i == 0 {
			if !traits.freeQueryStart {
				for ; j > 0; j-- {
					ops = append(ops, OpInsertTarget)
				}
			}
			break
		}
		if j == 0 {
			if !traits.freeTargetGaps {
				for ; i > 0; i-- {
					ops = append(ops, OpInsertQuery)
				}
			}
			break
		}
		diag := v.cell(j-1, i-1)
		up := v.cell(j, i-1)
		left := v.cell(j-1, i)
		switch {
		case diag == cur && query[i-1] == target[j-1]:
			ops = append(ops, OpMatch)
			i, j, cur = i-1, j-1, diag
		case diag+1 == cur:
			ops = append(ops, OpMismatch)
			i, j, cur = i-1, j-1, diag
		case up+1 == cur:
			ops = append(ops, OpInsertQuery)
			i, cur = i-1, up
		case left+1 == cur:
			ops = append(ops, OpInsertTarget)
			j, cur = j-1, left
		default:
			log.Panicf("myers: no predecessor for cell (%d,%d) score %d (diag %d, up %d, left %d)",
				i, j, cur, diag, up, left)
		}
	}
	for a, b := 0, len(ops)-1; a < b; a, b = a+1, b-1 {
		ops[a], ops[b] = ops[b], ops[a]
	}
	return ops
}
