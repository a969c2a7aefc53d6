// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package myers

const (
	wordSize = 64
	highBit  = uint64(1) << (wordSize - 1)
)

// block is the per-64-row state of one column of the edit matrix: the
// vertical delta bit-vectors of Myers' algorithm, plus the exact score of the
// block's bottom cell.  Bit i of p (m) is set when the score increases
// (decreases) from row i to row i+1 within the block.
type block struct {
	p, m  uint64
	score int
}

// stepBlock advances one block by one target column.  eq is the Peq word of
// the current target symbol for this block, hin is the horizontal delta
// entering the block's top-left corner (-1, 0 or +1).  It returns the updated
// bit-vectors and the horizontal delta leaving the block's bottom-right
// corner, which feeds the block below in the same column.
func stepBlock(p, m, eq uint64, hin int) (pOut, mOut uint64, hout int) {
	var hinNeg uint64
	if hin < 0 {
		hinNeg = 1
	}
	xv := eq | m
	eq |= hinNeg
	xh := (((eq & p) + p) ^ p) | eq

	ph := m | ^(xh | p)
	mh := p & xh

	if ph&highBit != 0 {
		hout++
	}
	if mh&highBit != 0 {
		hout--
	}
	ph <<= 1
	mh <<= 1
	mh |= hinNeg
	if hin > 0 {
		ph |= 1
	}

	pOut = mh | ^(xv | ph)
	mOut = ph & xv
	return pOut, mOut, hout
}

// cell returns the score of the cell n rows above the block's bottom cell,
// 0 <= n < wordSize, decoded from the delta bit-vectors.
func (b block) cell(n int) int {
	score := b.score
	mask := highBit
	for i := 0; i < n; i++ {
		if b.p&mask != 0 {
			score--
		}
		if b.m&mask != 0 {
			score++
		}
		mask >>= 1
	}
	return score
}

// cells returns the scores of all cells in the block, index 0 being the
// bottom cell and indices increasing upward.
func (b block) cells() [wordSize]int {
	var s [wordSize]int
	score := b.score
	mask := highBit
	for i := 0; i < wordSize-1; i++ {
		s[i] = score
		if b.p&mask != 0 {
			score--
		}
		if b.m&mask != 0 {
			score++
		}
		mask >>= 1
	}
	s[wordSize-1] = score
	return s
}

// allCellsLarger reports whether every cell of the block scores above k.
func (b block) allCellsLarger(k int) bool {
	score := b.score
	if score <= k {
		return false
	}
	mask := highBit
	for i := 0; i < wordSize-1; i++ {
		if b.p&mask != 0 {
			score--
		}
		if b.m&mask != 0 {
			score++
		}
		if score <= k {
			return false
		}
		mask >>= 1
	}
	return true
}

// buildPeq precomputes, for every alphabet symbol, the per-block bitmask of
// query positions holding that symbol.  The query is padded to a multiple of
// wordSize with wildcard rows that match every symbol; the padding keeps the
// final partial word from ever blocking a diagonal, and its effect is removed
// when scores are read out (see block.cell).
func buildPeq(query []byte, alphabetLen, numBlocks int) [][]uint64 {
	peq := make([][]uint64, alphabetLen)
	for s := range peq {
		peq[s] = make([]uint64, numBlocks)
		for b := 0; b < numBlocks; b++ {
			var w uint64
			for r := (b+1)*wordSize - 1; r >= b*wordSize; r-- {
				w <<= 1
				if r >= len(query) || query[r] == byte(s) {
					w |= 1
				}
			}
			peq[s][b] = w
		}
	}
	return peq
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
