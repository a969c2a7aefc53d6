// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package myers

import (
	"github.com/grailbio/base/log"
)

// searchNW runs the banded bit-vector search for global alignment.  Both
// boundaries are charged, so the band tracks the main diagonal: blocks are
// dropped from the top once their cells cannot reach the bottom-right corner
// within k, and added at the bottom while the corner remains reachable.  The
// threshold is also tightened on the fly from the completion bound of the
// band's bottom cell.
//
// It returns the exact distance and end column len(target)-1 when the
// distance is <= k, and (-1, -1) otherwise.  When tr is non-nil every
// computed column is recorded for traceback.
func searchNW(peq [][]uint64, pad, numBlocks, queryLen int, target []byte, k int, tr *columnTrace) (int, int) {
	targetLen := len(target)
	if k > queryLen+targetLen {
		log.Panicf("myers: threshold %d exceeds combined sequence length %d", k, queryLen+targetLen)
	}
	if k < absInt(targetLen-queryLen) {
		return -1, -1
	}
	k = minInt(k, maxInt(queryLen, targetLen))

	firstBlock := 0
	lastBlock := minInt(numBlocks, ceilDiv(minInt(k, (k+queryLen-targetLen)/2)+1, wordSize)) - 1
	blocks := make([]block, numBlocks)
	for b := 0; b <= lastBlock; b++ {
		blocks[b] = block{p: ^uint64(0), m: 0, score: (b + 1) * wordSize}
	}

	for c := 0; c < targetLen; c++ {
		eq := peq[target[c]]

		hout := 1
		for b := firstBlock; b <= lastBlock; b++ {
			var h int
			blocks[b].p, blocks[b].m, h = stepBlock(blocks[b].p, blocks[b].m, eq[b], hout)
			blocks[b].score += h
			hout = h
		}

		// Tighten k from the bottom cell's completion bound.  The last block
		// is padded, so the bound is offset by the pad size there.
		bound := blocks[lastBlock].score + maxInt(targetLen-c-1, queryLen-((1+lastBlock)*wordSize-1)-1)
		if lastBlock == numBlocks-1 {
			bound += pad
		}
		k = minInt(k, bound)

		// Grow the band downward while the corner is still reachable from the
		// next block within k.
		if lastBlock+1 < numBlocks &&
			!((lastBlock+1)*wordSize-1 > k-blocks[lastBlock].score+2*wordSize-2-targetLen+c+queryLen) {
			lastBlock++
			prev := blocks[lastBlock-1].score - hout
			blocks[lastBlock] = block{p: ^uint64(0), m: 0}
			var h int
			blocks[lastBlock].p, blocks[lastBlock].m, h = stepBlock(blocks[lastBlock].p, blocks[lastBlock].m, eq[lastBlock], hout)
			blocks[lastBlock].score = prev + wordSize + h
			hout = h
		}

		// Trim blocks that can no longer reach the corner within k.
		for lastBlock >= firstBlock &&
			(blocks[lastBlock].score >= k+wordSize ||
				(lastBlock+1)*wordSize-1 > k-blocks[lastBlock].score+2*wordSize-2-targetLen+c+queryLen+1) {
			lastBlock--
		}
		for firstBlock <= lastBlock &&
			(blocks[firstBlock].score >= k+wordSize ||
				(firstBlock+1)*wordSize-1 < blocks[firstBlock].score-k-targetLen+queryLen+c) {
			firstBlock++
		}

		if c%strongReduceInterval == 0 {
			for lastBlock >= firstBlock && nwBlockOutOfBand(blocks[lastBlock], lastBlock, numBlocks, pad, queryLen, targetLen, c, k) {
				lastBlock--
			}
			for firstBlock <= lastBlock && nwBlockOutOfBand(blocks[firstBlock], firstBlock, numBlocks, pad, queryLen, targetLen, c, k) {
				firstBlock++
			}
		}

		if lastBlock < firstBlock {
			return -1, -1
		}

		if tr != nil {
			tr.save(c, blocks, firstBlock, lastBlock)
		}
	}

	if lastBlock == numBlocks-1 {
		if best := blocks[lastBlock].cell(pad); best <= k {
			return best, targetLen - 1
		}
	}
	return -1, -1
}

// nwBlockOutOfBand reports whether every real cell of the block is proven
// unable to finish within k: any path through cell (r, c) still needs at
// least the row/column imbalance to reach the corner, so a cell survives only
// while its score plus that bound stays near k.
func nwBlockOutOfBand(bl block, blockIdx, numBlocks, pad, queryLen, targetLen, c, k int) bool {
	cells := bl.cells()
	numCells := wordSize
	if blockIdx == numBlocks-1 {
		numCells = wordSize - pad
	}
	// cells[wordSize-numCells .. wordSize-1] cover the block's real rows
	// bottom-up; r is the 0-based query row of the inspected cell.
	r := blockIdx*wordSize + numCells - 1
	for i := wordSize - numCells; i < wordSize; i++ {
		remaining := targetLen - c - 1 - (queryLen - 1 - r)
		if cells[i] <= k+remaining+1 {
			return false
		}
		r--
	}
	return true
}
