// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package myers

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/antzucaro/matchr"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// naiveAlign is a full-matrix reference implementation of the banded engine:
// boundary vectors and end-cell eligibility come from the same mode table,
// but every cell is computed.
func naiveAlign(query, target []byte, mode Mode) (int, []int) {
	tr := mode.traits()
	q, t := len(query), len(target)
	d := make([][]int, q+1)
	for i := range d {
		d[i] = make([]int, t+1)
	}
	for j := 0; j <= t; j++ {
		if !tr.freeQueryStart {
			d[0][j] = j
		}
	}
	for i := 0; i <= q; i++ {
		if !tr.freeTargetGaps {
			d[i][0] = i
		} else {
			d[i][0] = 0
		}
	}
	for i := 1; i <= q; i++ {
		for j := 1; j <= t; j++ {
			cost := 1
			if query[i-1] == target[j-1] {
				cost = 0
			}
			best := d[i-1][j-1] + cost
			if v := d[i-1][j] + 1; v < best {
				best = v
			}
			if v := d[i][j-1] + 1; v < best {
				best = v
			}
			d[i][j] = best
		}
	}

	if t == 0 {
		score := d[q][0]
		return score, []int{-1}
	}
	bestScore := -1
	var positions []int
	consider := func(score, pos int) {
		if bestScore == -1 || score < bestScore {
			bestScore = score
			positions = []int{pos}
			return
		}
		if score == bestScore && (len(positions) == 0 || positions[len(positions)-1] != pos) {
			positions = append(positions, pos)
		}
	}
	if tr.freeQueryEnd {
		for j := 1; j <= t; j++ {
			consider(d[q][j], j-1)
		}
	} else {
		consider(d[q][t], t-1)
	}
	if tr.freeTargetGaps {
		for i := 1; i < q; i++ {
			consider(d[i][t], t-1)
		}
	}
	return bestScore, positions
}

// verifyAlignment replays an alignment against the sequences and checks that
// it reproduces the reported score, end column and boundary rules.
func verifyAlignment(t *testing.T, query, target []byte, mode Mode, score, endCol int, ops []EditOp) {
	t.Helper()
	tr := mode.traits()
	consumedQ, consumedT, cost := 0, 0, 0
	for _, op := range ops {
		switch op {
		case OpMatch:
			consumedQ++
			consumedT++
		case OpMismatch:
			consumedQ++
			consumedT++
			cost++
		case OpInsertQuery:
			consumedQ++
			cost++
		case OpInsertTarget:
			consumedT++
			cost++
		default:
			t.Fatalf("invalid op %d", op)
		}
	}
	require.Equal(t, score, cost, "alignment cost must equal the reported score")
	startT := endCol + 1 - consumedT
	require.True(t, startT >= 0, "alignment consumes more target than available")
	if !tr.freeQueryStart && !tr.freeTargetGaps {
		require.Equal(t, 0, startT, "global alignments start at the target start")
	}
	if !tr.freeTargetGaps {
		require.Equal(t, len(query), consumedQ, "alignment must consume the whole query")
	}

	// Overlap alignments may leave query characters unconsumed on either side,
	// as long as the skipped side touches a target boundary.  Try the feasible
	// start rows and require one of them to replay cleanly.
	replay := func(startQ int) bool {
		i, j := startQ, startT
		for _, op := range ops {
			switch op {
			case OpMatch:
				if query[i] != target[j] {
					return false
				}
				i, j = i+1, j+1
			case OpMismatch:
				if query[i] == target[j] {
					return false
				}
				i, j = i+1, j+1
			case OpInsertQuery:
				i++
			case OpInsertTarget:
				j++
			}
		}
		return j == endCol+1
	}
	seen := map[int]bool{}
	ok := false
	for _, startQ := range []int{0, len(query) - consumedQ} {
		if seen[startQ] || startQ < 0 {
			continue
		}
		seen[startQ] = true
		if startQ > 0 && startT != 0 {
			continue // leading query rows are only free against the target start
		}
		endRow := startQ + consumedQ
		if endRow < len(query) && !(tr.freeTargetGaps && endCol == len(target)-1) {
			continue
		}
		if replay(startQ) {
			ok = true
			break
		}
	}
	require.True(t, ok, "no feasible start row replays the alignment")
}

func randSeq(r *rand.Rand, n, alphabetLen int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = byte(r.Intn(alphabetLen))
	}
	return s
}

func TestHWScenario(t *testing.T) {
	// Alphabet ACTG: query "AACG", target "GATTCGG".
	query := []byte{0, 0, 1, 3}
	target := []byte{3, 0, 2, 2, 1, 3, 3}
	res, err := Align(query, target, Opts{AlphabetLen: 4, K: -1, Mode: ModeHW, FindAlignment: true})
	require.NoError(t, err)
	expect.EQ(t, res.Score, 2)
	expect.EQ(t, res.Positions, []int{5})
	verifyAlignment(t, query, target, ModeHW, res.Score, res.Positions[0], res.Alignment)
}

func TestIdenticalSequences(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 7, 64, 65, 200} {
		seq := randSeq(r, n, 4)
		for mode := Mode(0); mode < numModes; mode++ {
			res, err := Align(seq, seq, Opts{AlphabetLen: 4, K: -1, Mode: mode, FindAlignment: true})
			require.NoError(t, err)
			assert.Equal(t, 0, res.Score, "mode %v len %d", mode, n)
			assert.Contains(t, res.Positions, n-1, "mode %v len %d", mode, n)
			if mode == ModeNW {
				require.Len(t, res.Alignment, n)
				for _, op := range res.Alignment {
					assert.Equal(t, OpMatch, op)
				}
				cigar, err := Cigar(res.Alignment)
				require.NoError(t, err)
				assert.Equal(t, fmt.Sprintf("%dM", n), cigar)
			}
		}
	}
}

func TestEmptyTarget(t *testing.T) {
	query := []byte{0, 1, 2, 3, 0}
	res, err := Align(query, nil, Opts{AlphabetLen: 4, K: -1, Mode: ModeNW, FindAlignment: true})
	require.NoError(t, err)
	expect.EQ(t, res.Score, 5)
	expect.EQ(t, res.Positions, []int{-1})
	require.Len(t, res.Alignment, 5)
	for _, op := range res.Alignment {
		assert.Equal(t, OpInsertQuery, op)
	}

	// Overlap mode frees the query's gap entirely.
	res, err = Align(query, nil, Opts{AlphabetLen: 4, K: -1, Mode: ModeOV})
	require.NoError(t, err)
	expect.EQ(t, res.Score, 0)
}

func TestEmptyQuery(t *testing.T) {
	target := []byte{0, 1, 2}
	for _, tc := range []struct {
		mode      Mode
		score     int
		positions []int
	}{
		{ModeNW, 3, []int{2}},
		{ModeSHW, 0, []int{2}},
		{ModeHW, 0, []int{0, 1, 2}},
		{ModeOV, 0, []int{0, 1, 2}},
	} {
		res, err := Align(nil, target, Opts{AlphabetLen: 4, K: -1, Mode: tc.mode})
		require.NoError(t, err)
		assert.Equal(t, tc.score, res.Score, "mode %v", tc.mode)
		assert.Equal(t, tc.positions, res.Positions, "mode %v", tc.mode)
	}
}

func TestSmallKMisses(t *testing.T) {
	// Equal length, one differing position: distance 1, not found at k=0.
	query := []byte{0, 1, 2, 3}
	target := []byte{0, 1, 0, 3}
	res, err := Align(query, target, Opts{AlphabetLen: 4, K: 0, Mode: ModeNW, FindAlignment: true})
	require.NoError(t, err)
	expect.EQ(t, res.Score, -1)
	expect.EQ(t, len(res.Positions), 0)
	expect.EQ(t, len(res.Alignment), 0)

	res, err = Align(query, target, Opts{AlphabetLen: 4, K: 1, Mode: ModeNW})
	require.NoError(t, err)
	expect.EQ(t, res.Score, 1)
}

func TestInputValidation(t *testing.T) {
	_, err := Align([]byte{4}, []byte{0}, Opts{AlphabetLen: 4, K: -1, Mode: ModeNW})
	assert.Error(t, err)
	_, err = Align([]byte{0}, []byte{0}, Opts{AlphabetLen: 0, K: -1, Mode: ModeNW})
	assert.Error(t, err)
	_, err = Align([]byte{0}, []byte{0}, Opts{AlphabetLen: 4, K: -1, Mode: Mode(9)})
	assert.Error(t, err)
}

func TestNWMatchesReferences(t *testing.T) {
	const letters = "ACGT"
	r := rand.New(rand.NewSource(2))
	for iter := 0; iter < 200; iter++ {
		qLen := r.Intn(180)
		tLen := r.Intn(180)
		query := randSeq(r, qLen, 4)
		target := randSeq(r, tLen, 4)

		res, err := Align(query, target, Opts{AlphabetLen: 4, K: -1, Mode: ModeNW})
		require.NoError(t, err)
		wantScore, _ := naiveAlign(query, target, ModeNW)
		require.Equal(t, wantScore, res.Score, "iter %d: |q|=%d |t|=%d", iter, qLen, tLen)

		// Independent implementation: matchr operates on strings.
		qs := make([]byte, qLen)
		ts := make([]byte, tLen)
		for i, b := range query {
			qs[i] = letters[b]
		}
		for i, b := range target {
			ts[i] = letters[b]
		}
		require.Equal(t, matchr.Levenshtein(string(qs), string(ts)), res.Score, "iter %d", iter)

		// Distance is symmetric under NW.
		rev, err := Align(target, query, Opts{AlphabetLen: 4, K: -1, Mode: ModeNW})
		require.NoError(t, err)
		require.Equal(t, res.Score, rev.Score, "iter %d", iter)
	}
}

func TestAllModesMatchNaive(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for iter := 0; iter < 120; iter++ {
		alphabetLen := 2 + r.Intn(6)
		qLen := 1 + r.Intn(200)
		tLen := 1 + r.Intn(250)
		query := randSeq(r, qLen, alphabetLen)
		target := randSeq(r, tLen, alphabetLen)
		for mode := Mode(0); mode < numModes; mode++ {
			res, err := Align(query, target, Opts{AlphabetLen: alphabetLen, K: -1, Mode: mode, FindAlignment: true})
			require.NoError(t, err)
			wantScore, wantPositions := naiveAlign(query, target, mode)
			require.Equal(t, wantScore, res.Score, "iter %d mode %v |q|=%d |t|=%d", iter, mode, qLen, tLen)
			require.Equal(t, wantPositions, res.Positions, "iter %d mode %v", iter, mode)
			verifyAlignment(t, query, target, mode, res.Score, res.Positions[0], res.Alignment)
		}
	}
}

func TestBoundedKMatchesNaive(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	for iter := 0; iter < 120; iter++ {
		qLen := 1 + r.Intn(150)
		tLen := 1 + r.Intn(150)
		query := randSeq(r, qLen, 4)
		target := randSeq(r, tLen, 4)
		k := r.Intn(30)
		for mode := Mode(0); mode < numModes; mode++ {
			res, err := Align(query, target, Opts{AlphabetLen: 4, K: k, Mode: mode})
			require.NoError(t, err)
			wantScore, wantPositions := naiveAlign(query, target, mode)
			if wantScore > k {
				require.Equal(t, -1, res.Score, "iter %d mode %v k=%d", iter, mode, k)
				require.Empty(t, res.Positions)
			} else {
				require.Equal(t, wantScore, res.Score, "iter %d mode %v k=%d", iter, mode, k)
				require.Equal(t, wantPositions, res.Positions, "iter %d mode %v k=%d", iter, mode, k)
			}
		}
	}
}

func TestKMonotonicity(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for iter := 0; iter < 40; iter++ {
		query := randSeq(r, 1+r.Intn(100), 4)
		target := randSeq(r, 1+r.Intn(100), 4)
		for mode := Mode(0); mode < numModes; mode++ {
			exact, err := Align(query, target, Opts{AlphabetLen: 4, K: -1, Mode: mode})
			require.NoError(t, err)
			require.True(t, exact.Score >= 0)
			// Any k at or above the true score reproduces the result
			// identically.
			for _, k := range []int{exact.Score, exact.Score + 1, exact.Score + 17} {
				res, err := Align(query, target, Opts{AlphabetLen: 4, K: k, Mode: mode})
				require.NoError(t, err)
				require.Equal(t, exact.Score, res.Score, "mode %v k=%d", mode, k)
				require.Equal(t, exact.Positions, res.Positions, "mode %v k=%d", mode, k)
			}
		}
	}
}

func TestRelaxedModesNeverCostMore(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	for iter := 0; iter < 60; iter++ {
		query := randSeq(r, 1+r.Intn(120), 4)
		target := randSeq(r, 1+r.Intn(120), 4)
		nw, err := Align(query, target, Opts{AlphabetLen: 4, K: -1, Mode: ModeNW})
		require.NoError(t, err)
		for _, mode := range []Mode{ModeHW, ModeSHW, ModeOV} {
			res, err := Align(query, target, Opts{AlphabetLen: 4, K: -1, Mode: mode})
			require.NoError(t, err)
			assert.True(t, res.Score <= nw.Score, "mode %v scored %d above NW %d", mode, res.Score, nw.Score)
		}
	}
}

func TestTracebackDeterministic(t *testing.T) {
	// query "AC" vs target "AAC": the fixed predecessor priority (diagonal
	// match first) pins the alignment to 1D2M.
	res, err := Align([]byte{0, 1}, []byte{0, 0, 1}, Opts{AlphabetLen: 2, K: -1, Mode: ModeNW, FindAlignment: true})
	require.NoError(t, err)
	expect.EQ(t, res.Score, 1)
	expect.EQ(t, res.Alignment, []EditOp{OpInsertTarget, OpMatch, OpMatch})
	cigar, err := Cigar(res.Alignment)
	require.NoError(t, err)
	expect.EQ(t, cigar, "1D2M")
}

func TestOverlapAlignmentEarlyEnd(t *testing.T) {
	// Overlap alignment whose best end column is not the last target column:
	// the query's trailing character overlaps the target's start.  The
	// reconstruction must end at the last row of that column, not at an
	// interior cell that would only be eligible at the true target end.
	query := []byte{0, 1}
	target := []byte{0, 2, 3}
	res, err := Align(query, target, Opts{AlphabetLen: 4, K: -1, Mode: ModeOV, FindAlignment: true})
	require.NoError(t, err)
	expect.EQ(t, res.Score, 1)
	expect.EQ(t, res.Positions, []int{0, 1, 2})
	verifyAlignment(t, query, target, ModeOV, res.Score, res.Positions[0], res.Alignment)
}

func TestOverlapAlignmentAllEndColumns(t *testing.T) {
	// Reconstruction must succeed for every mode on inputs where overlap ends
	// land before the last target column.
	r := rand.New(rand.NewSource(8))
	for iter := 0; iter < 80; iter++ {
		query := randSeq(r, 1+r.Intn(90), 3)
		target := randSeq(r, 1+r.Intn(90), 3)
		res, err := Align(query, target, Opts{AlphabetLen: 3, K: -1, Mode: ModeOV, FindAlignment: true})
		require.NoError(t, err)
		require.NotEmpty(t, res.Positions)
		verifyAlignment(t, query, target, ModeOV, res.Score, res.Positions[0], res.Alignment)
	}
}

func TestLongMultiBlock(t *testing.T) {
	// Cross several 64-row blocks and force the band to move.
	r := rand.New(rand.NewSource(7))
	query := randSeq(r, 500, 4)
	target := append([]byte(nil), query...)
	// Introduce scattered edits.
	for i := 0; i < 20; i++ {
		p := r.Intn(len(target))
		target[p] = byte((int(target[p]) + 1) % 4)
	}
	res, err := Align(query, target, Opts{AlphabetLen: 4, K: -1, Mode: ModeNW, FindAlignment: true})
	require.NoError(t, err)
	wantScore, _ := naiveAlign(query, target, ModeNW)
	require.Equal(t, wantScore, res.Score)
	require.True(t, res.Score <= 20)
	verifyAlignment(t, query, target, ModeNW, res.Score, res.Positions[0], res.Alignment)
}
