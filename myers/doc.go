// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package myers computes unit-cost edit (Levenshtein) distance and optimal
// alignments between two sequences over a small alphabet, using Myers'
// bit-parallel algorithm combined with Ukkonen's banded cutoff.
//
// Sequences are arrays of alphabet indices: with alphabet "ACTG", the query
// "AACG" is []byte{0, 0, 1, 3}.  Four boundary modes are supported (see Mode)
// which control whether gaps at the ends of the query or the target are
// charged.  The search can be bounded by a threshold k, in which case only
// scores <= k are reported; a negative k grows the threshold automatically
// until the exact distance is found.
//
// A single Align call is a pure computation with no shared state, so callers
// may run many alignments concurrently.
package myers
