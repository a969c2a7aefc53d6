// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package myers

import (
	"github.com/pkg/errors"
)

// Alphabet maps raw sequence letters to the dense indices the engine
// operates on.
type Alphabet struct {
	letters string
	index   [256]int16 // -1 for letters outside the alphabet
}

// NewAlphabet builds an alphabet from a string of distinct letters.  Index i
// of the result is letters[i].
func NewAlphabet(letters string) (*Alphabet, error) {
	if letters == "" {
		return nil, errors.New("alphabet must not be empty")
	}
	a := &Alphabet{letters: letters}
	for i := range a.index {
		a.index[i] = -1
	}
	for i := 0; i < len(letters); i++ {
		if a.index[letters[i]] >= 0 {
			return nil, errors.Errorf("duplicate letter %q in alphabet %q", letters[i], letters)
		}
		a.index[letters[i]] = int16(i)
	}
	return a, nil
}

// AlphabetFromSeqs builds an alphabet containing every letter occurring in
// the given sequences, in order of first appearance.  At least one sequence
// must be non-empty.
func AlphabetFromSeqs(seqs ...string) (*Alphabet, error) {
	var letters []byte
	var seen [256]bool
	for _, s := range seqs {
		for i := 0; i < len(s); i++ {
			if !seen[s[i]] {
				seen[s[i]] = true
				letters = append(letters, s[i])
			}
		}
	}
	if len(letters) == 0 {
		return nil, errors.New("no letters found in any sequence")
	}
	return NewAlphabet(string(letters))
}

// Len returns the number of letters in the alphabet.
func (a *Alphabet) Len() int { return len(a.letters) }

// Letter returns the letter at the given index.
func (a *Alphabet) Letter(i int) byte { return a.letters[i] }

// Encode converts a raw string to a sequence of alphabet indices.
func (a *Alphabet) Encode(s string) ([]byte, error) {
	seq := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		idx := a.index[s[i]]
		if idx < 0 {
			return nil, errors.Errorf("letter %q at position %d is not in alphabet %q", s[i], i, a.letters)
		}
		seq[i] = byte(idx)
	}
	return seq, nil
}
