// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package myers

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// EditOp is a single alignment operation.  The numeric values match the
// original C library.
type EditOp byte

const (
	// OpMatch aligns equal query and target characters.
	OpMatch EditOp = 0
	// OpInsertTarget consumes one target character against a gap in the
	// query (CIGAR 'D').
	OpInsertTarget EditOp = 1
	// OpInsertQuery consumes one query character against a gap in the target
	// (CIGAR 'I').
	OpInsertQuery EditOp = 2
	// OpMismatch aligns differing query and target characters.
	OpMismatch EditOp = 3
)

// cigarChar maps an op to its standard CIGAR class: match and mismatch are
// merged into 'M', query-consuming gaps are 'I', target-consuming gaps 'D'.
func (op EditOp) cigarChar() (byte, error) {
	switch op {
	case OpMatch, OpMismatch:
		return 'M', nil
	case OpInsertQuery:
		return 'I', nil
	case OpInsertTarget:
		return 'D', nil
	}
	return 0, errors.Errorf("invalid edit operation %d", op)
}

// cigarCharExtended distinguishes matches ('=') from mismatches ('X').
func (op EditOp) cigarCharExtended() (byte, error) {
	switch op {
	case OpMatch:
		return '=', nil
	case OpMismatch:
		return 'X', nil
	case OpInsertQuery:
		return 'I', nil
	case OpInsertTarget:
		return 'D', nil
	}
	return 0, errors.Errorf("invalid edit operation %d", op)
}

func cigarEncode(alignment []EditOp, class func(EditOp) (byte, error)) (string, error) {
	if len(alignment) == 0 {
		return "", errors.New("cannot encode an empty alignment")
	}
	var buf strings.Builder
	runChar, err := class(alignment[0])
	if err != nil {
		return "", err
	}
	runLen := 1
	for _, op := range alignment[1:] {
		ch, err := class(op)
		if err != nil {
			return "", err
		}
		if ch == runChar {
			runLen++
			continue
		}
		buf.WriteString(strconv.Itoa(runLen))
		buf.WriteByte(runChar)
		runChar, runLen = ch, 1
	}
	buf.WriteString(strconv.Itoa(runLen))
	buf.WriteByte(runChar)
	return buf.String(), nil
}

// Cigar run-length encodes an alignment into a standard CIGAR string, with
// match and mismatch sharing the 'M' opcode.  The alignment must be
// non-empty.
func Cigar(alignment []EditOp) (string, error) {
	return cigarEncode(alignment, EditOp.cigarChar)
}

// CigarExtended is like Cigar but emits the extended opcodes '=' and 'X'
// instead of merging matches and mismatches into 'M'.
func CigarExtended(alignment []EditOp) (string, error) {
	return cigarEncode(alignment, EditOp.cigarCharExtended)
}

// DecodeCigar expands a CIGAR string back into edit operations.  'M' and '='
// both decode to OpMatch, so decoding the output of Cigar reproduces the
// original operations only up to the match/mismatch merge.
func DecodeCigar(s string) ([]EditOp, error) {
	if s == "" {
		return nil, errors.New("empty CIGAR string")
	}
	var ops []EditOp
	runLen := 0
	sawDigit := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= '0' && ch <= '9' {
			runLen = runLen*10 + int(ch-'0')
			sawDigit = true
			continue
		}
		if !sawDigit || runLen == 0 {
			return nil, errors.Errorf("malformed CIGAR string %q: missing run length at offset %d", s, i)
		}
		var op EditOp
		switch ch {
		case 'M', '=':
			op = OpMatch
		case 'X':
			op = OpMismatch
		case 'I':
			op = OpInsertQuery
		case 'D':
			op = OpInsertTarget
		default:
			return nil, errors.Errorf("malformed CIGAR string %q: unknown opcode %q", s, ch)
		}
		for ; runLen > 0; runLen-- {
			ops = append(ops, op)
		}
		sawDigit = false
	}
	if sawDigit {
		return nil, errors.Errorf("malformed CIGAR string %q: trailing run length", s)
	}
	return ops, nil
}
