// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package myers

import (
	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"
)

// SamCigar converts an alignment to an hts sam.Cigar, merging match and
// mismatch runs into sam.CigarMatch.  The query plays the role of the read
// and the target the role of the reference, so query-consuming gaps become
// insertions and target-consuming gaps become deletions.
func SamCigar(alignment []EditOp) (sam.Cigar, error) {
	if len(alignment) == 0 {
		return nil, errors.New("cannot convert an empty alignment")
	}
	opType := func(op EditOp) (sam.CigarOpType, error) {
		switch op {
		case OpMatch, OpMismatch:
			return sam.CigarMatch, nil
		case OpInsertQuery:
			return sam.CigarInsertion, nil
		case OpInsertTarget:
			return sam.CigarDeletion, nil
		}
		return 0, errors.Errorf("invalid edit operation %d", op)
	}
	var cigar sam.Cigar
	runType, err := opType(alignment[0])
	if err != nil {
		return nil, err
	}
	runLen := 1
	for _, op := range alignment[1:] {
		t, err := opType(op)
		if err != nil {
			return nil, err
		}
		if t == runType {
			runLen++
			continue
		}
		cigar = append(cigar, sam.NewCigarOp(runType, runLen))
		runType, runLen = t, 1
	}
	cigar = append(cigar, sam.NewCigarOp(runType, runLen))
	return cigar, nil
}
