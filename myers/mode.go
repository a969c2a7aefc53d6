// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package myers

import (
	"github.com/pkg/errors"
)

// Mode selects the boundary conditions of the alignment.  The numeric values
// match the original C library.
type Mode int

const (
	// ModeHW is semi-global alignment: gaps before and after the query are
	// free.  This locates the query inside the target.
	ModeHW Mode = iota
	// ModeNW is global (Needleman-Wunsch) alignment: no free gaps.
	ModeNW
	// ModeSHW is semi-global alignment where only the gap before the query is
	// free: the alignment may start anywhere in the target but must extend to
	// its end.
	ModeSHW
	// ModeOV is overlap alignment: gaps at both ends of both sequences are
	// free.
	ModeOV

	numModes = iota
)

// modeTraits is the single source of truth for boundary conditions.  Every
// boundary branch in the engine and the traceback consults this table.
type modeTraits struct {
	// freeQueryStart means the gap preceding the query is free: row 0 of the
	// edit matrix starts at 0 in every column.
	freeQueryStart bool
	// freeQueryEnd means the gap following the query is free: the last row of
	// every column is eligible as an alignment end.  When false, only the
	// final target column is eligible.
	freeQueryEnd bool
	// freeTargetGaps means gaps of the target are free: column 0 starts at 0
	// in every row, and cells of the final target column are eligible as
	// alignment ends.
	freeTargetGaps bool
}

var modeTable = [numModes]modeTraits{
	ModeHW:  {freeQueryStart: true, freeQueryEnd: true, freeTargetGaps: false},
	ModeNW:  {freeQueryStart: false, freeQueryEnd: false, freeTargetGaps: false},
	ModeSHW: {freeQueryStart: true, freeQueryEnd: false, freeTargetGaps: false},
	ModeOV:  {freeQueryStart: true, freeQueryEnd: true, freeTargetGaps: true},
}

func (m Mode) valid() bool { return m >= 0 && m < numModes }

func (m Mode) traits() modeTraits { return modeTable[m] }

func (m Mode) String() string {
	switch m {
	case ModeHW:
		return "HW"
	case ModeNW:
		return "NW"
	case ModeSHW:
		return "SHW"
	case ModeOV:
		return "OV"
	}
	return "INVALID"
}

// ParseMode converts a mode name ("NW", "HW", "SHW", "OV") to a Mode.
func ParseMode(s string) (Mode, error) {
	for m := Mode(0); m < numModes; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown alignment mode %q", s)
}
