package conflict

import (
	"fmt"
	"strings"
)

// TerminalScore is the number of won days that ends a conflict.
const TerminalScore = 4

// Side is one party of a two-sided conflict.
type Side struct {
	Name  string `json:"name"`
	Stake string `json:"stake"`
	Score int    `json:"score"`
}

// Record is one conflict as observed by a source during a single run.
// Records are values: a run derives new ones, it never edits old ones.
type Record struct {
	Location string `json:"location"`
	Kind     string `json:"kind"`
	Side1    Side   `json:"side1"`
	Side2    Side   `json:"side2"`
}

// Snapshot maps location to the conflict observed there.
type Snapshot map[string]Record

// SideID names one of the two sides of a Record.
type SideID int

const (
	NoSide SideID = iota
	Side1
	Side2
)

func (s SideID) String() string {
	switch s {
	case Side1:
		return "side1"
	case Side2:
		return "side2"
	default:
		return "none"
	}
}

// Side returns the side identified by id. NoSide yields the zero Side.
func (r Record) Side(id SideID) Side {
	switch id {
	case Side1:
		return r.Side1
	case Side2:
		return r.Side2
	default:
		return Side{}
	}
}

// Terminal reports whether either side has reached TerminalScore.
func (r Record) Terminal() bool {
	return r.Side1.Score >= TerminalScore || r.Side2.Score >= TerminalScore
}

// Winner returns the side at or above TerminalScore, preferring Side1 on a
// tie. It returns NoSide for a conflict that is not terminal.
func (r Record) Winner() SideID {
	switch {
	case r.Side1.Score >= TerminalScore:
		return Side1
	case r.Side2.Score >= TerminalScore:
		return Side2
	default:
		return NoSide
	}
}

// Validate checks the fields every source must supply.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Location) == "" {
		return fmt.Errorf("conflict record: empty location")
	}
	if strings.TrimSpace(r.Side1.Name) == "" || strings.TrimSpace(r.Side2.Name) == "" {
		return fmt.Errorf("conflict record %q: missing side name", r.Location)
	}
	if r.Side1.Score < 0 || r.Side2.Score < 0 {
		return fmt.Errorf("conflict record %q: negative score %d-%d", r.Location, r.Side1.Score, r.Side2.Score)
	}
	return nil
}

// Score renders the score as "a-b".
func (r Record) Score() string {
	return fmt.Sprintf("%d-%d", r.Side1.Score, r.Side2.Score)
}
