package conflict

import "sort"

// Transition classifies what happened to one location between two runs.
type Transition int

const (
	TransitionNew Transition = iota + 1
	TransitionScored
	TransitionResolved
	TransitionUnchanged
	TransitionGone
)

func (t Transition) String() string {
	switch t {
	case TransitionNew:
		return "new"
	case TransitionScored:
		return "scored"
	case TransitionResolved:
		return "resolved"
	case TransitionUnchanged:
		return "unchanged"
	case TransitionGone:
		return "gone"
	default:
		return "unknown"
	}
}

// Notifies reports whether the transition produces an outbound message.
func (t Transition) Notifies() bool {
	switch t {
	case TransitionNew, TransitionScored, TransitionResolved:
		return true
	default:
		return false
	}
}

// Op is the store instruction attached to a change.
type Op int

const (
	OpUpsert Op = iota + 1
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpUpsert:
		return "upsert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Change is the classification of a single location.
type Change struct {
	Location   string
	Transition Transition
	Op         Op

	// Current is the zero Record for TransitionGone.
	Current Record
	// Previous is the zero Record for TransitionNew.
	Previous Record

	// Advanced lists the sides whose score went up (TransitionScored only).
	Advanced []SideID

	// Winner and WinnerTracked are set for TransitionResolved only.
	Winner        SideID
	WinnerTracked bool
}

// Instruction is a store mutation derived from a Change.
type Instruction struct {
	Op       Op
	Location string
	Record   Record
}

// Plan is the output of Diff: one Change per location, present locations
// first and Gone locations last, each group sorted by location.
type Plan struct {
	Changes []Change
}

// Instructions returns the store mutations of the plan in order.
func (p Plan) Instructions() []Instruction {
	out := make([]Instruction, 0, len(p.Changes))
	for _, c := range p.Changes {
		out = append(out, Instruction{Op: c.Op, Location: c.Location, Record: c.Current})
	}
	return out
}

// WithoutSweep returns a copy of the plan with every Gone change removed.
func (p Plan) WithoutSweep() Plan {
	out := Plan{Changes: make([]Change, 0, len(p.Changes))}
	for _, c := range p.Changes {
		if c.Transition == TransitionGone {
			continue
		}
		out.Changes = append(out.Changes, c)
	}
	return out
}

// Count returns how many changes have transition t.
func (p Plan) Count(t Transition) int {
	n := 0
	for _, c := range p.Changes {
		if c.Transition == t {
			n++
		}
	}
	return n
}

// Diff classifies every location in current and previous.
//
// parties only affects Change.WinnerTracked; filtering current down to
// tracked conflicts is the caller's responsibility.
func Diff(current, previous Snapshot, parties PartySet) Plan {
	plan := Plan{Changes: make([]Change, 0, len(current)+len(previous))}

	for _, loc := range sortedLocations(current) {
		cur := current[loc]
		prev, known := previous[loc]
		plan.Changes = append(plan.Changes, classify(loc, cur, prev, known, parties))
	}

	var gone []string
	for loc := range previous {
		if _, ok := current[loc]; !ok {
			gone = append(gone, loc)
		}
	}
	sort.Strings(gone)
	for _, loc := range gone {
		plan.Changes = append(plan.Changes, Change{
			Location:   loc,
			Transition: TransitionGone,
			Op:         OpDelete,
			Previous:   previous[loc],
		})
	}

	return plan
}

func classify(loc string, cur, prev Record, known bool, parties PartySet) Change {
	c := Change{Location: loc, Current: cur, Previous: prev}

	switch {
	case !known:
		c.Transition = TransitionNew
		c.Op = OpUpsert

	case cur.Terminal():
		c.Transition = TransitionResolved
		c.Op = OpDelete
		c.Winner = cur.Winner()
		c.WinnerTracked = parties.Contains(cur.Side(c.Winner).Name)

	default:
		if cur.Side1.Score > prev.Side1.Score {
			c.Advanced = append(c.Advanced, Side1)
		}
		if cur.Side2.Score > prev.Side2.Score {
			c.Advanced = append(c.Advanced, Side2)
		}
		c.Op = OpUpsert
		if len(c.Advanced) > 0 {
			c.Transition = TransitionScored
		} else {
			c.Transition = TransitionUnchanged
		}
	}

	return c
}

func sortedLocations(s Snapshot) []string {
	out := make([]string, 0, len(s))
	for loc := range s {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}
