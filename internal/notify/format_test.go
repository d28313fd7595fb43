package notify

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/ticktrack/internal/conflict"
)

// To regenerate golden files, run:
//
//	go test ./internal/notify -update
func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func record(loc, kind string, s1, s2 int) conflict.Record {
	return conflict.Record{
		Location: loc,
		Kind:     kind,
		Side1:    conflict.Side{Name: "Fuel Rats", Stake: "Rescue Depot", Score: s1},
		Side2:    conflict.Side{Name: "Gold Syndicate", Stake: "Orbital Yard", Score: s2},
	}
}

func TestFormatChange_Golden(t *testing.T) {
	noStake := record("Alpha", "war", 0, 0)
	noStake.Side2.Stake = ""

	tests := []struct {
		name   string
		change conflict.Change
	}{
		{
			name: "new_war",
			change: conflict.Change{
				Location:   "Alpha",
				Transition: conflict.TransitionNew,
				Current:    noStake,
			},
		},
		{
			name: "scored_both_sides",
			change: conflict.Change{
				Location:   "Beta",
				Transition: conflict.TransitionScored,
				Current:    record("Beta", "civilwar", 2, 3),
				Previous:   record("Beta", "civilwar", 1, 2),
				Advanced:   []conflict.SideID{conflict.Side1, conflict.Side2},
			},
		},
		{
			name: "resolved_victory",
			change: conflict.Change{
				Location:      "Alpha",
				Transition:    conflict.TransitionResolved,
				Current:       record("Alpha", "war", 4, 1),
				Winner:        conflict.Side1,
				WinnerTracked: true,
			},
		},
		{
			name: "resolved_defeat",
			change: conflict.Change{
				Location:   "Gamma",
				Transition: conflict.TransitionResolved,
				Current:    record("Gamma", "election", 1, 4),
				Winner:     conflict.Side2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := FormatChange(tt.change)
			assert.True(t, ok)
			newGoldie(t).Assert(t, tt.name, []byte(msg))
		})
	}
}

func TestFormatTick_Golden(t *testing.T) {
	msg := FormatTick(time.Date(2026, 3, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600)))
	newGoldie(t).Assert(t, "tick", []byte(msg))
}

func TestFormatChange_SilentTransitions(t *testing.T) {
	for _, tr := range []conflict.Transition{conflict.TransitionUnchanged, conflict.TransitionGone} {
		_, ok := FormatChange(conflict.Change{Transition: tr})
		assert.False(t, ok, tr.String())

		_, ok = CategoryFor(tr)
		assert.False(t, ok, tr.String())
	}
}

func TestCategoryFor(t *testing.T) {
	cat, ok := CategoryFor(conflict.TransitionScored)
	assert.True(t, ok)
	assert.Equal(t, CategoryConflictScored, cat)
}

func TestKindNoun(t *testing.T) {
	assert.Equal(t, "conflict", kindNoun(""))
	assert.Equal(t, "civil war", kindNoun("CivilWar"))
	assert.Equal(t, "election", kindNoun("Election"))
	assert.Equal(t, "Élection", upperFirst("élection"))
}
