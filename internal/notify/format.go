package notify

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/ticktrack/internal/conflict"
)

// CategoryFor maps a transition to its message category. Silent
// transitions report false.
func CategoryFor(t conflict.Transition) (Category, bool) {
	switch t {
	case conflict.TransitionNew:
		return CategoryConflictNew, true
	case conflict.TransitionScored:
		return CategoryConflictScored, true
	case conflict.TransitionResolved:
		return CategoryConflictResolved, true
	default:
		return "", false
	}
}

// FormatTick renders the tick announcement.
func FormatTick(marker time.Time) string {
	return fmt.Sprintf("**New tick** detected at %s", marker.UTC().Format("2006-01-02 15:04 UTC"))
}

// FormatChange renders the message for a change. It reports false for
// transitions that do not notify.
func FormatChange(c conflict.Change) (string, bool) {
	switch c.Transition {
	case conflict.TransitionNew:
		return formatNew(c), true
	case conflict.TransitionScored:
		return formatScored(c), true
	case conflict.TransitionResolved:
		return formatResolved(c), true
	default:
		return "", false
	}
}

func formatNew(c conflict.Change) string {
	r := c.Current
	return fmt.Sprintf("**New %s in %s**\n%s (%s) vs %s (%s), score %s",
		kindNoun(r.Kind), r.Location,
		r.Side1.Name, stakeLabel(r.Side1.Stake),
		r.Side2.Name, stakeLabel(r.Side2.Stake),
		r.Score(),
	)
}

func formatScored(c conflict.Change) string {
	r := c.Current
	names := make([]string, 0, len(c.Advanced))
	for _, id := range c.Advanced {
		names = append(names, r.Side(id).Name)
	}
	return fmt.Sprintf("**%s day won in %s**\n%s scored. %s %d - %d %s",
		upperFirst(kindNoun(r.Kind)), r.Location,
		strings.Join(names, " and "),
		r.Side1.Name, r.Side1.Score, r.Side2.Score, r.Side2.Name,
	)
}

func formatResolved(c conflict.Change) string {
	r := c.Current
	winner, loser := r.Side1, r.Side2
	if c.Winner == conflict.Side2 {
		winner, loser = r.Side2, r.Side1
	}

	var b strings.Builder
	if c.WinnerTracked {
		fmt.Fprintf(&b, "**Victory in %s!**\n", r.Location)
	} else {
		fmt.Fprintf(&b, "**%s lost in %s**\n", upperFirst(kindNoun(r.Kind)), r.Location)
	}
	fmt.Fprintf(&b, "%s won the %s against %s, %d-%d.",
		winner.Name, kindNoun(r.Kind), loser.Name, winner.Score, loser.Score)

	if loser.Stake != "" {
		if c.WinnerTracked {
			fmt.Fprintf(&b, "\nGained: %s", loser.Stake)
		} else {
			fmt.Fprintf(&b, "\nLost: %s", loser.Stake)
		}
	}
	return b.String()
}

func kindNoun(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "":
		return "conflict"
	case "civilwar", "civil war":
		return "civil war"
	default:
		return strings.ToLower(strings.TrimSpace(kind))
	}
}

func stakeLabel(stake string) string {
	if stake == "" {
		return "no stake"
	}
	return stake
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
