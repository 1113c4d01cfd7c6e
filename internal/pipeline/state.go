package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// State is a step of the fallback chain. Backends occupy the states before
// StateTestFallback in the order they were configured.
type State int

const (
	StatePrimary State = iota
	StateSecondary
	StateTertiary
	StateTestFallback
	StateDone
)

var stateNames = map[State]string{
	StatePrimary:      "PRIMARY",
	StateSecondary:    "SECONDARY",
	StateTertiary:     "TERTIARY",
	StateTestFallback: "TEST_FALLBACK",
	StateDone:         "DONE",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("BACKEND_%d", int(s)-1)
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	name := string(b)
	for st, n := range stateNames {
		if n == name {
			*s = st
			return nil
		}
	}
	if rest, ok := strings.CutPrefix(name, "BACKEND_"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n > int(StateTertiary) {
			*s = State(n + 1)
			return nil
		}
	}
	return fmt.Errorf("unknown pipeline state %q", name)
}

// backendState maps the i-th configured backend to its state. A chain longer
// than three backends keeps numbering past TERTIARY without colliding with the
// terminal states.
func backendState(i int) State {
	if i < int(StateTestFallback) {
		return State(i)
	}
	return State(i + 2)
}
