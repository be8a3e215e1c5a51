// SPDX-License-Identifier: EPL-2.0

package scope

import (
	"fmt"
	"strings"
)

// Edge selects the crossing direction that fires the trigger.
type Edge uint8

const (
	Rising Edge = iota
	Falling
)

func (e Edge) String() string {
	switch e {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	default:
		return fmt.Sprintf("Edge(%d)", uint8(e))
	}
}

// ParseEdge accepts "rising" or "falling" in any case.
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rising", "":
		return Rising, nil
	case "falling":
		return Falling, nil
	default:
		return Rising, fmt.Errorf("%w: %q", ErrUnknownEdge, s)
	}
}

// State is the trigger's position in its capture cycle.
type State uint8

const (
	Armed State = iota
	Triggered
	Holdoff
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Triggered:
		return "triggered"
	case Holdoff:
		return "holdoff"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}
