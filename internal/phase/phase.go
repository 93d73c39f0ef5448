// Package phase is the static registry of design sprint phases.
//
// Each phase has exactly one immutable Config, and each Config builds a
// phase-specific Instruction from the sprint's current Inputs. Instructions
// are plain values, so building them has no side effects.
package phase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SprintPhase identifies one of the six ordered sprint phases.
type SprintPhase int

const (
	Understand SprintPhase = iota
	Define
	Sketch
	Decide
	Prototype
	Test
)

// ErrUnknownPhase is returned by Parse for names that match no phase.
var ErrUnknownPhase = errors.New("unknown sprint phase")

var names = [...]string{"Understand", "Define", "Sketch", "Decide", "Prototype", "Test"}

// All returns every phase in sprint order.
func All() []SprintPhase {
	return []SprintPhase{Understand, Define, Sketch, Decide, Prototype, Test}
}

// String returns the phase name, e.g. "Sketch".
func (p SprintPhase) String() string {
	if !p.Valid() {
		return "SprintPhase(" + strconv.Itoa(int(p)) + ")"
	}
	return names[p]
}

// Valid reports whether p is one of the six phases.
func (p SprintPhase) Valid() bool {
	return p >= Understand && p <= Test
}

// Ordinal returns the 1-based position of p in the sprint.
func (p SprintPhase) Ordinal() int {
	return int(p) + 1
}

// Next returns the phase after p and false when p is the last phase.
func (p SprintPhase) Next() (SprintPhase, bool) {
	if p >= Test {
		return p, false
	}
	return p + 1, true
}

// Parse accepts a phase name (case-insensitive) or a 1-based ordinal.
func Parse(s string) (SprintPhase, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(names) {
			return SprintPhase(n - 1), nil
		}
		return 0, fmt.Errorf("%w: %d", ErrUnknownPhase, n)
	}
	for i, name := range names {
		if strings.EqualFold(s, name) {
			return SprintPhase(i), nil
		}
	}
	// "ideate" is the alternate name shown in the Sketch title.
	if strings.EqualFold(s, "ideate") {
		return Sketch, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPhase, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p SprintPhase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPhase, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *SprintPhase) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
