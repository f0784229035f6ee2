// Package trace reads memory reference traces and records the cache events
// a trace causes.
package trace

import "fmt"

// Kind tells which L1 cache serves a reference.
type Kind int

// The kinds of references.
const (
	KindInstruction Kind = iota
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindInstruction:
		return "I"
	case KindData:
		return "D"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// A Reference is one memory access of a trace.
type Reference struct {
	Kind Kind
	Addr uint32
}

// kindFromToken maps the access letters used by trace files to a Kind.
// Loads, stores and modifies are all data accesses.
func kindFromToken(tok string) (Kind, bool) {
	if len(tok) != 1 {
		return 0, false
	}

	switch tok[0] {
	case 'I', 'i':
		return KindInstruction, true
	case 'L', 'l', 'S', 's', 'D', 'd', 'M', 'm':
		return KindData, true
	default:
		return 0, false
	}
}
