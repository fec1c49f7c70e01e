package taxonomy

import "strings"

// AllSentinel is the external spelling of an unresolved taxonomic level.
const AllSentinel = "All"

// Level is one taxonomic rank that is either unknown or known with a value.
type Level struct {
	value string
	known bool
}

// Unknown is the unresolved level.
var Unknown = Level{}

// Known returns a resolved level.
func Known(value string) Level {
	return Level{value: value, known: true}
}

// ParseLevel converts an external value. Blank input and the "All" sentinel
// are Unknown.
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AllSentinel) {
		return Unknown
	}
	return Known(s)
}

// IsKnown reports whether the level carries a value.
func (l Level) IsKnown() bool {
	return l.known
}

// Value returns the level value and whether it is known.
func (l Level) Value() (string, bool) {
	return l.value, l.known
}

// String renders the level for storage and APIs, using the sentinel when unknown.
func (l Level) String() string {
	if !l.known {
		return AllSentinel
	}
	return l.value
}
