package nuc

import "strings"

// Command is a dotted hierarchical capability path, e.g. "nil.db.queries.read".
// Segments are compared case-sensitively.
type Command string

// Segments splits the command into its dotted path components.
func (c Command) Segments() []string {
	if c == "" {
		return nil
	}
	return strings.Split(string(c), ".")
}

// Attenuates reports whether c is a prefix-extension of other — i.e. c's
// segments start with every segment of other, in order. "a.b.c" attenuates
// "a.b" but not "a.x".
//
// Every command attenuates itself.
func (c Command) Attenuates(other Command) bool {
	cs, os := c.Segments(), other.Segments()
	if len(cs) < len(os) {
		return false
	}
	for i, seg := range os {
		if cs[i] != seg {
			return false
		}
	}
	return true
}

// String returns the dotted path.
func (c Command) String() string { return string(c) }
