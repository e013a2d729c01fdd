package lexer

import "github.com/dpotapov/htmlrewriter/internal/tagname"

// hashBytes bridges the scanner's raw byte slices to the shared tag-name
// hash (internal/tagname), which operates on []byte/string and is
// reused unchanged from the selector VM's NameHash representation.
func hashBytes(name []byte) (uint64, bool) {
	h, ok := tagname.Of(name)
	return uint64(h), ok
}
