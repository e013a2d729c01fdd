// Package tagname implements the 64-bit tag-name hash from spec.md §3: ASCII
// alpha and the digits 1-6 are packed 5 bits per character (digits 0-5 encode
// '1'-'6', values 6-31 encode 'a'-'z' case-insensitively). Names containing
// any other byte, or longer than 12 characters, have no hash.
package tagname

// Hash is the packed encoding of a tag name, or (0, false) if the name isn't
// encodable (contains a byte outside ASCII-alpha/'1'-'6', or exceeds 12
// characters).
type Hash uint64

const maxLen = 12

// Of computes the hash of name, ASCII-case-insensitively. ok is false if name
// contains a byte that can't be packed, or is longer than 12 characters.
func Of(name []byte) (h Hash, ok bool) {
	if len(name) == 0 || len(name) > maxLen {
		return 0, false
	}
	// Start the accumulator at a nonzero sentinel bit so that leading
	// '1'-'6' digits (which encode to 0-5) don't disappear from the packed
	// value the way leading zeros would in a plain positional encoding -
	// otherwise "ab" and "1ab" would pack to the same bits. With the
	// sentinel, every distinct (length, digits) pair maps to a distinct v.
	v := uint64(1)
	for _, c := range name {
		code, codeOK := charCode(c)
		if !codeOK {
			return 0, false
		}
		v = (v << 5) | uint64(code)
	}
	return Hash(v), true
}

// OfString is the string-argument convenience wrapper around Of.
func OfString(name string) (Hash, bool) {
	return Of([]byte(name))
}

// charCode maps a single ASCII byte to its 5-bit code: '1'-'6' -> 0-5,
// 'a'-'z'/'A'-'Z' -> 6-31.
func charCode(c byte) (byte, bool) {
	switch {
	case c >= '1' && c <= '6':
		return c - '1', true
	case c >= 'a' && c <= 'z':
		return c - 'a' + 6, true
	case c >= 'A' && c <= 'Z':
		return c - 'A' + 6, true
	default:
		return 0, false
	}
}
