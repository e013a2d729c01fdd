// Package encoding resolves a user-supplied encoding label to an
// ASCII-compatible codec, the way spec.md §6's construction inputs
// require ("encoding: label resolvable to an ASCII-compatible encoding").
//
// Grounded on golang.org/x/net/html/charset (the teacher already imports
// golang.org/x/net/html; charset is the same module's label-resolution
// half) for label lookup, and golang.org/x/text/transform for the
// streaming codec the dispatcher's text pipeline and mutation/meta-charset
// re-encoding need.
package encoding

import (
	nethtmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Encoding is a resolved, ASCII-compatible codec.
type Encoding struct {
	name string
	enc  encoding.Encoding
}

// Lookup resolves label (a charset/encoding name as seen in an HTTP
// Content-Type header or <meta charset>) the way charset.Lookup does -
// case-insensitively, accepting aliases. label == "" resolves to UTF-8.
func Lookup(label string) (*Encoding, bool) {
	if label == "" {
		label = "utf-8"
	}
	e, canonicalName, ok := nethtmlcharset.Lookup(label)
	if !ok {
		return nil, false
	}
	return &Encoding{name: canonicalName, enc: e}, true
}

// Name returns the canonical IANA name charset.Lookup resolved label to.
func (e *Encoding) Name() string { return e.name }

// IsASCIICompatible reports whether every ASCII byte 0x00-0x7F round-trips
// through this encoding as itself - the property spec.md §6 requires of
// any accepted document encoding (UTF-16 and similar wide encodings fail
// this; UTF-8 and the Latin/Windows single-byte families pass).
//
// golang.org/x/text/encoding does not expose this property directly, so
// it is derived empirically: encode every ASCII byte and check it comes
// back unchanged as a single byte.
func (e *Encoding) IsASCIICompatible() bool {
	enc := e.enc.NewEncoder()
	var in [1]byte
	for b := 0; b < 0x80; b++ {
		in[0] = byte(b)
		out, _, err := transform.String(enc, string(in[:]))
		if err != nil || len(out) != 1 || out[0] != in[0] {
			return false
		}
		enc.Reset()
	}
	return true
}

// NewDecoder returns a fresh streaming byte-to-UTF8 transformer.
func (e *Encoding) NewDecoder() transform.Transformer {
	if e == nil {
		return transform.Nop
	}
	return e.enc.NewDecoder()
}

// NewEncoder returns a fresh streaming UTF8-to-byte transformer, used to
// re-encode mutation content and re-point <meta charset> output under a
// non-UTF-8 document encoding.
func (e *Encoding) NewEncoder() transform.Transformer {
	if e == nil {
		return transform.Nop
	}
	return e.enc.NewEncoder()
}

// EncodeString re-encodes s (UTF-8) into this encoding's bytes.
func (e *Encoding) EncodeString(s string) ([]byte, error) {
	if e == nil {
		return []byte(s), nil
	}
	out, _, err := transform.Bytes(e.enc.NewEncoder(), []byte(s))
	return out, err
}
