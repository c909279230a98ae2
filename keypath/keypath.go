// Package keypath implements the append-only, immutable key path used to
// localize errors inside nested values, per spec.md §9: "the implementer
// should model KeyPath as an append-only immutable sequence so recursion
// never has to unwind it."
package keypath

import (
	"strconv"
	"strings"
)

// segment is either a dictionary key (string) or an array index (int).
type segment struct {
	key   string
	index int
	isKey bool
}

// KeyPath is an immutable, append-only sequence of keys and indices. The zero
// value is the empty, root path.
type KeyPath struct {
	parent *KeyPath
	seg    segment
	empty  bool
}

// Root returns the empty key path.
func Root() KeyPath {
	return KeyPath{empty: true}
}

// Key returns a new path with key appended.
func (p KeyPath) Key(key string) KeyPath {
	return KeyPath{parent: &p, seg: segment{key: key, isKey: true}}
}

// Index returns a new path with an array index appended.
func (p KeyPath) Index(i int) KeyPath {
	return KeyPath{parent: &p, seg: segment{index: i}}
}

// Segments returns the path's segments from root to tip, each as either a
// string (dictionary key) or an int (array index).
func (p KeyPath) Segments() []any {
	if p.parent == nil {
		return nil
	}
	var out []any
	for cur := &p; cur != nil && cur.parent != nil; cur = cur.parent {
		if cur.seg.isKey {
			out = append(out, cur.seg.key)
		} else {
			out = append(out, cur.seg.index)
		}
	}
	// reverse into root-to-tip order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// String renders the path dotted-and-bracketed, e.g. "emails[0].value".
func (p KeyPath) String() string {
	segs := p.Segments()
	if len(segs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range segs {
		switch v := s.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(v))
			b.WriteByte(']')
		}
	}
	return b.String()
}
