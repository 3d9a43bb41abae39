package internal

import (
	"strconv"

	"golang.org/x/text/encoding/unicode"
)

// Key is a property key: either a string name or an integer index. Keys are
// comparable, so they may be used directly as map keys.
//
// Use KeyOf or IndexKey to obtain keys. The zero Key is the empty string name.
type Key struct {
	name  string
	index int32
	isIdx bool
}

// maxIndex is the largest index representable as an index key. Decimal
// strings naming larger values remain string keys.
const maxIndex = 1<<31 - 2

// KeyOf returns the key for a property name. Names which are canonical
// decimal array indices, such as "0" or "17" but not "017" or "-1", produce
// the same key as IndexKey would.
func KeyOf(name string) Key {
	if i, ok := indexFromString(name); ok {
		return Key{index: i, isIdx: true}
	}
	return Key{name: name}
}

// IndexKey returns the key for an integer index. Panics if i is negative or
// too large to be an index; callers must form string keys for such values.
func IndexKey(i int) Key {
	if i < 0 || i > maxIndex {
		panic("scriptobj: index key out of range: " + strconv.Itoa(i))
	}
	return Key{index: int32(i), isIdx: true}
}

// IsIndex returns whether the key is an integer index.
func (k Key) IsIndex() bool {
	return k.isIdx
}

// Index returns the key's index. The result is meaningless if the key is not
// an index.
func (k Key) Index() int {
	return int(k.index)
}

// Name returns the key's string name. Index keys produce their decimal form.
func (k Key) Name() string {
	if k.isIdx {
		return strconv.Itoa(int(k.index))
	}
	return k.name
}

// String returns the key's name.
func (k Key) String() string {
	return k.Name()
}

// indexOrHash returns the 32-bit value used to place the key in a bucket.
func (k Key) indexOrHash() uint32 {
	if k.isIdx {
		return uint32(k.index)
	}
	return hashName(k.name)
}

// indexFromString parses s as a canonical array index.
func indexFromString(s string) (int32, bool) {
	n := len(s)
	if n == 0 || n > 10 {
		return 0, false
	}
	if s[0] == '0' {
		return 0, n == 1
	}
	var v int64
	for i := 0; i < n; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int64(c-'0')
	}
	if v > maxIndex {
		return 0, false
	}
	return int32(v), true
}

// utf16le transcodes names to the UTF-16 code units over which script string
// hashes are defined.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// hashName computes s[0]*31^(n-1) + ... + s[n-1] over the UTF-16 code units
// of s, wrapping at 32 bits.
func hashName(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x80 {
			return hashWide(s)
		}
		h = 31*h + uint32(c)
	}
	return h
}

// hashWide is the slow path of hashName for names containing non-ASCII text.
func hashWide(s string) uint32 {
	b, err := utf16le.NewEncoder().String(s)
	var h uint32
	if err != nil {
		// Hash the raw bytes instead. The hash only needs to be consistent.
		for i := 0; i < len(s); i++ {
			h = 31*h + uint32(s[i])
		}
		return h
	}
	for i := 0; i+1 < len(b); i += 2 {
		h = 31*h + (uint32(b[i]) | uint32(b[i+1])<<8)
	}
	return h
}
