package internal

import (
	"strconv"
	"strings"
)

// Attr is a set of property attributes.
type Attr uint32

const (
	// ReadOnly causes assignments to the property to be ignored, or to fail
	// in strict mode.
	ReadOnly Attr = 1 << iota
	// DontEnum excludes the property from default enumeration.
	DontEnum
	// Permanent prevents the property from being deleted or having its
	// attributes changed.
	Permanent
	// UninitializedConst marks a const which has been declared but not yet
	// assigned. It only appears together with ReadOnly and Permanent.
	UninitializedConst

	// Empty is the absence of all attributes: writable, enumerable, and
	// configurable.
	Empty Attr = 0
	// AllAttrs is the mask of all valid attribute bits.
	AllAttrs = ReadOnly | DontEnum | Permanent | UninitializedConst
	// ConstAttrs are the attributes of a declared but uninitialized const.
	ConstAttrs = ReadOnly | Permanent | UninitializedConst
)

// Valid returns whether a contains only defined bits and UninitializedConst
// appears only with ReadOnly and Permanent.
func (a Attr) Valid() bool {
	if a&^AllAttrs != 0 {
		return false
	}
	if a&UninitializedConst != 0 && a&(ReadOnly|Permanent) != ReadOnly|Permanent {
		return false
	}
	return true
}

// Has returns whether all of the attributes in b are set in a.
func (a Attr) Has(b Attr) bool {
	return a&b == b
}

// String returns a readable list of the attributes, e.g. "ReadOnly|DontEnum".
func (a Attr) String() string {
	if a == Empty {
		return "Empty"
	}
	var b strings.Builder
	names := [...]string{"ReadOnly", "DontEnum", "Permanent", "UninitializedConst"}
	for i, name := range names {
		if a&(1<<i) != 0 {
			if b.Len() > 0 {
				b.WriteByte('|')
			}
			b.WriteString(name)
		}
	}
	if rest := a &^ AllAttrs; rest != 0 {
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString("0x")
		b.WriteString(strconv.FormatUint(uint64(rest), 16))
	}
	return b.String()
}
