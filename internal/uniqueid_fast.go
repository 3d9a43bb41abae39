//go:build !nounsafe

package internal

import "unsafe"

// Using unsafe to retrieve the object's address is much faster than using
// reflect, and UniqueID sits on every guarded chain walk.

// UniqueID returns the object's address.
func (o *Object) UniqueID() uintptr {
	return uintptr(unsafe.Pointer(o))
}
