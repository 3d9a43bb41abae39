//go:build nounsafe

package internal

import "reflect"

// The default implementation of UniqueID uses unsafe.Pointer. If you can't use
// packages importing unsafe, you can build with -tags=nounsafe to select this
// implementation instead, at a cost to cycle-guarded chain walks.

// UniqueID returns the object's address.
func (o *Object) UniqueID() uintptr {
	return reflect.ValueOf(o).Pointer()
}
