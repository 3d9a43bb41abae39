package internal

// Value is any value a property can hold. The object model does not interpret
// values except for Functions, which it calls as accessors and iterators, and
// *Object, which it recognizes as iterator objects.
type Value = interface{}

// sentinel is the type of distinguished values which no script value can
// equal.
type sentinel struct{ name string }

func (s *sentinel) String() string { return s.name }

var (
	// NotFound is returned by lookups when a property does not exist anywhere
	// in the searched chain. It is never stored in a slot.
	NotFound Value = &sentinel{"NOT_FOUND"}
	// Undefined is the value of declared but unassigned properties and the
	// result of reading an accessor which has no getter.
	Undefined Value = &sentinel{"undefined"}
	// StopIteration ends a custom iteration protocol when returned from an
	// iterator's next function.
	StopIteration Value = &sentinel{"StopIteration"}
)

// Function is a callable value. Accessor getters and setters and custom
// iterators are Functions.
type Function interface {
	// Call invokes the function with the given receiver.
	Call(vm *VM, this *Object, args ...Value) (Value, error)
}

// NativeFunc adapts a Go function to the Function interface.
type NativeFunc func(vm *VM, this *Object, args ...Value) (Value, error)

// Call calls f.
func (f NativeFunc) Call(vm *VM, this *Object, args ...Value) (Value, error) {
	return f(vm, this, args...)
}
