// Package testutils provides utilities for testing code built on the object
// model.
package testutils

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/zephyrtronium/scriptobj"
)

// testVM is the VM used for all tests.
var testVM *scriptobj.VM

var testVMInit sync.Once

// TestingVM returns a VM with the default configuration. The VM is shared by
// all tests that use this package, so tests which need other settings should
// create their own, or Fork this one and change the fork.
func TestingVM() *scriptobj.VM {
	testVMInit.Do(ResetTestingVM)
	return testVM
}

// ResetTestingVM reinitializes the VM returned by TestingVM. It is not safe
// to call this in parallel tests.
func ResetTestingVM() {
	testVM = scriptobj.NewVM(scriptobj.DefaultConfig())
}

// StrictVM returns a new VM in strict mode.
func StrictVM() *scriptobj.VM {
	cfg := scriptobj.DefaultConfig()
	cfg.Strict = true
	return scriptobj.NewVM(cfg)
}

// Chain creates a prototype chain of n objects and returns it ordered from
// the most derived object to the root.
func Chain(vm *scriptobj.VM, n int) []*scriptobj.Object {
	r := make([]*scriptobj.Object, n)
	var p *scriptobj.Object
	for i := n - 1; i >= 0; i-- {
		p = vm.NewObject(p)
		r[i] = p
	}
	return r
}

// Receiver returns a getter which evaluates to its receiver.
func Receiver() scriptobj.Function {
	return scriptobj.NativeFunc(func(vm *scriptobj.VM, this *scriptobj.Object, args ...scriptobj.Value) (scriptobj.Value, error) {
		return this, nil
	})
}

// Recorder returns a setter which records its receiver and argument. The
// recorded values are available through the returned pointers once the
// setter has been called.
func Recorder() (f scriptobj.Function, this **scriptobj.Object, arg *scriptobj.Value) {
	var rt *scriptobj.Object
	var ra scriptobj.Value
	f = scriptobj.NativeFunc(func(vm *scriptobj.VM, t *scriptobj.Object, args ...scriptobj.Value) (scriptobj.Value, error) {
		rt = t
		if len(args) > 0 {
			ra = args[0]
		}
		return scriptobj.Undefined, nil
	})
	return f, &rt, &ra
}

// Counting returns a lazy initializer which produces v and counts its calls.
func Counting(v scriptobj.Value) (init func(*scriptobj.VM) (scriptobj.Value, error), calls *int32) {
	calls = new(int32)
	init = func(*scriptobj.VM) (scriptobj.Value, error) {
		atomic.AddInt32(calls, 1)
		return v, nil
	}
	return init, calls
}

// Collect runs an enumeration to completion and returns the elements it
// produced, as returned by Enumerator.Current.
func Collect(vm *scriptobj.VM, o *scriptobj.Object, mode scriptobj.EnumMode) ([]scriptobj.Value, error) {
	e, err := vm.Enumerate(o, mode)
	if err != nil {
		return nil, err
	}
	var r []scriptobj.Value
	for {
		ok, err := e.Next()
		if err != nil {
			return r, err
		}
		if !ok {
			return r, nil
		}
		v, err := e.Current()
		if err != nil {
			return r, err
		}
		r = append(r, v)
	}
}

// CheckKeys reports a test error if got does not name exactly the keys in
// want, in order.
func CheckKeys(t *testing.T, got []scriptobj.Key, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("wrong keys: want %q, got %v", want, got)
		return
	}
	for i, k := range got {
		if k != scriptobj.KeyOf(want[i]) {
			t.Errorf("wrong keys: want %q, got %v", want, got)
			return
		}
	}
}

// An ErrorTestCase is a test case for an operation that may fail.
type ErrorTestCase struct {
	// Op performs the operation.
	Op func(vm *scriptobj.VM) error
	// Pass is a predicate taking the operation's error. If Pass returns
	// false, then the test fails.
	Pass func(err error) bool
}

// TestFunc returns a test function for the test case. This uses TestingVM
// unless vm is not nil.
func (c ErrorTestCase) TestFunc(vm *scriptobj.VM) func(*testing.T) {
	return func(t *testing.T) {
		if vm == nil {
			vm = TestingVM()
		}
		if err := c.Op(vm); !c.Pass(err) {
			t.Errorf("wrong result: got error %v", err)
		}
	}
}

// PassSuccess returns a Pass function for an ErrorTestCase that returns true
// iff there is no error.
func PassSuccess() func(error) bool {
	return func(err error) bool {
		return err == nil
	}
}

// PassKind returns a Pass function for an ErrorTestCase that returns true iff
// the error is a scriptobj.Error of the given kind.
func PassKind(kind scriptobj.ErrorKind) func(error) bool {
	return func(err error) bool {
		var e *scriptobj.Error
		return errors.As(err, &e) && e.Kind == kind
	}
}
