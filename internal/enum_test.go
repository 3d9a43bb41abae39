package internal_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/zephyrtronium/scriptobj"
	"github.com/zephyrtronium/scriptobj/testutils"
)

// keyNames converts enumerated keys to their names.
func keyNames(t *testing.T, vs []scriptobj.Value) []string {
	t.Helper()
	r := make([]string, len(vs))
	for i, v := range vs {
		k, ok := v.(scriptobj.Key)
		if !ok {
			t.Fatalf("enumeration produced non-key %v", v)
		}
		r[i] = k.Name()
	}
	return r
}

// sameStrings reports whether a and b are equal.
func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestEnumerateChain tests order, deduplication, and shadow precedence across
// a prototype chain.
func TestEnumerateChain(t *testing.T) {
	vm := testutils.TestingVM()
	proto := vm.NewObject(nil)
	obj := vm.NewObject(proto)
	proto.DefineData(scriptobj.KeyOf("a"), "proto-a", scriptobj.Empty)
	proto.DefineData(scriptobj.KeyOf("b"), "proto-b", scriptobj.Empty)
	proto.DefineData(scriptobj.KeyOf("hidden"), "proto-hidden", scriptobj.Empty)
	proto.DefineData(scriptobj.KeyOf("secret"), "proto-secret", scriptobj.DontEnum)
	obj.DefineData(scriptobj.KeyOf("c"), "own-c", scriptobj.Empty)
	obj.DefineData(scriptobj.KeyOf("b"), "own-b", scriptobj.Empty)
	obj.DefineData(scriptobj.KeyOf("hidden"), "own-hidden", scriptobj.DontEnum)

	keys, err := testutils.Collect(vm, obj, scriptobj.EnumKeys)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"c", "b", "a"}
	if got := keyNames(t, keys); !sameStrings(got, want) {
		t.Errorf("wrong keys: want %q, got %q", want, got)
	}

	entries, err := testutils.Collect(vm, obj, scriptobj.EnumEntries)
	if err != nil {
		t.Fatal(err)
	}
	wantEntries := []scriptobj.Entry{
		{Key: scriptobj.KeyOf("c"), Value: "own-c"},
		{Key: scriptobj.KeyOf("b"), Value: "own-b"},
		{Key: scriptobj.KeyOf("a"), Value: "proto-a"},
	}
	if len(entries) != len(wantEntries) {
		t.Fatalf("wrong entries: %v", entries)
	}
	for i, e := range entries {
		if e != wantEntries[i] {
			t.Errorf("wrong entry %d: want %v, got %v", i, wantEntries[i], e)
		}
	}

	values, err := testutils.Collect(vm, obj, scriptobj.EnumValues)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(values) != "[own-c own-b proto-a]" {
		t.Errorf("wrong values: %v", values)
	}
}

// TestEnumerateMutation tests enumeration while the object changes.
func TestEnumerateMutation(t *testing.T) {
	vm := testutils.TestingVM()
	obj := vm.NewObject(nil)
	for _, name := range []string{"a", "b", "c", "d"} {
		vm.Put(obj, scriptobj.KeyOf(name), name)
	}
	e, err := vm.Enumerate(obj, scriptobj.EnumKeys)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for {
		ok, err := e.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got = append(got, e.Key().Name())
		if e.Key() == scriptobj.KeyOf("a") {
			vm.Delete(obj, scriptobj.KeyOf("c"))
			vm.Put(obj, scriptobj.KeyOf("e"), "e")
		}
	}
	want := []string{"a", "b", "d"}
	if !sameStrings(got, want) {
		t.Errorf("wrong keys: want %q, got %q", want, got)
	}
}

// TestEnumerateGetterReceiver tests that inherited getters read during
// enumeration see the enumerated object as their receiver.
func TestEnumerateGetterReceiver(t *testing.T) {
	vm := testutils.TestingVM()
	proto := vm.NewObject(nil)
	obj := vm.NewObject(proto)
	proto.DefineAccessor(scriptobj.KeyOf("self"), testutils.Receiver(), nil, scriptobj.Empty)
	vals, err := testutils.Collect(vm, obj, scriptobj.EnumValues)
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 1 || vals[0] != obj {
		t.Errorf("wrong values: %v", vals)
	}
}

// counter creates an iterator object whose next function counts to n.
func counter(vm *scriptobj.VM, n int, stop func() (scriptobj.Value, error)) *scriptobj.Object {
	it := vm.NewObject(nil)
	i := 0
	next := scriptobj.NativeFunc(func(vm *scriptobj.VM, this *scriptobj.Object, args ...scriptobj.Value) (scriptobj.Value, error) {
		if i >= n {
			return stop()
		}
		i++
		return i - 1, nil
	})
	it.DefineData(scriptobj.KeyOf("next"), next, scriptobj.Empty)
	return it
}

// TestCustomIterator tests the __iterator__ protocol.
func TestCustomIterator(t *testing.T) {
	cases := map[string]func() (scriptobj.Value, error){
		"value": func() (scriptobj.Value, error) {
			return scriptobj.StopIteration, nil
		},
		"error": func() (scriptobj.Value, error) {
			return nil, fmt.Errorf("done: %w", scriptobj.ErrStopIteration)
		},
	}
	for name, stop := range cases {
		t.Run(name, func(t *testing.T) {
			vm := testutils.TestingVM()
			obj := vm.NewObject(nil)
			vm.Put(obj, scriptobj.KeyOf("ignored"), 1)
			var gotThis *scriptobj.Object
			var gotFlag scriptobj.Value
			iter := scriptobj.NativeFunc(func(vm *scriptobj.VM, this *scriptobj.Object, args ...scriptobj.Value) (scriptobj.Value, error) {
				gotThis, gotFlag = this, args[0]
				return counter(vm, 3, stop), nil
			})
			obj.DefineData(scriptobj.KeyOf(scriptobj.IteratorName), iter, scriptobj.DontEnum)
			vals, err := testutils.Collect(vm, obj, scriptobj.EnumValues)
			if err != nil {
				t.Fatal(err)
			}
			if gotThis != obj || gotFlag != false {
				t.Errorf("iterator called with this %p, flag %v", gotThis, gotFlag)
			}
			if fmt.Sprint(vals) != "[0 1 2]" {
				t.Errorf("wrong values: %v", vals)
			}
		})
	}
	t.Run("keys", func(t *testing.T) {
		vm := testutils.TestingVM()
		obj := vm.NewObject(nil)
		iter := scriptobj.NativeFunc(func(vm *scriptobj.VM, this *scriptobj.Object, args ...scriptobj.Value) (scriptobj.Value, error) {
			if args[0] != true {
				t.Errorf("keys-only flag not set")
			}
			return counter(vm, 2, func() (scriptobj.Value, error) { return scriptobj.StopIteration, nil }), nil
		})
		obj.DefineData(scriptobj.KeyOf(scriptobj.IteratorName), iter, scriptobj.DontEnum)
		e, err := vm.Enumerate(obj, scriptobj.EnumKeys)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; ; i++ {
			ok, err := e.Next()
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				if i != 2 {
					t.Errorf("iteration ended after %d", i)
				}
				break
			}
			if e.Key() != scriptobj.IndexKey(i) {
				t.Errorf("wrong key %d: %v", i, e.Key())
			}
		}
	})
	t.Run("failure", func(t *testing.T) {
		vm := testutils.TestingVM()
		obj := vm.NewObject(nil)
		boom := errors.New("boom")
		iter := scriptobj.NativeFunc(func(vm *scriptobj.VM, this *scriptobj.Object, args ...scriptobj.Value) (scriptobj.Value, error) {
			return counter(vm, 1, func() (scriptobj.Value, error) { return nil, boom }), nil
		})
		obj.DefineData(scriptobj.KeyOf(scriptobj.IteratorName), iter, scriptobj.DontEnum)
		_, err := testutils.Collect(vm, obj, scriptobj.EnumKeys)
		if !errors.Is(err, boom) {
			t.Errorf("wrong error: %v", err)
		}
	})
	t.Run("keyless", func(t *testing.T) {
		vm := testutils.TestingVM()
		obj := vm.NewObject(nil)
		other := vm.NewObject(nil)
		results := []scriptobj.Value{1.5, other, -1, "", 2, scriptobj.StopIteration}
		want := []bool{false, false, false, true, true}
		iter := scriptobj.NativeFunc(func(vm *scriptobj.VM, this *scriptobj.Object, args ...scriptobj.Value) (scriptobj.Value, error) {
			it := vm.NewObject(nil)
			i := 0
			next := scriptobj.NativeFunc(func(vm *scriptobj.VM, this *scriptobj.Object, args ...scriptobj.Value) (scriptobj.Value, error) {
				i++
				return results[i-1], nil
			})
			it.DefineData(scriptobj.KeyOf("next"), next, scriptobj.Empty)
			return it, nil
		})
		obj.DefineData(scriptobj.KeyOf(scriptobj.IteratorName), iter, scriptobj.DontEnum)
		e, err := vm.Enumerate(obj, scriptobj.EnumKeys)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; ; i++ {
			ok, err := e.Next()
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				if i != len(want) {
					t.Errorf("iteration ended after %d", i)
				}
				break
			}
			if e.HasKey() != want[i] {
				t.Errorf("result %d (%v): want HasKey %t, got %t", i, results[i], want[i], e.HasKey())
			}
			if cur, _ := e.Current(); cur != results[i] {
				t.Errorf("wrong current element %d: want %v, got %v", i, results[i], cur)
			}
		}
	})
	t.Run("not-object", func(t *testing.T) {
		vm := testutils.TestingVM()
		obj := vm.NewObject(nil)
		iter := scriptobj.NativeFunc(func(vm *scriptobj.VM, this *scriptobj.Object, args ...scriptobj.Value) (scriptobj.Value, error) {
			return 1, nil
		})
		obj.DefineData(scriptobj.KeyOf(scriptobj.IteratorName), iter, scriptobj.DontEnum)
		if _, err := vm.Enumerate(obj, scriptobj.EnumKeys); !errors.Is(err, scriptobj.ErrType) {
			t.Errorf("wrong error: %v", err)
		}
	})
}

// BenchmarkEnumerate measures enumeration of a small prototype chain.
func BenchmarkEnumerate(b *testing.B) {
	vm := testutils.TestingVM()
	chain := testutils.Chain(vm, 4)
	for i, o := range chain {
		for j := 0; j < 8; j++ {
			vm.Put(o, scriptobj.KeyOf(fmt.Sprintf("k%d_%d", i, j)), j)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e, _ := vm.Enumerate(chain[0], scriptobj.EnumKeys)
		for ok, _ := e.Next(); ok; ok, _ = e.Next() {
		}
	}
}
