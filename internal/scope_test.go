package internal_test

import (
	"errors"
	"testing"

	"github.com/zephyrtronium/scriptobj"
	"github.com/zephyrtronium/scriptobj/testutils"
)

// scopes builds global <- with(target) <- call <- block and returns them.
func scopes(vm *scriptobj.VM) (global, target, with, call, block *scriptobj.Object) {
	global = vm.NewScope(nil)
	target = vm.NewObject(nil)
	with = vm.NewWithScope(target, global)
	call = vm.NewCallScope(with)
	block = vm.NewScope(call)
	return
}

// TestName tests identifier resolution through each kind of frame.
func TestName(t *testing.T) {
	vm := testutils.TestingVM()
	global, target, _, call, block := scopes(vm)
	targetProto := vm.NewObject(nil)
	if err := target.SetPrototype(targetProto); err != nil {
		t.Fatal(err)
	}
	vm.Put(global, scriptobj.KeyOf("g"), "global")
	vm.Put(global, scriptobj.KeyOf("shadowed"), "global")
	vm.Put(targetProto, scriptobj.KeyOf("w"), "with")
	vm.Put(target, scriptobj.KeyOf("shadowed"), "with")
	vm.Put(call, scriptobj.KeyOf("local"), "call")
	vm.Put(block, scriptobj.KeyOf("b"), "block")
	cases := map[string]scriptobj.Value{
		"g":        "global",
		"shadowed": "with",
		"w":        "with",
		"local":    "call",
		"b":        "block",
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			v, err := vm.Name(block, name)
			if err != nil {
				t.Fatal(err)
			}
			if v != want {
				t.Errorf("wrong value: want %v, got %v", want, v)
			}
		})
	}
	t.Run("unresolved", func(t *testing.T) {
		_, err := vm.Name(block, "nowhere")
		if !errors.Is(err, scriptobj.ErrUnresolved) {
			t.Errorf("wrong error: %v", err)
		}
		v, err := vm.TypeofName(block, "nowhere")
		if err != nil || v != scriptobj.Undefined {
			t.Errorf("wrong typeof result: %v, %v", v, err)
		}
	})
}

// TestCallFrameFlat tests that call frames do not delegate to their
// prototypes during identifier resolution.
func TestCallFrameFlat(t *testing.T) {
	vm := testutils.TestingVM()
	global := vm.NewScope(nil)
	call := vm.NewCallScope(global)
	proto := vm.NewObject(nil)
	if err := call.SetPrototype(proto); err != nil {
		t.Fatal(err)
	}
	vm.Put(proto, scriptobj.KeyOf("hidden"), 1)
	vm.Put(global, scriptobj.KeyOf("hidden"), 2)
	if v, _ := vm.Name(call, "hidden"); v != 2 {
		t.Errorf("call frame exposed its prototype: got %v", v)
	}
}

// TestNameAndThis tests the receiver chosen for calls by name.
func TestNameAndThis(t *testing.T) {
	vm := testutils.TestingVM()
	global, target, _, call, block := scopes(vm)
	vm.Put(global, scriptobj.KeyOf("g"), 1)
	vm.Put(target, scriptobj.KeyOf("w"), 2)
	vm.Put(call, scriptobj.KeyOf("c"), 3)
	vm.Put(block, scriptobj.KeyOf("b"), 4)
	cases := map[string]*scriptobj.Object{
		"g": global,
		"w": target,
		"c": global,
		"b": block,
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			_, this, err := vm.NameAndThis(block, name)
			if err != nil {
				t.Fatal(err)
			}
			if this != want {
				t.Errorf("wrong receiver: want %p, got %p", want, this)
			}
		})
	}
	if _, _, err := vm.NameAndThis(block, "nowhere"); !errors.Is(err, scriptobj.ErrUnresolved) {
		t.Errorf("wrong error: %v", err)
	}
}

// TestSetName tests assignment through bindings and implicit globals.
func TestSetName(t *testing.T) {
	t.Run("bound", func(t *testing.T) {
		vm := testutils.TestingVM()
		global, target, with, call, block := scopes(vm)
		vm.Put(target, scriptobj.KeyOf("w"), 0)
		vm.Put(call, scriptobj.KeyOf("c"), 0)
		for _, name := range []string{"w", "c"} {
			bound := vm.Bind(block, name)
			if err := vm.SetName(bound, block, name, 1); err != nil {
				t.Fatal(err)
			}
		}
		if v, _ := vm.GetOwn(target, scriptobj.KeyOf("w")); v != 1 {
			t.Errorf("with write went elsewhere: target has %v", v)
		}
		if with.HasOwn(scriptobj.KeyOf("w")) || global.HasOwn(scriptobj.KeyOf("w")) {
			t.Error("with write created a property")
		}
		if v, _ := vm.GetOwn(call, scriptobj.KeyOf("c")); v != 1 {
			t.Errorf("call write went elsewhere: call has %v", v)
		}
	})
	t.Run("implicit", func(t *testing.T) {
		vm := testutils.TestingVM()
		global, _, _, _, block := scopes(vm)
		if b := vm.Bind(block, "fresh"); b != nil {
			t.Fatalf("unbound name bound to %p", b)
		}
		if err := vm.SetName(nil, block, "fresh", 1); err != nil {
			t.Fatal(err)
		}
		if v, _ := vm.GetOwn(global, scriptobj.KeyOf("fresh")); v != 1 {
			t.Errorf("implicit global not created: %v", v)
		}
		if v, _ := vm.Name(block, "fresh"); v != 1 {
			t.Errorf("implicit global not visible: %v", v)
		}
	})
	t.Run("strict", func(t *testing.T) {
		vm := testutils.TestingVM().Fork()
		vm.SetStrictBinding(true)
		global, _, _, _, block := scopes(vm)
		err := vm.SetName(vm.Bind(block, "fresh"), block, "fresh", 1)
		if !errors.Is(err, scriptobj.ErrUnresolved) {
			t.Errorf("wrong error: %v", err)
		}
		if global.HasOwn(scriptobj.KeyOf("fresh")) {
			t.Error("strict binding created a global")
		}
	})
	t.Run("bind-before-evaluate", func(t *testing.T) {
		vm := testutils.TestingVM()
		global, _, _, call, block := scopes(vm)
		vm.Put(global, scriptobj.KeyOf("x"), 0)
		bound := vm.Bind(block, "x")
		// The right-hand side declares x in the call frame.
		vm.Put(call, scriptobj.KeyOf("x"), "local")
		if err := vm.SetName(bound, block, "x", 1); err != nil {
			t.Fatal(err)
		}
		if v, _ := vm.GetOwn(global, scriptobj.KeyOf("x")); v != 1 {
			t.Errorf("assignment missed its binding: global has %v", v)
		}
		if v, _ := vm.GetOwn(call, scriptobj.KeyOf("x")); v != "local" {
			t.Errorf("assignment hit the new binding: call has %v", v)
		}
	})
}

// TestSetConst tests const initialization through bindings.
func TestSetConst(t *testing.T) {
	vm := testutils.TestingVM()
	global := vm.NewScope(nil)
	block := vm.NewScope(global)
	if err := global.DefineConst(scriptobj.KeyOf("c")); err != nil {
		t.Fatal(err)
	}
	bound := vm.Bind(block, "c")
	if bound != global {
		t.Fatalf("const bound to %p, not global %p", bound, global)
	}
	if err := vm.SetConst(bound, "c", 1); err != nil {
		t.Fatal(err)
	}
	if err := vm.SetConst(bound, "c", 2); !errors.Is(err, scriptobj.ErrRedeclaration) {
		t.Errorf("wrong error initializing twice: %v", err)
	}
	if v, _ := vm.Name(block, "c"); v != 1 {
		t.Errorf("wrong const value: %v", v)
	}
}

// TestDeleteName tests deletion through bindings.
func TestDeleteName(t *testing.T) {
	vm := testutils.TestingVM()
	global := vm.NewScope(nil)
	block := vm.NewScope(global)
	vm.Put(global, scriptobj.KeyOf("x"), 1)
	if err := global.Declare(scriptobj.KeyOf("v"), scriptobj.DeclVar); err != nil {
		t.Fatal(err)
	}
	if ok, err := vm.DeleteName(block, "x"); !ok || err != nil {
		t.Errorf("couldn't delete x: %v, %v", ok, err)
	}
	if global.HasOwn(scriptobj.KeyOf("x")) {
		t.Error("x remains")
	}
	if ok, err := vm.DeleteName(block, "v"); ok || err != nil {
		t.Errorf("wrong result deleting var: %v, %v", ok, err)
	}
	if ok, err := vm.DeleteName(block, "nowhere"); !ok || err != nil {
		t.Errorf("wrong result deleting unbound name: %v, %v", ok, err)
	}
}

// TestDynamicScope tests substitution of the dynamic top scope.
func TestDynamicScope(t *testing.T) {
	cfg := scriptobj.DefaultConfig()
	cfg.DynamicScope = true
	vm := scriptobj.NewVM(cfg)
	static := vm.NewScope(nil)
	block := vm.NewScope(static)
	vm.Put(static, scriptobj.KeyOf("shared"), "static")

	dynamic := vm.NewObject(static)
	vm.Put(dynamic, scriptobj.KeyOf("own"), "dynamic")
	unrelated := vm.NewObject(nil)
	vm.Put(unrelated, scriptobj.KeyOf("own"), "unrelated")

	if scriptobj.CheckDynamicScope(dynamic, static) != dynamic {
		t.Error("dynamic scope inheriting from static top not chosen")
	}
	if scriptobj.CheckDynamicScope(unrelated, static) != static {
		t.Error("unrelated dynamic scope chosen")
	}

	vm.SetDynamicTopScope(dynamic)
	if v, err := vm.Name(block, "own"); err != nil || v != "dynamic" {
		t.Errorf("wrong dynamic resolution: %v, %v", v, err)
	}
	if v, err := vm.Name(block, "shared"); err != nil || v != "static" {
		t.Errorf("dynamic scope lost static names: %v, %v", v, err)
	}
	if err := vm.SetName(nil, block, "implicit", 1); err != nil {
		t.Fatal(err)
	}
	if !dynamic.HasOwn(scriptobj.KeyOf("implicit")) || static.HasOwn(scriptobj.KeyOf("implicit")) {
		t.Error("implicit global not created on the dynamic scope")
	}

	vm.SetDynamicTopScope(unrelated)
	if _, err := vm.Name(block, "own"); !errors.Is(err, scriptobj.ErrUnresolved) {
		t.Errorf("unrelated dynamic scope was used: %v", err)
	}

	off := testutils.TestingVM().Fork()
	off.SetDynamicTopScope(dynamic)
	if _, err := off.Name(block, "own"); !errors.Is(err, scriptobj.ErrUnresolved) {
		t.Errorf("dynamic scope used while disabled: %v", err)
	}
}

// TestTopLevelScope tests walking to the outermost frame.
func TestTopLevelScope(t *testing.T) {
	vm := testutils.TestingVM()
	global, _, with, call, block := scopes(vm)
	for _, o := range []*scriptobj.Object{global, with, call, block} {
		if scriptobj.TopLevelScope(o) != global {
			t.Errorf("wrong top-level scope for %v frame", o.Kind())
		}
	}
}
