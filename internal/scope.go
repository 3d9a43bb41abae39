package internal

import (
	"github.com/zephyrtronium/contains"
)

// TopLevelScope returns the outermost frame of o's scope chain, which is o
// itself if it has no parent.
func TopLevelScope(o *Object) *Object {
	for {
		p := o.ParentScope()
		if p == nil {
			return o
		}
		o = p
	}
}

// CheckDynamicScope returns the scope to use in place of the static top-level
// scope. The dynamic scope is used when it is the static scope or has it
// somewhere on its prototype chain; otherwise the static scope is kept.
func CheckDynamicScope(dynamic, static *Object) *Object {
	if dynamic == nil || dynamic == static {
		return static
	}
	var seen contains.Set
	for p := dynamic.Prototype(); p != nil && seen.Add(p.UniqueID()); p = p.Prototype() {
		if p == static {
			return dynamic
		}
	}
	return static
}

// topScope returns the top-level scope of scope, substituting the dynamic top
// scope if the VM uses one.
func (vm *VM) topScope(scope *Object) *Object {
	return vm.substitute(TopLevelScope(scope))
}

// substitute applies dynamic scope to a top-level frame.
func (vm *VM) substitute(top *Object) *Object {
	if !vm.cfg.DynamicScope || vm.top == nil {
		return top
	}
	return CheckDynamicScope(vm.top, top)
}

// frameGet reads k as exposed by a single scope frame. The result is NotFound
// if the frame does not expose k. holder is the object that was searched.
func (vm *VM) frameGet(frame *Object, k Key) (v Value, holder *Object, err error) {
	switch frame.kind {
	case CallScope:
		v, err = vm.GetOwn(frame, k)
		return v, frame, err
	case WithScope:
		v, err = vm.Get(frame.target, k)
		return v, frame.target, err
	default:
		v, err = vm.Get(frame, k)
		return v, frame, err
	}
}

// frameHas reports whether a single scope frame exposes k.
func (vm *VM) frameHas(frame *Object, k Key) bool {
	switch frame.kind {
	case CallScope:
		return frame.HasOwn(k)
	case WithScope:
		return vm.Has(frame.target, k)
	default:
		return vm.Has(frame, k)
	}
}

// eachFrame calls exec on each frame of the scope chain from scope outward,
// with the top-level frame replaced according to dynamic scope, until exec
// returns false.
func (vm *VM) eachFrame(scope *Object, exec func(frame *Object) bool) {
	var seen contains.Set
	for f := scope; f != nil; {
		if vm.cfg.GuardCycles && !seen.Add(f.UniqueID()) {
			scopeLog.Warning("scope chain revisits a frame", "frame", f.UniqueID())
			return
		}
		next := f.ParentScope()
		cur := f
		if next == nil {
			cur = vm.substitute(f)
		}
		if !exec(cur) {
			return
		}
		f = next
	}
}

// lookupName finds the nearest frame exposing k. It returns NotFound and nil
// frames if no frame does.
func (vm *VM) lookupName(scope *Object, k Key) (v Value, frame, holder *Object, err error) {
	v = NotFound
	vm.eachFrame(scope, func(f *Object) bool {
		var h *Object
		v, h, err = vm.frameGet(f, k)
		if err != nil {
			return false
		}
		if v != NotFound {
			frame, holder = f, h
			return false
		}
		return true
	})
	return v, frame, holder, err
}

// Name returns the value of the identifier name as seen from scope. It is an
// UnresolvedReference if no frame of the scope chain binds the name.
func (vm *VM) Name(scope *Object, name string) (Value, error) {
	k := KeyOf(name)
	v, _, _, err := vm.lookupName(scope, k)
	if err != nil {
		return nil, err
	}
	if v == NotFound {
		return nil, newError(UnresolvedReference, k, "%s is not defined", name)
	}
	return v, nil
}

// TypeofName is like Name, but an unresolved identifier evaluates to
// Undefined instead of an error.
func (vm *VM) TypeofName(scope *Object, name string) (Value, error) {
	v, _, _, err := vm.lookupName(scope, KeyOf(name))
	if err != nil {
		return nil, err
	}
	if v == NotFound {
		return Undefined, nil
	}
	return v, nil
}

// NameAndThis returns the value of the identifier name along with the
// receiver to use when calling it. Names found in a call frame are called on
// the top-level scope, names found in a with frame on the with target, and
// other names on the frame which binds them.
func (vm *VM) NameAndThis(scope *Object, name string) (Value, *Object, error) {
	k := KeyOf(name)
	v, frame, holder, err := vm.lookupName(scope, k)
	if err != nil {
		return nil, nil, err
	}
	if v == NotFound {
		return nil, nil, newError(UnresolvedReference, k, "%s is not defined", name)
	}
	switch frame.kind {
	case CallScope:
		return v, vm.topScope(frame), nil
	case WithScope:
		return v, holder, nil
	default:
		return v, frame, nil
	}
}

// Bind returns the frame of scope's chain which binds name, or nil if there
// is none. Assignments bind before evaluating their right-hand side, so the
// result identifies the target even if evaluation creates the name elsewhere.
func (vm *VM) Bind(scope *Object, name string) *Object {
	k := KeyOf(name)
	var bound *Object
	vm.eachFrame(scope, func(f *Object) bool {
		if vm.frameHas(f, k) {
			bound = f
			return false
		}
		return true
	})
	return bound
}

// writeTarget returns the object which receives writes through a bound
// frame.
func writeTarget(bound *Object) *Object {
	if bound.kind == WithScope {
		return bound.target
	}
	return bound
}

// SetName assigns value to the identifier name using the frame bound by a
// previous call to Bind. If bound is nil, the name is created on the
// top-level scope of scope, unless the VM uses strict binding, in which case
// it is an UnresolvedReference.
func (vm *VM) SetName(bound, scope *Object, name string, value Value) error {
	k := KeyOf(name)
	if bound == nil {
		if vm.cfg.StrictBinding {
			return newError(UnresolvedReference, k, "assignment to undeclared %s", name)
		}
		top := vm.topScope(scope)
		scopeLog.Debug("implicit global", "name", name, "scope", top.UniqueID())
		return vm.Put(top, k, value)
	}
	return vm.Put(writeTarget(bound), k, value)
}

// SetConst performs the initializing assignment of the const name through a
// bound frame. The const is initialized on the object that owns it, or
// created on the frame if nothing owns it.
func (vm *VM) SetConst(bound *Object, name string, value Value) error {
	if bound == nil {
		panic("scriptobj: SetConst with no bound frame")
	}
	k := KeyOf(name)
	o := writeTarget(bound)
	if bound.kind != CallScope {
		if _, owner := vm.find(o, k); owner != nil {
			o = owner
		}
	}
	return o.InitConst(k, value)
}

// DeleteName deletes the identifier name from the frame that binds it. The
// result is true if the name is unbound or was deleted, and false if its
// binding is permanent.
func (vm *VM) DeleteName(scope *Object, name string) (bool, error) {
	bound := vm.Bind(scope, name)
	if bound == nil {
		return true, nil
	}
	return vm.Delete(writeTarget(bound), KeyOf(name))
}
