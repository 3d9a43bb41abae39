package internal

import (
	"github.com/zephyrtronium/contains"
)

// VM is an engine handle for operating on objects. It carries the semantics
// chosen by its Config along with per-goroutine state, such as the dynamic
// top scope and scratch space for chain walks.
//
// A VM must not be used by more than one goroutine at a time. Objects, on the
// other hand, may be shared freely; use Fork to obtain a VM for another
// goroutine.
type VM struct {
	cfg Config

	// top is the dynamic top scope, used in place of the static top-level
	// scope when dynamic scope is enabled.
	top *Object

	// protoSet is the set of objects visited during a guarded chain walk.
	protoSet contains.Set
}

// NewVM creates a VM with the given configuration. Invalid configurations
// cause a panic; check them with Config.Validate first when they come from
// outside the program.
func NewVM(cfg Config) *VM {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if cfg.InitialCapacity == 0 {
		cfg.InitialCapacity = 4
	}
	return &VM{cfg: cfg}
}

// Fork creates a VM with the same configuration and dynamic top scope as vm,
// for use by another goroutine.
func (vm *VM) Fork() *VM {
	return &VM{cfg: vm.cfg, top: vm.top}
}

// Config returns the VM's configuration.
func (vm *VM) Config() Config {
	return vm.cfg
}

// SetStrict changes whether the VM raises errors for ignored writes.
func (vm *VM) SetStrict(strict bool) {
	vm.cfg.Strict = strict
}

// SetStrictBinding changes whether assignments to undeclared identifiers
// raise UnresolvedReference.
func (vm *VM) SetStrictBinding(strict bool) {
	vm.cfg.StrictBinding = strict
}

// DynamicTopScope returns the dynamic top scope, or nil if none is set.
func (vm *VM) DynamicTopScope() *Object {
	return vm.top
}

// SetDynamicTopScope sets the scope substituted for the static top-level
// scope during identifier resolution when dynamic scope is enabled. A nil
// scope disables the substitution.
func (vm *VM) SetDynamicTopScope(scope *Object) {
	vm.top = scope
}

// NewObject creates an empty, extensible object with the given prototype.
func (vm *VM) NewObject(proto *Object) *Object {
	o := newObject(vm.cfg.InitialCapacity, PlainScope)
	o.proto.Store(proto)
	return o
}

// NewScope creates a plain scope frame enclosed by parent. A nil parent
// creates a top-level scope.
func (vm *VM) NewScope(parent *Object) *Object {
	o := newObject(vm.cfg.InitialCapacity, PlainScope)
	o.parent.Store(parent)
	return o
}

// NewWithScope creates a with frame exposing the properties of target,
// enclosed by parent.
func (vm *VM) NewWithScope(target, parent *Object) *Object {
	if target == nil {
		panic("scriptobj: with frame needs a target")
	}
	o := newObject(vm.cfg.InitialCapacity, WithScope)
	o.target = target
	o.parent.Store(parent)
	return o
}

// NewCallScope creates a call frame for one function activation, enclosed by
// parent.
func (vm *VM) NewCallScope(parent *Object) *Object {
	o := newObject(vm.cfg.InitialCapacity, CallScope)
	o.parent.Store(parent)
	return o
}

// Seal seals the object, first materializing any lazily initialized
// properties. Sealing is permanent.
func (vm *VM) Seal(o *Object) error {
	if o.IsSealed() {
		return nil
	}
	var lazy []*slot
	o.slots.foreach(func(s *slot) bool {
		if s.pending() != nil {
			lazy = append(lazy, s)
		}
		return true
	})
	for _, s := range lazy {
		if _, err := s.pending().get(vm, s.key); err != nil {
			return err
		}
		o.materialize(s)
	}
	o.slots.mu.Lock()
	o.sealed.Store(true)
	o.slots.mu.Unlock()
	objectLog.Debug("sealed object", "object", o.UniqueID(), "materialized", len(lazy))
	return nil
}

// walkStart prepares a walk along a chain beginning at o. It reports whether
// the walk should visit o.
func (vm *VM) walkStart(o *Object) bool {
	if !vm.cfg.GuardCycles {
		return true
	}
	vm.protoSet.Reset()
	return vm.protoSet.Add(o.UniqueID())
}

// walkVisit reports whether a chain walk should visit o, which is false only
// if cycle guarding is enabled and o was already visited.
func (vm *VM) walkVisit(o *Object) bool {
	if !vm.cfg.GuardCycles {
		return true
	}
	return vm.protoSet.Add(o.UniqueID())
}
