package internal

// find locates the slot for k on o or its nearest ancestor, returning the slot
// and the object which owns it. Both are nil if no object in the chain has
// the property.
func (vm *VM) find(o *Object, k Key) (*slot, *Object) {
	if o == nil {
		return nil, nil
	}
	// Check o itself before setting up the walk.
	if s := o.slots.query(k); s != nil {
		return s, o
	}
	p := o.Prototype()
	if p == nil {
		return nil, nil
	}
	vm.walkStart(o)
	for ; p != nil && vm.walkVisit(p); p = p.Prototype() {
		if s := p.slots.query(k); s != nil {
			return s, p
		}
	}
	return nil, nil
}

// Get returns the value of the property k of o, searching o's prototype
// chain. Getters found anywhere in the chain are called with o as the
// receiver. The result is NotFound if no object in the chain has the
// property.
func (vm *VM) Get(o *Object, k Key) (Value, error) {
	return vm.getWithThis(o, k, o)
}

// GetOwn is like Get, but it only checks o's own properties.
func (vm *VM) GetOwn(o *Object, k Key) (Value, error) {
	s := o.slots.query(k)
	if s == nil {
		return NotFound, nil
	}
	return vm.slotValue(o, s, o)
}

// getWithThis searches for k starting at holder and reads it with this as the
// receiver for getters.
func (vm *VM) getWithThis(holder *Object, k Key, this *Object) (Value, error) {
	s, owner := vm.find(holder, k)
	if s == nil {
		return NotFound, nil
	}
	return vm.slotValue(owner, s, this)
}

// slotValue reads s, which belongs to owner, on behalf of this.
func (vm *VM) slotValue(owner *Object, s *slot, this *Object) (Value, error) {
	switch s.kind {
	case dataSlot:
		return s.load(), nil
	case accessorSlot:
		if l := s.pending(); l != nil {
			v, err := l.get(vm, s.key)
			if err != nil {
				return nil, err
			}
			owner.materialize(s)
			return v, nil
		}
		getter, _ := s.accessors()
		if getter == nil {
			return Undefined, nil
		}
		return getter.Call(vm, this)
	default:
		panic("scriptobj: invalid slot kind")
	}
}

// Has returns whether o or any object in its prototype chain has the property
// k.
func (vm *VM) Has(o *Object, k Key) bool {
	s, _ := vm.find(o, k)
	return s != nil
}

// Put assigns v to the property k of o.
//
// If some object in o's prototype chain, including o, has the property, then
// the nearest such object's property is assigned, unless it is read-only, in
// which case the write is ignored. Accessor setters are called with o as the
// receiver. If no object in the chain has the property, it is created on o,
// provided o is extensible; creating a property on a sealed object is an
// error.
//
// In strict mode, ignored writes are TypeErrors instead.
func (vm *VM) Put(o *Object, k Key, v Value) error {
	for {
		s, owner := vm.find(o, k)
		if s == nil {
			done, err := vm.createOwn(o, k, v)
			if done || err != nil {
				return err
			}
			// Someone created the property while we weren't looking.
			continue
		}
		done, err := vm.putSlot(o, owner, s, v)
		if done || err != nil {
			return err
		}
	}
}

// putSlot assigns v through s, which belongs to owner, on behalf of receiver.
// It returns false without error if the write should be retried because the
// slot was removed or replaced.
func (vm *VM) putSlot(receiver, owner *Object, s *slot, v Value) (bool, error) {
	switch s.kind {
	case dataSlot:
		if s.getAttrs()&ReadOnly != 0 {
			if vm.cfg.Strict {
				return true, newError(TypeError, s.key, "cannot assign to read-only property %q", s.key)
			}
			return true, nil
		}
		if owner != receiver && vm.cfg.ShadowInheritedWrites {
			return vm.createOwn(receiver, s.key, v)
		}
		if s.deleted.Load() {
			return false, nil
		}
		s.store(v)
		return true, nil
	case accessorSlot:
		if s.pending() != nil {
			return vm.replaceLazy(owner, s, v)
		}
		_, setter := s.accessors()
		if setter == nil {
			if vm.cfg.Strict {
				return true, newError(TypeError, s.key, "property %q has no setter", s.key)
			}
			return true, nil
		}
		_, err := setter.Call(vm, receiver, v)
		return true, err
	default:
		panic("scriptobj: invalid slot kind")
	}
}

// replaceLazy overwrites a lazily initialized property with a plain value.
func (vm *VM) replaceLazy(owner *Object, s *slot, v Value) (bool, error) {
	if s.getAttrs()&ReadOnly != 0 {
		if vm.cfg.Strict {
			return true, newError(TypeError, s.key, "cannot assign to read-only property %q", s.key)
		}
		return true, nil
	}
	owner.slots.mu.Lock()
	defer owner.slots.mu.Unlock()
	if owner.slots.lookupLocked(s.key, query, nil) != s {
		return false, nil
	}
	owner.slots.lookupLocked(s.key, convertToData, func(r *slot) { r.store(v) })
	return true, nil
}

// createOwn creates the property k with value v on o. It returns false without
// error if o already has the property by the time it is locked.
func (vm *VM) createOwn(o *Object, k Key, v Value) (bool, error) {
	o.slots.mu.Lock()
	defer o.slots.mu.Unlock()
	if o.slots.lookupLocked(k, query, nil) != nil {
		return false, nil
	}
	if o.IsSealed() {
		return true, newError(SealedViolation, k, "cannot add %q to a sealed object", k)
	}
	if !o.IsExtensible() {
		if vm.cfg.Strict {
			return true, newError(TypeError, k, "cannot add %q to a non-extensible object", k)
		}
		return true, nil
	}
	o.slots.lookupLocked(k, createData, func(s *slot) { s.store(v) })
	return true, nil
}

// Delete removes the own property k of o. Inherited properties are never
// deleted. The result is false only if the property is permanent; deleting
// an absent property succeeds. Deleting from a sealed object is an error, as
// is deleting a permanent property in strict mode.
func (vm *VM) Delete(o *Object, k Key) (bool, error) {
	o.slots.mu.Lock()
	defer o.slots.mu.Unlock()
	if o.IsSealed() {
		return false, newError(SealedViolation, k, "cannot delete %q from a sealed object", k)
	}
	s := o.slots.lookupLocked(k, query, nil)
	if s == nil {
		return true, nil
	}
	if s.getAttrs()&Permanent != 0 {
		if vm.cfg.Strict {
			return false, newError(TypeError, k, "cannot delete permanent property %q", k)
		}
		return false, nil
	}
	o.slots.removeLocked(k)
	return true, nil
}
