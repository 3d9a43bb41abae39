package internal

import (
	"sync/atomic"

	"github.com/zephyrtronium/contains"
)

// ScopeKind distinguishes the behavior of an object used as a scope frame.
type ScopeKind uint8

const (
	// PlainScope frames resolve identifiers through their own prototype
	// chain, like any other object.
	PlainScope ScopeKind = iota
	// WithScope frames expose the properties of a target object as if they
	// were the frame's own, without delegating through the frame itself.
	WithScope
	// CallScope frames hold the parameters and locals of one function
	// activation in a flat namespace with no prototype delegation.
	CallScope
)

// String returns the name of the scope kind.
func (k ScopeKind) String() string {
	switch k {
	case PlainScope:
		return "PlainScope"
	case WithScope:
		return "WithScope"
	case CallScope:
		return "CallScope"
	default:
		return "ScopeKind(?)"
	}
}

// Object is a property-bearing entity of the scripting language. Objects are
// safe for concurrent use by multiple goroutines, each with its own VM.
//
// Always use VM.NewObject or one of the scope constructors to obtain new
// objects. The zero Object is not usable.
type Object struct {
	// slots is the object's property table.
	slots slotMap
	// proto is the next object in the prototype chain. It is not owned.
	proto atomic.Pointer[Object]
	// parent is the next frame in the scope chain. It is not owned.
	parent atomic.Pointer[Object]

	// kind is the object's behavior as a scope frame.
	kind ScopeKind
	// target is the wrapped object of a with frame.
	target *Object

	// frozen is set by PreventExtensions. It is stored inverted so that new
	// objects are extensible.
	frozen atomic.Bool
	// sealed is set by Seal and never cleared.
	sealed atomic.Bool
}

// newObject creates an object with an empty table of the given initial
// capacity.
func newObject(capacity int, kind ScopeKind) *Object {
	o := &Object{kind: kind}
	o.slots.initCap = capacity
	return o
}

// Prototype returns the object's prototype, or nil if it has none.
func (o *Object) Prototype() *Object {
	return o.proto.Load()
}

// SetPrototype sets the object's prototype. A nil prototype ends the chain.
// SetPrototype fails with CyclicChain if o is reachable from p through
// prototype links.
func (o *Object) SetPrototype(p *Object) error {
	if reaches(p, o, (*Object).Prototype) {
		objectLog.Warning("rejected cyclic prototype", "object", o.UniqueID(), "prototype", p.UniqueID())
		return newError(CyclicChain, Key{}, "cyclic prototype value")
	}
	o.proto.Store(p)
	return nil
}

// ParentScope returns the enclosing scope frame, or nil if o is a top-level
// scope.
func (o *Object) ParentScope() *Object {
	return o.parent.Load()
}

// SetParentScope sets the enclosing scope frame. SetParentScope fails with
// CyclicChain if o is reachable from p through parent links.
func (o *Object) SetParentScope(p *Object) error {
	if reaches(p, o, (*Object).ParentScope) {
		objectLog.Warning("rejected cyclic parent scope", "object", o.UniqueID(), "parent", p.UniqueID())
		return newError(CyclicChain, Key{}, "cyclic parent scope")
	}
	o.parent.Store(p)
	return nil
}

// reaches returns whether following link from start arrives at goal. It
// tolerates cycles that already exist past start.
func reaches(start, goal *Object, link func(*Object) *Object) bool {
	set := contains.Set{}
	for p := start; p != nil; p = link(p) {
		if p == goal {
			return true
		}
		if !set.Add(p.UniqueID()) {
			return false
		}
	}
	return false
}

// Kind returns the object's behavior as a scope frame.
func (o *Object) Kind() ScopeKind {
	return o.kind
}

// WithTarget returns the object whose properties a with frame exposes. The
// result is nil for other kinds of objects.
func (o *Object) WithTarget() *Object {
	return o.target
}

// IsExtensible returns whether new properties may be created on the object.
func (o *Object) IsExtensible() bool {
	return !o.frozen.Load()
}

// PreventExtensions makes the object non-extensible. Existing properties
// may still be written and deleted. Creations that began before
// PreventExtensions returns are complete; none happen after.
func (o *Object) PreventExtensions() {
	o.slots.mu.Lock()
	o.frozen.Store(true)
	o.slots.mu.Unlock()
}

// IsSealed returns whether the object is sealed.
func (o *Object) IsSealed() bool {
	return o.sealed.Load()
}

// HasOwn returns whether the object itself has a property with the given key.
func (o *Object) HasOwn(k Key) bool {
	return o.slots.query(k) != nil
}

// OwnKeys returns the keys of the object's own properties in the order they
// were created. Non-enumerable properties are included only if
// includeNonEnumerable is true.
func (o *Object) OwnKeys(includeNonEnumerable bool) []Key {
	var r []Key
	o.slots.foreach(func(s *slot) bool {
		if includeNonEnumerable || s.getAttrs()&DontEnum == 0 {
			r = append(r, s.key)
		}
		return true
	})
	return r
}

// Size returns the number of the object's own properties.
func (o *Object) Size() int {
	return o.slots.size()
}

// GetAttributes returns the attributes of an own property.
func (o *Object) GetAttributes(k Key) (Attr, error) {
	s := o.slots.query(k)
	if s == nil {
		return 0, newError(PropertyNotFound, k, "property %q not found", k)
	}
	return s.getAttrs(), nil
}

// SetAttributes changes the attributes of an own property. Permanent
// properties may only additionally become ReadOnly. UninitializedConst can
// only be set by declaring a const.
func (o *Object) SetAttributes(k Key, a Attr) error {
	if !a.Valid() {
		return newError(InvalidAttributeValue, k, "invalid attributes %v", a)
	}
	o.slots.mu.Lock()
	defer o.slots.mu.Unlock()
	s := o.slots.lookupLocked(k, query, nil)
	if s == nil {
		return newError(PropertyNotFound, k, "property %q not found", k)
	}
	if o.IsSealed() {
		return newError(SealedViolation, k, "cannot change attributes of %q on a sealed object", k)
	}
	cur := s.getAttrs()
	if a&UninitializedConst != 0 && cur&UninitializedConst == 0 {
		return newError(InvalidAttributeValue, k, "UninitializedConst cannot be set on %q", k)
	}
	if cur&Permanent != 0 && a != cur && a != cur|ReadOnly {
		return newError(TypeError, k, "cannot change attributes of permanent property %q", k)
	}
	s.setAttrs(a)
	return nil
}

// IsConst returns whether the object has an own const property, initialized
// or not.
func (o *Object) IsConst(k Key) bool {
	s := o.slots.query(k)
	return s != nil && s.kind == dataSlot && s.getAttrs().Has(ReadOnly|Permanent)
}

// checkCreateLocked returns an error if a property which does not exist may
// not be defined on o. o.slots.mu must be held.
func (o *Object) checkCreateLocked(k Key) error {
	if o.IsSealed() {
		return newError(SealedViolation, k, "cannot add %q to a sealed object", k)
	}
	if !o.IsExtensible() {
		return newError(TypeError, k, "cannot define %q on a non-extensible object", k)
	}
	return nil
}

// checkRedefineLocked returns an error if the existing property s may not be
// redefined. o.slots.mu must be held.
func (o *Object) checkRedefineLocked(s *slot) error {
	if o.IsSealed() {
		return newError(SealedViolation, s.key, "cannot redefine %q on a sealed object", s.key)
	}
	if s.getAttrs()&Permanent != 0 {
		return newError(TypeError, s.key, "cannot redefine permanent property %q", s.key)
	}
	return nil
}

// DefineData defines an own data property with the given value and
// attributes, replacing any existing non-permanent property of the same key.
// A permanent writable data property may have its value changed if the
// attributes are unchanged.
func (o *Object) DefineData(k Key, v Value, a Attr) error {
	if !a.Valid() {
		return newError(InvalidAttributeValue, k, "invalid attributes %v", a)
	}
	o.slots.mu.Lock()
	defer o.slots.mu.Unlock()
	prep := func(s *slot) {
		s.store(v)
		s.setAttrs(a)
	}
	s := o.slots.lookupLocked(k, query, nil)
	if s == nil {
		if err := o.checkCreateLocked(k); err != nil {
			return err
		}
		o.slots.lookupLocked(k, createData, prep)
		return nil
	}
	cur := s.getAttrs()
	if s.kind == dataSlot && cur&Permanent != 0 && cur&ReadOnly == 0 && a == cur {
		s.store(v)
		return nil
	}
	if err := o.checkRedefineLocked(s); err != nil {
		return err
	}
	if r := o.slots.lookupLocked(k, createData, prep); r == s {
		// Already a data slot; prep was not applied.
		prep(s)
	}
	return nil
}

// DefineAccessor defines an own accessor property. If the property is
// already an accessor, a nil getter or setter keeps the existing one;
// otherwise, nil means absent.
func (o *Object) DefineAccessor(k Key, getter, setter Function, a Attr) error {
	if !a.Valid() || a&UninitializedConst != 0 {
		return newError(InvalidAttributeValue, k, "invalid accessor attributes %v", a)
	}
	o.slots.mu.Lock()
	defer o.slots.mu.Unlock()
	prep := func(s *slot) {
		s.acc.Store(&accessorPair{getter: getter, setter: setter})
		s.setAttrs(a)
	}
	s := o.slots.lookupLocked(k, query, nil)
	if s == nil {
		if err := o.checkCreateLocked(k); err != nil {
			return err
		}
		o.slots.lookupLocked(k, createAccessor, prep)
		return nil
	}
	if err := o.checkRedefineLocked(s); err != nil {
		return err
	}
	if s.kind == accessorSlot && s.pending() == nil {
		g, st := s.accessors()
		if getter == nil {
			getter = g
		}
		if setter == nil {
			setter = st
		}
		prep(s)
		return nil
	}
	if s.kind == accessorSlot {
		// Replace a pending lazy value outright.
		r := s.convert(accessorSlot)
		prep(r)
		o.slots.replaceLocked(s, r)
		return nil
	}
	o.slots.lookupLocked(k, createAccessor, prep)
	return nil
}

// DefineLazy defines an own property whose value is computed by init on
// first access. init runs at most once; if it fails, every access reports
// its error. Sealing the object materializes the value.
func (o *Object) DefineLazy(k Key, init func(vm *VM) (Value, error), a Attr) error {
	if !a.Valid() || a&UninitializedConst != 0 {
		return newError(InvalidAttributeValue, k, "invalid attributes %v", a)
	}
	if init == nil {
		panic("scriptobj: DefineLazy with nil init")
	}
	o.slots.mu.Lock()
	defer o.slots.mu.Unlock()
	prep := func(s *slot) {
		s.store(&lazyValue{init: init})
		s.setAttrs(a)
	}
	s := o.slots.lookupLocked(k, query, nil)
	if s == nil {
		if err := o.checkCreateLocked(k); err != nil {
			return err
		}
		o.slots.lookupLocked(k, createAccessor, prep)
		return nil
	}
	if err := o.checkRedefineLocked(s); err != nil {
		return err
	}
	if s.kind == accessorSlot {
		r := newSlot(s.key, s.hash, accessorSlot)
		r.lexical = s.lexical
		prep(r)
		o.slots.replaceLocked(s, r)
		return nil
	}
	o.slots.lookupLocked(k, createAccessor, prep)
	return nil
}

// materialize converts a lazy accessor slot whose value has been computed
// into a data slot holding that value. Nothing happens if s has since been
// replaced or removed.
func (o *Object) materialize(s *slot) {
	o.slots.mu.Lock()
	if o.slots.lookupLocked(s.key, query, nil) == s {
		o.slots.lookupLocked(s.key, convertToData, nil)
	}
	o.slots.mu.Unlock()
}

// DeclKind is the kind of a binding declaration.
type DeclKind int

const (
	// DeclVar declares a var binding. Redeclaring a var is allowed.
	DeclVar DeclKind = iota
	// DeclLet declares a let binding.
	DeclLet
	// DeclConst declares an uninitialized const binding.
	DeclConst
)

// Declare declares a binding on o if it is absent. Declaring a binding which
// already exists is a RedeclarationConflict unless both are vars.
func (o *Object) Declare(k Key, kind DeclKind) error {
	o.slots.mu.Lock()
	defer o.slots.mu.Unlock()
	if s := o.slots.lookupLocked(k, query, nil); s != nil {
		if kind == DeclVar && !s.lexical {
			return nil
		}
		return newError(RedeclarationConflict, k, "redeclaration of %q", k)
	}
	if err := o.checkCreateLocked(k); err != nil {
		return err
	}
	o.slots.lookupLocked(k, createData, func(s *slot) {
		switch kind {
		case DeclVar:
			s.setAttrs(Permanent)
		case DeclLet:
			s.setAttrs(Permanent)
			s.lexical = true
		case DeclConst:
			s.setAttrs(ConstAttrs)
			s.lexical = true
		default:
			panic("scriptobj: invalid declaration kind")
		}
	})
	return nil
}

// DefineConst declares an uninitialized const on o. It is shorthand for
// Declare(k, DeclConst).
func (o *Object) DefineConst(k Key) error {
	return o.Declare(k, DeclConst)
}

// InitConst performs the initializing assignment of a const. The const must
// be declared and uninitialized, or absent, in which case it is declared and
// initialized at once. A second initialization is a RedeclarationConflict.
func (o *Object) InitConst(k Key, v Value) error {
	o.slots.mu.Lock()
	defer o.slots.mu.Unlock()
	s := o.slots.lookupLocked(k, query, nil)
	if s == nil {
		if err := o.checkCreateLocked(k); err != nil {
			return err
		}
		o.slots.lookupLocked(k, createData, func(s *slot) {
			s.store(v)
			s.setAttrs(ReadOnly | Permanent)
			s.lexical = true
		})
		return nil
	}
	a := s.getAttrs()
	if s.kind != dataSlot || !a.Has(ReadOnly|Permanent) {
		return newError(RedeclarationConflict, k, "%q is not a const", k)
	}
	if a&UninitializedConst == 0 {
		return newError(RedeclarationConflict, k, "const %q is already initialized", k)
	}
	s.store(v)
	s.setAttrs(a &^ UninitializedConst)
	return nil
}
