package internal

import (
	"errors"

	"github.com/zephyrtronium/contains"
)

// EnumMode selects what an enumeration produces.
type EnumMode int

const (
	// EnumKeys produces property keys.
	EnumKeys EnumMode = iota
	// EnumValues produces property values.
	EnumValues
	// EnumEntries produces key-value pairs.
	EnumEntries
)

// IteratorName is the property which, if it holds a Function, replaces the
// default enumeration of an object.
const IteratorName = "__iterator__"

// ErrStopIteration may be returned, possibly wrapped, by a custom iterator's
// next function to end iteration, as an alternative to returning the
// StopIteration value.
var ErrStopIteration = errors.New("StopIteration")

// Entry is a key-value pair produced by an EnumEntries enumeration.
type Entry struct {
	Key   Key
	Value Value
}

// enumKey is a key recorded when snapshotting an object's own properties.
type enumKey struct {
	key        Key
	enumerable bool
}

// Enumerator drives for-in style enumeration of an object and its
// prototypes. Each key is produced at most once, from the most derived
// object which has it. Properties deleted before the enumerator reaches them
// are skipped; properties created after an object's keys are snapshotted are
// not produced.
//
// An Enumerator belongs to the VM which created it.
type Enumerator struct {
	vm    *VM
	start *Object
	mode  EnumMode

	// cur is the object whose snapshot is being walked.
	cur  *Object
	keys []enumKey
	pos  int
	// used holds every key already encountered, yielded or not.
	used map[Key]struct{}
	// seen guards the prototype walk when cycle guarding is enabled.
	seen contains.Set

	// iter and next drive the custom iteration protocol.
	iter *Object
	next Function

	key Key
	// hasKey is whether key is meaningful. Custom iterators may produce
	// values with no corresponding key.
	hasKey bool
	val    Value
	// loaded is whether val holds the current value.
	loaded bool
}

// Enumerate begins enumerating o. If o has a callable __iterator__ property,
// it is called with o as the receiver and a flag indicating whether only keys
// are wanted, and the object it returns is iterated by calling its next
// property until it produces StopIteration.
func (vm *VM) Enumerate(o *Object, mode EnumMode) (*Enumerator, error) {
	e := &Enumerator{vm: vm, start: o, mode: mode}
	it, err := vm.Get(o, KeyOf(IteratorName))
	if err != nil {
		return nil, err
	}
	if f, ok := it.(Function); ok {
		r, err := f.Call(vm, o, mode == EnumKeys)
		if err != nil {
			return nil, err
		}
		iter, ok := r.(*Object)
		if !ok {
			return nil, newError(TypeError, KeyOf(IteratorName), "%s did not return an object", IteratorName)
		}
		nv, err := vm.Get(iter, KeyOf("next"))
		if err != nil {
			return nil, err
		}
		next, ok := nv.(Function)
		if !ok {
			return nil, newError(TypeError, KeyOf("next"), "iterator has no next function")
		}
		e.iter, e.next = iter, next
		return e, nil
	}
	e.used = make(map[Key]struct{})
	e.cur = o
	if vm.cfg.GuardCycles {
		e.seen.Add(o.UniqueID())
	}
	e.snapshot()
	return e, nil
}

// snapshot records the own keys of the current object.
func (e *Enumerator) snapshot() {
	e.keys = e.keys[:0]
	e.pos = 0
	e.cur.slots.foreach(func(s *slot) bool {
		e.keys = append(e.keys, enumKey{key: s.key, enumerable: s.getAttrs()&DontEnum == 0})
		return true
	})
}

// Next advances to the next key. It returns false once the enumeration is
// exhausted.
func (e *Enumerator) Next() (bool, error) {
	e.loaded, e.hasKey = false, false
	if e.next != nil {
		return e.advanceCustom()
	}
	for e.cur != nil {
		for e.pos < len(e.keys) {
			ek := e.keys[e.pos]
			e.pos++
			if _, ok := e.used[ek.key]; ok {
				continue
			}
			if !e.cur.HasOwn(ek.key) {
				// Deleted since the snapshot.
				continue
			}
			e.used[ek.key] = struct{}{}
			if !ek.enumerable {
				continue
			}
			e.key, e.hasKey = ek.key, true
			if e.mode == EnumKeys {
				return true, nil
			}
			v, err := e.vm.getWithThis(e.cur, ek.key, e.start)
			if err != nil {
				return false, err
			}
			if v == NotFound {
				continue
			}
			e.val, e.loaded = v, true
			return true, nil
		}
		e.cur = e.cur.Prototype()
		if e.cur == nil {
			break
		}
		if e.vm.cfg.GuardCycles && !e.seen.Add(e.cur.UniqueID()) {
			e.cur = nil
			break
		}
		e.snapshot()
	}
	return false, nil
}

// advanceCustom calls the custom iterator's next function.
func (e *Enumerator) advanceCustom() (bool, error) {
	r, err := e.next.Call(e.vm, e.iter)
	if err != nil {
		if errors.Is(err, ErrStopIteration) {
			e.next = nil
			return false, nil
		}
		return false, err
	}
	if r == StopIteration {
		e.next = nil
		return false, nil
	}
	if en, ok := r.(Entry); ok {
		e.key, e.hasKey, e.val = en.Key, true, en.Value
	} else {
		e.key, e.hasKey = toKey(r)
		e.val = r
	}
	e.loaded = true
	return true, nil
}

// toKey converts an iterator result to a key where it has an obvious one.
// The result is false for values that have none.
func toKey(v Value) (Key, bool) {
	switch v := v.(type) {
	case Key:
		return v, true
	case string:
		return KeyOf(v), true
	case int:
		if v >= 0 && v <= maxIndex {
			return IndexKey(v), true
		}
	}
	return Key{}, false
}

// Key returns the current key. If HasKey is false, the result is the zero
// Key and does not name a property; use Current instead.
func (e *Enumerator) Key() Key {
	return e.key
}

// HasKey returns whether the current element has a key. Default enumeration
// always does. Custom iterators have one when they produce an Entry, a Key, a
// string, or a non-negative int.
func (e *Enumerator) HasKey() bool {
	return e.hasKey
}

// Value returns the value of the current key. For EnumKeys enumerations, the
// value is read on demand.
func (e *Enumerator) Value() (Value, error) {
	if !e.loaded {
		if !e.hasKey {
			return Undefined, nil
		}
		v, err := e.vm.Get(e.start, e.key)
		if err != nil {
			return nil, err
		}
		e.val, e.loaded = v, true
	}
	return e.val, nil
}

// Current returns the current element according to the enumeration mode: a
// Key for EnumKeys, the value for EnumValues, or an Entry for EnumEntries.
func (e *Enumerator) Current() (Value, error) {
	switch e.mode {
	case EnumKeys:
		if e.iter != nil && e.loaded {
			return e.val, nil
		}
		return e.key, nil
	case EnumValues:
		return e.Value()
	case EnumEntries:
		v, err := e.Value()
		if err != nil {
			return nil, err
		}
		return Entry{Key: e.key, Value: v}, nil
	default:
		panic("scriptobj: invalid enumeration mode")
	}
}
