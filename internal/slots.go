package internal

/*
This file contains the property table. Every property read goes through here,
usually without acquiring any lock, so the structure is built around making
unlocked reads safe while writers rearrange things underneath them.

A table is one "generation": a power-of-two bucket array, a chain-link array,
and an arena of slot pointers. All three are indexed by small integers, and
all elements are accessed atomically. Arena indices are handed out in creation
order and never reused within a generation, which makes the arena itself the
insertion-order list: walking indices 0..used skipping empty entries yields
live keys in first-creation order. Chain links are stored as index+1 so that
the zero value means "end of chain" and new arrays need no initialization.

Writers hold the owning object's mutex. Adding a slot to a generation with
room stores the slot pointer and its chain link before publishing it as the
bucket head, so a reader that observes the new head also observes the slot.
Deleting a slot unlinks it from its chain and clears its arena entry, but the
dead entry's own link is left intact so a reader standing on it can continue
down the chain.

When a generation fills, the writer builds a fresh generation containing only
live slots, in arena order, and publishes it with a single atomic store. The
old generation is never written again. Readers that loaded it before the swap
keep traversing a structure that is frozen and internally consistent; they
just don't see slots created afterward. Slot objects are shared between
generations, so a value written into a slot is visible through both.

Converting a slot between the data and accessor variants replaces the slot
object at the same arena index, which keeps its bucket and its position in
insertion order. The replaced object is marked deleted so that anyone still
holding it can tell.
*/

import (
	"sync"
	"sync/atomic"
)

// lookupMode selects what a table lookup may do on a miss or a variant
// mismatch.
type lookupMode int

const (
	// query returns the existing slot, if any, without mutation.
	query lookupMode = iota
	// createData returns a data slot, creating it or converting an accessor.
	createData
	// createAccessor returns an accessor slot, creating it or converting a
	// data slot.
	createAccessor
	// convertToData converts an existing accessor slot to a data slot. It
	// never creates.
	convertToData
)

// slotKind is the variant of a slot.
type slotKind uint8

const (
	dataSlot slotKind = iota
	accessorSlot
)

// accessorPair is the getter and setter of an accessor slot. Either may be
// nil.
type accessorPair struct {
	getter Function
	setter Function
}

// lazyValue is a not-yet-materialized value held by an accessor slot until
// the first access.
type lazyValue struct {
	mu   sync.Mutex
	init func(vm *VM) (Value, error)
	// running is the VM executing init, or nil if init is not running. Since
	// a VM belongs to one goroutine, an access from running while init is in
	// progress is a recursive one.
	running *VM
	// ready is closed once init has finished.
	ready chan struct{}
	v     Value
	err   error
	done  atomic.Bool
}

// get materializes the value, running init at most once. Accesses from other
// goroutines wait for a running init to finish. An access from within init
// itself fails with a TypeError instead of waiting on itself.
func (l *lazyValue) get(vm *VM, k Key) (Value, error) {
	if l.done.Load() {
		return l.v, l.err
	}
	l.mu.Lock()
	if l.done.Load() {
		l.mu.Unlock()
		return l.v, l.err
	}
	if l.running != nil {
		if l.running == vm {
			l.mu.Unlock()
			return nil, newError(TypeError, k, "recursive initialization of %q", k)
		}
		ready := l.ready
		l.mu.Unlock()
		<-ready
		return l.v, l.err
	}
	l.running = vm
	l.ready = make(chan struct{})
	init := l.init
	l.mu.Unlock()

	var v Value
	var err error
	finished := false
	defer func() {
		if !finished {
			// init panicked. Release waiters before the panic continues.
			err = newError(TypeError, k, "initialization of %q panicked", k)
		}
		l.mu.Lock()
		l.v, l.err = v, err
		l.init = nil
		l.running = nil
		l.done.Store(true)
		close(l.ready)
		l.mu.Unlock()
	}()
	v, err = init(vm)
	finished = true
	return v, err
}

// slot is a single property entry. key, hash, kind, and lexical never change once the
// slot is linked into a table. The remaining fields are accessed atomically.
type slot struct {
	key  Key
	hash uint32
	kind slotKind
	// lexical marks let and const bindings, which conflict with any
	// redeclaration.
	lexical bool

	attrs uint32
	// value is the data value of a data slot, or a pending *lazyValue for an
	// accessor slot created by DefineLazy.
	value atomic.Pointer[Value]
	// acc holds the accessor pair of accessor slots.
	acc atomic.Pointer[accessorPair]
	// deleted is set once the slot is removed or replaced.
	deleted atomic.Bool
}

func newSlot(k Key, h uint32, kind slotKind) *slot {
	s := &slot{key: k, hash: h, kind: kind}
	if kind == dataSlot {
		s.store(Undefined)
	} else {
		s.acc.Store(&accessorPair{})
	}
	return s
}

// load returns the slot's stored value.
func (s *slot) load() Value {
	if p := s.value.Load(); p != nil {
		return *p
	}
	return nil
}

// store sets the slot's stored value.
func (s *slot) store(v Value) {
	s.value.Store(&v)
}

// getAttrs returns the slot's attributes.
func (s *slot) getAttrs() Attr {
	return Attr(atomic.LoadUint32(&s.attrs))
}

// setAttrs sets the slot's attributes. The table must be locked.
func (s *slot) setAttrs(a Attr) {
	atomic.StoreUint32(&s.attrs, uint32(a))
}

// pending returns the slot's unmaterialized lazy value, if it has one.
func (s *slot) pending() *lazyValue {
	if s.kind != accessorSlot {
		return nil
	}
	l, _ := s.load().(*lazyValue)
	return l
}

// accessors returns the getter and setter of an accessor slot.
func (s *slot) accessors() (getter, setter Function) {
	if p := s.acc.Load(); p != nil {
		return p.getter, p.setter
	}
	return nil, nil
}

// convert creates a slot of the given kind carrying s's key and attributes.
// Converting a materialized lazy accessor to data carries its value.
func (s *slot) convert(kind slotKind) *slot {
	r := newSlot(s.key, s.hash, kind)
	r.setAttrs(s.getAttrs())
	r.lexical = s.lexical
	if kind == dataSlot {
		if l := s.pending(); l != nil && l.done.Load() && l.err == nil {
			r.store(l.v)
		}
	}
	return r
}

// table is one generation of a property table.
type table struct {
	buckets []atomic.Int32
	next    []atomic.Int32
	slots   []atomic.Pointer[slot]
	// used is the number of arena indices handed out.
	used atomic.Int32
	// count is the number of live slots.
	count atomic.Int32
}

func newTable(capacity int) *table {
	return &table{
		buckets: make([]atomic.Int32, capacity),
		next:    make([]atomic.Int32, capacity),
		slots:   make([]atomic.Pointer[slot], capacity),
	}
}

// capacity returns the number of buckets in t.
func (t *table) capacity() int {
	return len(t.buckets)
}

// bucket returns the bucket index for a hash.
func (t *table) bucket(h uint32) int {
	return int(h & uint32(len(t.buckets)-1))
}

// find returns the arena index of the slot with the given key, or -1. This is
// safe to call without the lock.
func (t *table) find(k Key, h uint32) int {
	i := t.buckets[t.bucket(h)].Load()
	for i != 0 {
		if s := t.slots[i-1].Load(); s != nil && s.hash == h && s.key == k {
			return int(i - 1)
		}
		i = t.next[i-1].Load()
	}
	return -1
}

// link places s at the next arena index and publishes it in its bucket. The
// table must have room and the owner must be locked.
func (t *table) link(s *slot) {
	i := t.used.Load()
	t.slots[i].Store(s)
	b := t.bucket(s.hash)
	t.next[i].Store(t.buckets[b].Load())
	t.buckets[b].Store(i + 1)
	t.used.Store(i + 1)
	t.count.Add(1)
}

// rebuild creates a new generation with the given capacity holding the live
// slots of t in arena order.
func (t *table) rebuild(capacity int) *table {
	r := newTable(capacity)
	n := t.used.Load()
	for i := int32(0); i < n; i++ {
		if s := t.slots[i].Load(); s != nil {
			r.link(s)
		}
	}
	return r
}

// slotMap is the property table of one object. Reads are lock-free; all
// structural changes happen under mu.
type slotMap struct {
	mu  sync.Mutex
	tab atomic.Pointer[table]
	// initCap is the capacity of the first generation.
	initCap int
}

// query finds a slot without locking. The result may be stale by the time it
// is used.
func (m *slotMap) query(k Key) *slot {
	t := m.tab.Load()
	if t == nil {
		return nil
	}
	if i := t.find(k, k.indexOrHash()); i >= 0 {
		return t.slots[i].Load()
	}
	return nil
}

// lookupLocked finds, creates, or converts a slot according to mode. m.mu
// must be held. The result is nil only for query and convertToData misses.
// If prep is not nil, it is called on a newly created or converted slot
// before the slot becomes visible to readers.
func (m *slotMap) lookupLocked(k Key, mode lookupMode, prep func(s *slot)) *slot {
	h := k.indexOrHash()
	t := m.tab.Load()
	if t != nil {
		if i := t.find(k, h); i >= 0 {
			s := t.slots[i].Load()
			var want slotKind
			switch mode {
			case query:
				return s
			case createData, convertToData:
				want = dataSlot
			case createAccessor:
				want = accessorSlot
			default:
				panic("scriptobj: invalid lookup mode")
			}
			if s.kind == want {
				return s
			}
			r := s.convert(want)
			if prep != nil {
				prep(r)
			}
			t.slots[i].Store(r)
			s.deleted.Store(true)
			return r
		}
	}
	var kind slotKind
	switch mode {
	case query, convertToData:
		return nil
	case createData:
		kind = dataSlot
	case createAccessor:
		kind = accessorSlot
	default:
		panic("scriptobj: invalid lookup mode")
	}
	t = m.reserveLocked(t)
	s := newSlot(k, h, kind)
	if prep != nil {
		prep(s)
	}
	t.link(s)
	return s
}

// reserveLocked returns a generation with room for one more slot, growing or
// compacting t as needed.
func (m *slotMap) reserveLocked(t *table) *table {
	if t == nil {
		t = newTable(m.initCap)
		m.tab.Store(t)
		return t
	}
	c := t.capacity()
	n := int(t.count.Load())
	switch {
	case 4*(n+1) > 3*c:
		t = t.rebuild(2 * c)
		tableLog.Debug("table grew", "from", c, "to", 2*c, "live", n)
	case int(t.used.Load()) == len(t.slots):
		// Deleted slots have used up the arena without the table being
		// full. Compact at the same capacity.
		t = t.rebuild(c)
	default:
		return t
	}
	m.tab.Store(t)
	return t
}

// removeLocked unlinks the slot with the given key and returns it, or returns
// nil if there is no such slot. m.mu must be held.
func (m *slotMap) removeLocked(k Key) *slot {
	t := m.tab.Load()
	if t == nil {
		return nil
	}
	h := k.indexOrHash()
	b := t.bucket(h)
	var prev int32
	for i := t.buckets[b].Load(); i != 0; i = t.next[i-1].Load() {
		s := t.slots[i-1].Load()
		if s == nil || s.hash != h || s.key != k {
			prev = i
			continue
		}
		nx := t.next[i-1].Load()
		if prev == 0 {
			t.buckets[b].Store(nx)
		} else {
			t.next[prev-1].Store(nx)
		}
		t.slots[i-1].Store(nil)
		t.count.Add(-1)
		s.deleted.Store(true)
		return s
	}
	return nil
}

// replaceLocked swaps old for r at old's arena position if old is still
// current. m.mu must be held.
func (m *slotMap) replaceLocked(old, r *slot) bool {
	t := m.tab.Load()
	if t == nil {
		return false
	}
	i := t.find(old.key, old.hash)
	if i < 0 || t.slots[i].Load() != old {
		return false
	}
	t.slots[i].Store(r)
	old.deleted.Store(true)
	return true
}

// foreach calls exec on each live slot in insertion order until exec returns
// false. This does not lock; slots created during the iteration may or may
// not be visited.
func (m *slotMap) foreach(exec func(s *slot) bool) {
	t := m.tab.Load()
	if t == nil {
		return
	}
	n := t.used.Load()
	for i := int32(0); i < n; i++ {
		s := t.slots[i].Load()
		if s == nil || s.deleted.Load() {
			continue
		}
		if !exec(s) {
			return
		}
	}
}

// size returns the number of live slots.
func (m *slotMap) size() int {
	t := m.tab.Load()
	if t == nil {
		return 0
	}
	return int(t.count.Load())
}

// capacity returns the bucket count of the current generation, or zero if no
// slot has ever been created.
func (m *slotMap) capacity() int {
	t := m.tab.Load()
	if t == nil {
		return 0
	}
	return t.capacity()
}
