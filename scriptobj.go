/*
Package scriptobj implements the object and scope model of a dynamic,
prototype-based scripting language.

Every script object is an Object: a table of properties keyed by name or
integer index, plus a prototype to which lookups of missing properties
delegate and a parent scope used when the object serves as a frame of a
lexical scope chain. A property is either a data property holding a value or
an accessor property holding a getter and setter. Each carries attributes
that make it read-only, hidden from enumeration, permanent, or an
uninitialized const.

Objects are safe for concurrent use. Reading a property never blocks, even
while another goroutine is adding properties and the table is growing.
Operations whose semantics depend on configuration, such as strict mode or
dynamic scope, go through a VM, which is the per-goroutine handle onto the
model. Create one with NewVM, and use Fork to obtain another for a new
goroutine:

	vm := scriptobj.NewVM(scriptobj.DefaultConfig())
	proto := vm.NewObject(nil)
	obj := vm.NewObject(proto)
	vm.Put(proto, scriptobj.KeyOf("greeting"), "hello")
	v, _ := vm.Get(obj, scriptobj.KeyOf("greeting")) // "hello"

Prototype Resolution

Get searches the receiver and then its prototypes, stopping at the nearest
object that has the property. Getters run with the original receiver as
their this object. Put finds the property the same way and assigns it where
it lives, or calls its setter on the receiver; if no object in the chain has
the property, Put creates it on the receiver. Has reports presence anywhere
in the chain, and Delete only ever removes the receiver's own properties.

Closedness

An object that has had PreventExtensions called ignores the creation of new
properties but still allows deletion. A sealed object rejects both creation
and deletion with a SealedViolation error. Both still accept writes to
existing writable properties.

Scopes

Free identifiers resolve through scope frames linked by parent references.
Plain frames delegate through their prototypes, with frames expose a target
object, and call frames hold the locals of one activation. Name reads an
identifier, Bind and SetName implement assignment, and SetConst initializes
const declarations exactly once.

Enumeration

Enumerate walks an object and its prototypes in property creation order,
producing each key once from the most derived object which has it. Objects
may override the walk by providing an __iterator__ function.
*/
package scriptobj

import (
	"github.com/zephyrtronium/scriptobj/internal"
)

// VM is a handle onto the object model carrying configuration and
// per-goroutine state.
type VM = internal.VM

// Object is a script object.
type Object = internal.Object

// Key is a property key: either a string name or a non-negative integer
// index.
type Key = internal.Key

// Attr is a set of property attributes.
type Attr = internal.Attr

// Value is any value a property can hold.
type Value = internal.Value

// Function is a callable value, used for accessors and custom iterators.
type Function = internal.Function

// NativeFunc adapts a Go function to Function.
type NativeFunc = internal.NativeFunc

// Config controls the semantics a VM applies.
type Config = internal.Config

// LogConfig holds logging options.
type LogConfig = internal.LogConfig

// Error is a script-level error raised by the object model.
type Error = internal.Error

// ErrorKind classifies Errors.
type ErrorKind = internal.ErrorKind

// ScopeKind is the behavior of an object used as a scope frame.
type ScopeKind = internal.ScopeKind

// DeclKind is the kind of a binding declaration.
type DeclKind = internal.DeclKind

// Enumerator drives enumeration of an object's properties.
type Enumerator = internal.Enumerator

// EnumMode selects what an enumeration produces.
type EnumMode = internal.EnumMode

// Entry is a key-value pair.
type Entry = internal.Entry

// Property attributes.
const (
	ReadOnly           = internal.ReadOnly
	DontEnum           = internal.DontEnum
	Permanent          = internal.Permanent
	UninitializedConst = internal.UninitializedConst

	Empty      = internal.Empty
	AllAttrs   = internal.AllAttrs
	ConstAttrs = internal.ConstAttrs
)

// Error kinds.
const (
	SealedViolation       = internal.SealedViolation
	InvalidAttributeValue = internal.InvalidAttributeValue
	UnresolvedReference   = internal.UnresolvedReference
	RedeclarationConflict = internal.RedeclarationConflict
	TypeError             = internal.TypeError
	PropertyNotFound      = internal.PropertyNotFound
	CyclicChain           = internal.CyclicChain
)

// Scope frame kinds.
const (
	PlainScope = internal.PlainScope
	WithScope  = internal.WithScope
	CallScope  = internal.CallScope
)

// Declaration kinds.
const (
	DeclVar   = internal.DeclVar
	DeclLet   = internal.DeclLet
	DeclConst = internal.DeclConst
)

// Enumeration modes.
const (
	EnumKeys    = internal.EnumKeys
	EnumValues  = internal.EnumValues
	EnumEntries = internal.EnumEntries
)

// IteratorName is the property name of the custom iteration hook.
const IteratorName = internal.IteratorName

// Distinguished values.
var (
	NotFound      = internal.NotFound
	Undefined     = internal.Undefined
	StopIteration = internal.StopIteration
)

// Sentinel errors for use with errors.Is.
var (
	ErrSealed           = internal.ErrSealed
	ErrInvalidAttribute = internal.ErrInvalidAttribute
	ErrUnresolved       = internal.ErrUnresolved
	ErrRedeclaration    = internal.ErrRedeclaration
	ErrType             = internal.ErrType
	ErrNoProperty       = internal.ErrNoProperty
	ErrCyclic           = internal.ErrCyclic
	ErrStopIteration    = internal.ErrStopIteration
)

// NewVM creates a VM with the given configuration. It panics if the
// configuration is invalid.
func NewVM(cfg Config) *VM {
	return internal.NewVM(cfg)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return internal.DefaultConfig()
}

// ParseConfig parses a YAML configuration.
func ParseConfig(data []byte) (Config, error) {
	return internal.ParseConfig(data)
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	return internal.LoadConfig(path)
}

// KeyOf returns the key for a property name. Names which are canonical
// decimal array indices become index keys.
func KeyOf(name string) Key {
	return internal.KeyOf(name)
}

// IndexKey returns the key for an integer index. It panics if i is negative
// or too large to be an index.
func IndexKey(i int) Key {
	return internal.IndexKey(i)
}

// TopLevelScope returns the outermost frame of o's scope chain.
func TopLevelScope(o *Object) *Object {
	return internal.TopLevelScope(o)
}

// CheckDynamicScope returns dynamic if static is dynamic or on its prototype
// chain, and static otherwise.
func CheckDynamicScope(dynamic, static *Object) *Object {
	return internal.CheckDynamicScope(dynamic, static)
}
