package ldap

import (
	"fmt"
	"runtime"
	"strings"
)

// Entry is a directory entry seen through the schema view S.
//
// Views cast from the same entry share storage until one of them writes, at
// which point the writer takes a private copy. An Entry must not be used from
// several goroutines at once without external synchronization; distinct views
// of shared storage may be.
type Entry[S Schema] struct {
	schema  S
	store   *entryStorage
	cleanup runtime.Cleanup
}

// AnyEntry is the schema-independent part of an Entry.
type AnyEntry interface {
	Class() *ObjectClass
	DN() DN
	ID() string
	Raw(key AttributeKey) RawValue
	Keys() []AttributeKey
	Attributes() map[AttributeKey]RawValue
	HasClass(class *ObjectClass) bool
	Equal(other AnyEntry) bool

	identityValue() (any, error)
}

var _ AnyEntry = (*Entry[Top])(nil)

// NewEntry builds an entry from raw attribute values. The map is owned by
// the entry afterwards.
func NewEntry[S Schema](schema S, raw map[AttributeKey]RawValue) *Entry[S] {
	return newView(schema, newEntryStorage(raw))
}

func newView[S Schema](schema S, store *entryStorage) *Entry[S] {
	store.retain()
	e := &Entry[S]{schema: schema, store: store}
	e.cleanup = runtime.AddCleanup(e, (*entryStorage).release, store)
	return e
}

// detach gives e a private copy of its storage if another view shares it.
func (e *Entry[S]) detach() {
	if !e.store.shared() {
		return
	}

	fresh := e.store.clone()
	fresh.retain()

	e.cleanup.Stop()
	e.store.release()

	e.store = fresh
	e.cleanup = runtime.AddCleanup(e, (*entryStorage).release, fresh)
}

// Schema returns the view value, whose methods yield attribute descriptors.
func (e *Entry[S]) Schema() S {
	return e.schema
}

func (e *Entry[S]) Class() *ObjectClass {
	return e.schema.Class()
}

// DN returns the entryDN value, or an empty DN if absent.
func (e *Entry[S]) DN() DN {
	raw, _ := e.store.get(AttrEntryDN.key)
	v, _ := raw.First()
	return DN(v)
}

// ID returns the identifying attribute in display form, or "" if it cannot be decoded.
func (e *Entry[S]) ID() string {
	v, err := e.identityValue()
	if err != nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (e *Entry[S]) identityValue() (any, error) {
	return e.schema.Class().identity.load(e.store)
}

// Equal compares entries by their identifying attribute. DNs compare
// case-insensitively; entries whose identity cannot be decoded are unequal.
func (e *Entry[S]) Equal(other AnyEntry) bool {
	if other == nil {
		return false
	}
	a, err := e.identityValue()
	if err != nil {
		return false
	}
	b, err := other.identityValue()
	if err != nil {
		return false
	}

	if dnA, ok := a.(DN); ok {
		if dnB, ok := b.(DN); ok {
			return dnA.Equal(dnB)
		}
	}
	return a == b
}

// Raw returns the raw value stored for key.
func (e *Entry[S]) Raw(key AttributeKey) RawValue {
	v, _ := e.store.get(key)
	return v
}

// Has reports whether key is present, including with zero values.
func (e *Entry[S]) Has(key AttributeKey) bool {
	_, ok := e.store.get(key)
	return ok
}

// Keys returns the attribute keys present on the entry in sorted order.
func (e *Entry[S]) Keys() []AttributeKey {
	return e.store.keys()
}

// Attributes returns a copy of the raw attribute map.
func (e *Entry[S]) Attributes() map[AttributeKey]RawValue {
	return e.store.snapshot()
}

// HasClass reports whether the entry can be viewed as class.
func (e *Entry[S]) HasClass(class *ObjectClass) bool {
	if class == e.schema.Class() {
		return true
	}
	raw, ok := e.store.get(AttrObjectClass.key)
	if !ok {
		return false
	}
	for v := range raw.All() {
		if class.Matches(v) {
			return true
		}
	}
	return false
}

// Clone returns a view of the same schema with its own storage.
func (e *Entry[S]) Clone() *Entry[S] {
	return newView(e.schema, e.store.clone())
}

// SetRaw overwrites the raw value for key and drops its decoded form.
func (e *Entry[S]) SetRaw(key AttributeKey, raw RawValue) {
	e.detach()
	e.store.put(key, raw, nil)
}

// Delete removes key from the entry.
func (e *Entry[S]) Delete(key AttributeKey) {
	e.detach()
	e.store.remove(key)
}

func (e *Entry[S]) String() string {
	return fmt.Sprintf("%s(%s)", e.schema.Class().Name, e.DN())
}

// Lookup decodes attr from e, returning a *DecodeError when the stored value
// cannot be represented as T.
func Lookup[T any, S Schema](e *Entry[S], attr Attribute[T]) (T, error) {
	return load(e.store, attr)
}

// Get decodes attr from e. Reading an absent or malformed value into a
// non-optional kind is a programming error and panics with a *DecodeError.
func Get[T any, S Schema](e *Entry[S], attr Attribute[T]) T {
	v, err := load(e.store, attr)
	if err != nil {
		panic(err)
	}
	return v
}

// Set encodes value into e under attr and caches a copy of it, so later
// changes to value do not reach the entry. Sibling views keep their previous
// value.
func Set[T any, S Schema](e *Entry[S], attr Attribute[T], value T) {
	e.detach()
	e.store.put(attr.key, attr.codec.Encode(value), cloneValue(attr.codec, value))
}

// CanCast reports whether e may be viewed through target: either target is
// e's own class, or e's objectClass values name target by name or OID.
func CanCast[T Schema, S Schema](e *Entry[S], target T) bool {
	return e.HasClass(target.Class())
}

// Cast returns a view of e through target sharing e's storage, or false if
// the entry does not carry target's class.
func Cast[T Schema, S Schema](e *Entry[S], target T) (*Entry[T], bool) {
	if !CanCast(e, target) {
		return nil, false
	}
	return newView(target, e.store), true
}

// ForceCast is Cast for callers that have already checked CanCast. It panics
// with a *CastError when the entry does not carry target's class.
func ForceCast[T Schema, S Schema](e *Entry[S], target T) *Entry[T] {
	view, ok := Cast(e, target)
	if !ok {
		panic(&CastError{
			ID:     e.ID(),
			From:   e.schema.Class().Name,
			Target: target.Class().String(),
		})
	}
	return view
}

// Entries converts typed entries to their schema-independent form.
func Entries[S Schema](entries []*Entry[S]) []AnyEntry {
	out := make([]AnyEntry, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out
}

// ObjectClasses returns the entry's objectClass values.
func ObjectClasses(e AnyEntry) []string {
	return e.Raw(AttrObjectClass.key).Values()
}

// Describe renders an entry as LDIF-like text with sorted attributes.
func Describe(e AnyEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "dn: %s\n", e.DN())
	for _, key := range e.Keys() {
		if key == AttrEntryDN.key {
			continue
		}
		raw := e.Raw(key)
		if raw.IsEmpty() {
			fmt.Fprintf(&b, "%s:\n", key)
			continue
		}
		for v := range raw.All() {
			fmt.Fprintf(&b, "%s: %s\n", key, printable(v))
		}
	}
	return b.String()
}

// printable hex-encodes values that are not valid UTF-8 text.
func printable(v string) string {
	for _, r := range v {
		if r == '\uFFFD' || (r < 0x20 && r != '\t') {
			return fmt.Sprintf("0x%x", v)
		}
	}
	return v
}
