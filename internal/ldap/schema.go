package ldap

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Schema is a typed view of an object class. Views are zero-size values whose
// methods return the attribute descriptors the class contributes.
type Schema interface {
	Class() *ObjectClass
}

// ObjectClass describes one directory object class.
type ObjectClass struct {
	OID     string
	Name    string
	Parents []*ObjectClass

	identity identity
	own      []AttributeInfo
	attrs    []AttributeInfo
}

type identity struct {
	attr AttributeInfo
	load func(s *entryStorage) (any, error)
}

// ClassOption configures an ObjectClass.
type ClassOption func(*ObjectClass)

// Extends adds parent classes whose attributes the class inherits.
func Extends(parents ...*ObjectClass) ClassOption {
	return func(c *ObjectClass) {
		c.Parents = append(c.Parents, parents...)
	}
}

// WithAttributes adds attributes the class itself declares.
func WithAttributes(attrs ...AttributeInfo) ClassOption {
	return func(c *ObjectClass) {
		c.own = append(c.own, attrs...)
	}
}

// IdentifiedBy overrides the identifying attribute, which defaults to entryDN.
func IdentifiedBy[T comparable](attr Attribute[T]) ClassOption {
	return func(c *ObjectClass) {
		c.identity = identity{
			attr: attr,
			load: func(s *entryStorage) (any, error) {
				return load(s, attr)
			},
		}
	}
}

// DefineClass builds an object class and resolves its attribute table.
// Attributes declared by the class shadow inherited ones with the same key.
func DefineClass(oid, name string, opts ...ClassOption) *ObjectClass {
	c := &ObjectClass{OID: oid, Name: name}
	IdentifiedBy(AttrEntryDN)(c)

	for _, opt := range opts {
		opt(c)
	}

	seen := make(map[AttributeKey]bool)
	add := func(a AttributeInfo) {
		if !seen[a.Key()] {
			seen[a.Key()] = true
			c.attrs = append(c.attrs, a)
		}
	}
	for _, a := range c.own {
		add(a)
	}
	for _, p := range c.Parents {
		for _, a := range p.attrs {
			add(a)
		}
	}

	return c
}

func (c *ObjectClass) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.OID)
}

// Identity returns the descriptor of the identifying attribute.
func (c *ObjectClass) Identity() AttributeInfo {
	return c.identity.attr
}

// Attributes returns the attributes of the class and its ancestors.
func (c *ObjectClass) Attributes() []AttributeInfo {
	return slices.Clone(c.attrs)
}

// Attribute looks up an attribute of the class by key, ignoring case.
func (c *ObjectClass) Attribute(key AttributeKey) (AttributeInfo, bool) {
	return FindAttribute(c.attrs, key)
}

// Inherits reports whether c is other or descends from it.
func (c *ObjectClass) Inherits(other *ObjectClass) bool {
	if c == other {
		return true
	}
	for _, p := range c.Parents {
		if p.Inherits(other) {
			return true
		}
	}
	return false
}

// Matches reports whether value names the class by name or OID.
func (c *ObjectClass) Matches(value string) bool {
	return strings.EqualFold(value, c.Name) || value == c.OID
}

var registry = struct {
	sync.RWMutex
	classes []*ObjectClass
}{}

// RegisterClass makes a class available to LookupClass. Registering a class
// whose name or OID is already taken fails.
func RegisterClass(c *ObjectClass) error {
	registry.Lock()
	defer registry.Unlock()

	for _, existing := range registry.classes {
		if existing.Matches(c.Name) || existing.Matches(c.OID) {
			return fmt.Errorf("object class %s conflicts with registered class %s", c, existing)
		}
	}

	registry.classes = append(registry.classes, c)
	return nil
}

// LookupClass finds a registered class by name (ignoring case) or OID.
func LookupClass(nameOrOID string) (*ObjectClass, bool) {
	registry.RLock()
	defer registry.RUnlock()

	for _, c := range registry.classes {
		if c.Matches(nameOrOID) {
			return c, true
		}
	}
	return nil, false
}

// Classes returns every registered class in registration order.
func Classes() []*ObjectClass {
	registry.RLock()
	defer registry.RUnlock()

	return slices.Clone(registry.classes)
}

func mustRegister(classes ...*ObjectClass) bool {
	for _, c := range classes {
		if err := RegisterClass(c); err != nil {
			panic(err)
		}
	}
	return true
}
