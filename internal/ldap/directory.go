package ldap

import (
	"context"
)

// SearchScope controls how deep a search descends below its base.
type SearchScope int

const (
	ScopeBaseObject SearchScope = iota
	ScopeSingleLevel
	ScopeWholeSubtree
	ScopeChildren
)

func (s SearchScope) String() string {
	switch s {
	case ScopeBaseObject:
		return "base"
	case ScopeSingleLevel:
		return "one"
	case ScopeWholeSubtree:
		return "sub"
	case ScopeChildren:
		return "children"
	default:
		return "unknown"
	}
}

// Attribute selectors for every user and every operational attribute.
const (
	AllUserAttributes        = "*"
	AllOperationalAttributes = "+"
)

// SearchParams is what a Handle needs to run one search.
type SearchParams struct {
	BaseDN     string
	Scope      SearchScope
	Filter     string
	Attributes []string
}

// RawEntry is one search result as delivered by the native client. Values
// keep server order, and repeated names are allowed.
type RawEntry struct {
	DN         string
	Attributes []RawAttribute
}

// RawAttribute is one attribute of a RawEntry.
type RawAttribute struct {
	Name   string
	Values []string
}

// Dialer opens native directory handles.
type Dialer interface {
	Open(ctx context.Context, uri string) (Handle, error)
}

// Handle is one native connection. Handles are not safe for concurrent use.
type Handle interface {
	// Duplicate returns an independent handle to the same server carrying
	// the same authentication.
	Duplicate(ctx context.Context) (Handle, error)
	Bind(ctx context.Context, dn, password string) error
	Search(ctx context.Context, params SearchParams) (Cursor, error)
	// WhoAmI returns the authorization identity the server associates with
	// the handle.
	WhoAmI(ctx context.Context) (string, error)
	Close() error
}

// Cursor iterates over search results.
type Cursor interface {
	Next() bool
	Entry() *RawEntry
	Err() error
}
