// Package ldaptest provides an in-memory directory for tests of code built on
// the ldap package. It evaluates search filters and scopes the way a server
// would, so callers can exercise real filters without a running server.
package ldaptest

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	ber "github.com/go-asn1-ber/asn1-ber"
	goldap "github.com/go-ldap/ldap/v3"

	"github.com/isometry/terraform-provider-directory/internal/ldap"
)

var _ ldap.Dialer = (*Directory)(nil)

// Directory is an ldap.Dialer backed by a fixed set of entries.
type Directory struct {
	mu sync.Mutex

	entries     []*ldap.RawEntry
	credentials map[string]string
	searches    []ldap.SearchParams
	opened      []string
	open        int

	// OpenErr, when set, is returned by every Open.
	OpenErr error
	// SearchErr, when set, is returned by every Search.
	SearchErr error
}

// New returns a directory holding entries, in the order given.
func New(entries ...*ldap.RawEntry) *Directory {
	return &Directory{
		entries:     entries,
		credentials: make(map[string]string),
	}
}

// Add appends an entry. Attributes are stored in name order.
func (d *Directory) Add(dn string, attrs map[string][]string) *Directory {
	entry := &ldap.RawEntry{DN: dn}
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		entry.Attributes = append(entry.Attributes, ldap.RawAttribute{Name: name, Values: attrs[name]})
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, entry)
	return d
}

// AddCredential allows a simple bind as dn with password.
func (d *Directory) AddCredential(dn, password string) *Directory {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.credentials[credentialKey(dn)] = password
	return d
}

// Searches returns every search run against the directory.
func (d *Directory) Searches() []ldap.SearchParams {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.searches)
}

// Opened returns the URI of every connection opened, duplicates included.
func (d *Directory) Opened() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.opened)
}

// OpenHandles returns how many handles are still open.
func (d *Directory) OpenHandles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Open implements ldap.Dialer.
func (d *Directory) Open(ctx context.Context, uri string) (ldap.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.opened = append(d.opened, uri)
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.open++
	return &handle{dir: d, uri: uri}, nil
}

func credentialKey(dn string) string {
	if normalized, err := ldap.NormalizeDNCase(dn); err == nil {
		return strings.ToLower(normalized)
	}
	return strings.ToLower(dn)
}

type handle struct {
	dir      *Directory
	uri      string
	bindDN   string
	password string
	closed   bool
}

func (h *handle) Duplicate(ctx context.Context) (ldap.Handle, error) {
	if h.isClosed() {
		return nil, errClosed()
	}

	dup, err := h.dir.Open(ctx, h.uri)
	if err != nil {
		return nil, err
	}
	if h.bindDN != "" || h.password != "" {
		if err := dup.Bind(ctx, h.bindDN, h.password); err != nil {
			_ = dup.Close()
			return nil, err
		}
	}
	return dup, nil
}

func (h *handle) Bind(ctx context.Context, dn, password string) error {
	if h.isClosed() {
		return errClosed()
	}

	if dn == "" && password == "" {
		h.bindDN, h.password = "", ""
		return nil
	}

	h.dir.mu.Lock()
	want, ok := h.dir.credentials[credentialKey(dn)]
	h.dir.mu.Unlock()

	if !ok || want != password {
		return goldap.NewError(goldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
	}

	h.bindDN, h.password = dn, password
	return nil
}

func (h *handle) Search(ctx context.Context, params ldap.SearchParams) (ldap.Cursor, error) {
	if h.isClosed() {
		return nil, errClosed()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filter, err := goldap.CompileFilter(params.Filter)
	if err != nil {
		return nil, goldap.NewError(goldap.LDAPResultFilterError, err)
	}

	h.dir.mu.Lock()
	defer h.dir.mu.Unlock()

	h.dir.searches = append(h.dir.searches, params)
	if h.dir.SearchErr != nil {
		return nil, h.dir.SearchErr
	}

	base := ldap.DN(params.BaseDN)
	var found bool
	var results []*ldap.RawEntry
	for _, entry := range h.dir.entries {
		dn := ldap.DN(entry.DN)
		if dn.Equal(base) || dn.IsDescendantOf(base) {
			found = true
		}
		if inScope(dn, base, params.Scope) && matches(filter, entry) {
			results = append(results, entry)
		}
	}

	if !found {
		return nil, goldap.NewError(goldap.LDAPResultNoSuchObject, errors.New("no such object"))
	}

	return &cursor{entries: results}, nil
}

// WhoAmI reports the bound DN in the dn: form, or an empty identity for an
// anonymous handle.
func (h *handle) WhoAmI(ctx context.Context) (string, error) {
	if h.isClosed() {
		return "", errClosed()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if h.bindDN == "" {
		return "", nil
	}
	return "dn:" + h.bindDN, nil
}

func (h *handle) Close() error {
	h.dir.mu.Lock()
	defer h.dir.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.dir.open--
	return nil
}

func (h *handle) isClosed() bool {
	h.dir.mu.Lock()
	defer h.dir.mu.Unlock()
	return h.closed
}

func errClosed() error {
	return goldap.NewError(goldap.ErrorNetwork, errors.New("ldap: connection closed"))
}

func inScope(dn, base ldap.DN, scope ldap.SearchScope) bool {
	switch scope {
	case ldap.ScopeBaseObject:
		return dn.Equal(base)
	case ldap.ScopeSingleLevel:
		parent, err := dn.Parent()
		return err == nil && parent.Equal(base)
	case ldap.ScopeWholeSubtree:
		return dn.Equal(base) || dn.IsDescendantOf(base)
	case ldap.ScopeChildren:
		return dn.IsDescendantOf(base)
	default:
		return false
	}
}

// matches evaluates a compiled filter against entry.
func matches(filter *ber.Packet, entry *ldap.RawEntry) bool {
	switch filter.Tag {
	case goldap.FilterAnd:
		for _, child := range filter.Children {
			if !matches(child, entry) {
				return false
			}
		}
		return true
	case goldap.FilterOr:
		for _, child := range filter.Children {
			if matches(child, entry) {
				return true
			}
		}
		return false
	case goldap.FilterNot:
		return len(filter.Children) == 1 && !matches(filter.Children[0], entry)
	case goldap.FilterPresent:
		name, _ := filter.Value.(string)
		if strings.EqualFold(name, "objectClass") {
			return true
		}
		return len(values(entry, name)) > 0
	case goldap.FilterEqualityMatch, goldap.FilterApproxMatch:
		name, assertion := assertionOf(filter)
		return anyValue(entry, name, func(v string) bool { return equalValue(name, v, assertion) })
	case goldap.FilterGreaterOrEqual:
		name, assertion := assertionOf(filter)
		return anyValue(entry, name, func(v string) bool { return compareValues(v, assertion) >= 0 })
	case goldap.FilterLessOrEqual:
		name, assertion := assertionOf(filter)
		return anyValue(entry, name, func(v string) bool { return compareValues(v, assertion) <= 0 })
	case goldap.FilterSubstrings:
		if len(filter.Children) != 2 {
			return false
		}
		name, _ := filter.Children[0].Value.(string)
		parts := filter.Children[1].Children
		return anyValue(entry, name, func(v string) bool { return matchSubstrings(v, parts) })
	default:
		return false
	}
}

func assertionOf(filter *ber.Packet) (name, assertion string) {
	if len(filter.Children) != 2 {
		return "", ""
	}
	name, _ = filter.Children[0].Value.(string)
	assertion, _ = filter.Children[1].Value.(string)
	return name, assertion
}

func values(entry *ldap.RawEntry, name string) []string {
	var out []string
	for _, attr := range entry.Attributes {
		if strings.EqualFold(attr.Name, name) {
			out = append(out, attr.Values...)
		}
	}
	if strings.EqualFold(name, "entryDN") && len(out) == 0 {
		out = append(out, entry.DN)
	}
	return out
}

func anyValue(entry *ldap.RawEntry, name string, fn func(string) bool) bool {
	return slices.ContainsFunc(values(entry, name), fn)
}

// equalValue compares case-insensitively. objectClass assertions may name a
// class by OID, and DN-valued attributes compare as DNs.
func equalValue(name, value, assertion string) bool {
	if strings.EqualFold(name, "objectClass") {
		if class, ok := ldap.LookupClass(assertion); ok {
			return class.Matches(value)
		}
	}
	if strings.EqualFold(value, assertion) {
		return true
	}
	if ldap.ValidateDNSyntax(value) == nil && ldap.ValidateDNSyntax(assertion) == nil {
		return ldap.DN(value).Equal(ldap.DN(assertion))
	}
	return false
}

func compareValues(value, assertion string) int {
	a, errA := strconv.ParseInt(value, 10, 64)
	b, errB := strconv.ParseInt(assertion, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(value), strings.ToLower(assertion))
}

func matchSubstrings(value string, parts []*ber.Packet) bool {
	rest := strings.ToLower(value)
	for _, part := range parts {
		s, _ := part.Value.(string)
		s = strings.ToLower(s)
		switch part.Tag {
		case goldap.FilterSubstringsInitial:
			if !strings.HasPrefix(rest, s) {
				return false
			}
			rest = rest[len(s):]
		case goldap.FilterSubstringsAny:
			i := strings.Index(rest, s)
			if i < 0 {
				return false
			}
			rest = rest[i+len(s):]
		case goldap.FilterSubstringsFinal:
			if !strings.HasSuffix(rest, s) {
				return false
			}
			rest = ""
		}
	}
	return true
}

type cursor struct {
	entries []*ldap.RawEntry
	current *ldap.RawEntry
}

func (c *cursor) Next() bool {
	if len(c.entries) == 0 {
		c.current = nil
		return false
	}
	c.current, c.entries = c.entries[0], c.entries[1:]
	return true
}

func (c *cursor) Entry() *ldap.RawEntry { return c.current }

func (c *cursor) Err() error { return nil }
