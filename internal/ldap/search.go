package ldap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// ErrNotFound is returned by SearchDN when no entry matches.
var ErrNotFound = errors.New("entry not found")

// BuildFilter restricts filter to entries of class. An empty filter selects
// every entry of the class.
func BuildFilter(class *ObjectClass, filter string) string {
	classFilter := fmt.Sprintf("(objectClass=%s)", class.OID)
	if filter == "" {
		return classFilter
	}
	return fmt.Sprintf("(&%s%s)", classFilter, filter)
}

// ValidateFilter checks that filter is a well-formed LDAP filter.
func ValidateFilter(filter string) error {
	if filter == "" {
		return nil
	}
	if _, err := ldap.CompileFilter(filter); err != nil {
		return fmt.Errorf("invalid LDAP filter %q: %w", filter, err)
	}
	return nil
}

// Search returns the entries below base (children scope, base excluded) that
// carry schema's class and match filter, each viewed through schema. Every user and operational
// attribute is requested. Entries keep server order. Any failure, including
// one reported by the cursor mid-iteration, discards the partial result.
func Search[S Schema](ctx context.Context, session *Session, schema S, base, filter string) ([]*Entry[S], error) {
	return search(ctx, session, schema, SearchParams{
		BaseDN:     base,
		Scope:      ScopeChildren,
		Filter:     BuildFilter(schema.Class(), filter),
		Attributes: []string{AllUserAttributes, AllOperationalAttributes},
	})
}

// SearchDN returns the entry named dn viewed through schema. It searches the
// children of dn's parent for the entry's RDN, so the usual class filter
// applies. ErrNotFound is returned if no such entry exists.
func SearchDN[S Schema](ctx context.Context, session *Session, schema S, dn DN) (*Entry[S], error) {
	attr, value, err := dn.RDN()
	if err != nil {
		return nil, err
	}
	parent, err := dn.Parent()
	if err != nil {
		return nil, err
	}

	filter := fmt.Sprintf("(%s=%s)", attr, ldap.EscapeFilter(value))
	entries, err := Search(ctx, session, schema, parent.String(), filter)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.DN().Equal(dn) {
			return entry, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", dn, ErrNotFound)
}

func search[S Schema](ctx context.Context, session *Session, schema S, params SearchParams) ([]*Entry[S], error) {
	start := time.Now()
	fields := map[string]any{
		"base_dn": params.BaseDN,
		"scope":   params.Scope.String(),
		"filter":  params.Filter,
		"class":   schema.Class().Name,
	}

	var entries []*Entry[S]
	err := LogOperation(ctx, "search", fields, func() error {
		cursor, err := session.search(ctx, params)
		if err != nil {
			return err
		}

		for cursor.Next() {
			raw := cursor.Entry()
			if raw == nil {
				return fmt.Errorf("search %s: %w", params.BaseDN, ErrUnknownResult)
			}
			entries = append(entries, NewEntry(schema, rawAttributes(raw)))
		}

		if err := cursor.Err(); err != nil {
			return NewDirectoryError("search", params.BaseDN, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tflog.SubsystemDebug(ctx, Subsystem, "Search completed", map[string]any{
		"base_dn":     params.BaseDN,
		"filter":      params.Filter,
		"entry_count": len(entries),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return entries, nil
}

// rawAttributes converts a wire entry into the raw attribute map. Names that
// arrive with no values are kept as empty values, repeated names are merged
// in order, and entryDN is filled from the entry's DN when the server did not
// return it.
func rawAttributes(entry *RawEntry) map[AttributeKey]RawValue {
	raw := make(map[AttributeKey]RawValue, len(entry.Attributes)+1)

	for _, attr := range entry.Attributes {
		key := AttributeKey(attr.Name)
		value := RawOf(attr.Values...)
		if existing, ok := raw[key]; ok {
			value = existing.Concat(value)
		}
		raw[key] = value
	}

	if _, ok := raw[AttrEntryDN.key]; !ok && strings.TrimSpace(entry.DN) != "" {
		raw[AttrEntryDN.key] = Single(entry.DN)
	}

	return raw
}
