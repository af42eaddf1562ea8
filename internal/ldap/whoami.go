package ldap

import (
	"context"
	"strings"
)

// AuthzFormat names the form of an authorization identity.
type AuthzFormat string

const (
	AuthzEmpty   AuthzFormat = "empty"
	AuthzDN      AuthzFormat = "dn"
	AuthzUser    AuthzFormat = "u"
	AuthzUnknown AuthzFormat = "unknown"
)

// AuthzID is an authorization identity as returned by the "Who am I?"
// extended operation (RFC 4532). Servers answer with "dn:<dn>", "u:<userid>"
// or an empty string for anonymous sessions.
type AuthzID struct {
	Raw    string
	Format AuthzFormat
	// Value is the identity without its prefix. For the dn form it is a DN.
	Value string
}

// DN returns the identity as a DN, or "" when it is not in the dn form.
func (a AuthzID) DN() DN {
	if a.Format != AuthzDN {
		return ""
	}
	return DN(a.Value)
}

// ParseAuthzID splits raw into its format and value.
func ParseAuthzID(raw string) AuthzID {
	id := AuthzID{Raw: raw}

	switch {
	case raw == "":
		id.Format = AuthzEmpty
	case hasPrefixFold(raw, "dn:"):
		id.Format = AuthzDN
		id.Value = raw[len("dn:"):]
	case hasPrefixFold(raw, "u:"):
		id.Format = AuthzUser
		id.Value = raw[len("u:"):]
	default:
		id.Format = AuthzUnknown
		id.Value = raw
	}

	return id
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// WhoAmI asks the server which identity it associates with the session.
func (s *Session) WhoAmI(ctx context.Context) (AuthzID, error) {
	if !s.IsUsable() {
		return AuthzID{}, ErrSessionClosed
	}

	var raw string
	err := LogOperation(ctx, "whoami", map[string]any{
		"server": s.server.String(),
		"mode":   s.mode.String(),
	}, func() error {
		var err error
		raw, err = s.handle.WhoAmI(ctx)
		if err != nil {
			return NewDirectoryError("whoami", "", err)
		}
		return nil
	})
	if err != nil {
		return AuthzID{}, err
	}

	return ParseAuthzID(raw), nil
}
