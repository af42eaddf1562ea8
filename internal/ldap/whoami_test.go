package ldap

import (
	"context"
	"errors"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAuthzID(t *testing.T) {
	tests := []struct {
		raw        string
		wantFormat AuthzFormat
		wantValue  string
		wantDN     DN
	}{
		{raw: "", wantFormat: AuthzEmpty},
		{
			raw:        "dn:uid=alice,ou=people,dc=example,dc=com",
			wantFormat: AuthzDN,
			wantValue:  "uid=alice,ou=people,dc=example,dc=com",
			wantDN:     "uid=alice,ou=people,dc=example,dc=com",
		},
		{
			raw:        "DN:cn=admin,dc=example,dc=com",
			wantFormat: AuthzDN,
			wantValue:  "cn=admin,dc=example,dc=com",
			wantDN:     "cn=admin,dc=example,dc=com",
		},
		{raw: "u:alice", wantFormat: AuthzUser, wantValue: "alice"},
		{raw: "EXAMPLE\\alice", wantFormat: AuthzUnknown, wantValue: "EXAMPLE\\alice"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id := ParseAuthzID(tt.raw)
			assert.Equal(t, tt.raw, id.Raw)
			assert.Equal(t, tt.wantFormat, id.Format)
			assert.Equal(t, tt.wantValue, id.Value)
			assert.Equal(t, tt.wantDN, id.DN())
		})
	}
}

func TestSession_WhoAmI(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	dir.authzID = "dn:cn=admin,dc=example,dc=com"

	s := openTestSession(t, dir)

	id, err := s.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, AuthzDN, id.Format)
	assert.Equal(t, DN("cn=admin,dc=example,dc=com"), id.DN())

	dir.whoAmIErr = ldap.NewError(ldap.LDAPResultUnwillingToPerform, errors.New("unsupported"))
	_, err = s.WhoAmI(ctx)
	require.Error(t, err)
	var dirErr *DirectoryError
	assert.ErrorAs(t, err, &dirErr)

	require.NoError(t, s.Close(ctx))
	_, err = s.WhoAmI(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)
}
