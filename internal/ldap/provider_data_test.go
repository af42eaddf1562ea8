package ldap

import (
	"context"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConnectConfig() *Config {
	config := DefaultConfig()
	config.URL = "ldap://directory.test"
	config.BindDN = "cn=admin,dc=example,dc=com"
	config.BindPassword = "secret"
	config.BaseDN = "dc=example,dc=com"
	return config
}

func TestConnectWithDialer(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()

	pd, err := ConnectWithDialer(ctx, testConnectConfig(), dir)
	require.NoError(t, err)

	assert.True(t, pd.IsConnected())
	assert.Equal(t, []string{"ldap://directory.test:389"}, dir.opened)
	assert.Equal(t, []string{"cn=admin,dc=example,dc=com"}, dir.binds)

	require.NoError(t, pd.Close(ctx))
	assert.False(t, pd.IsConnected())
}

func TestConnectWithDialer_BindFailureReleasesSession(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	dir.bindErr = ldap.NewError(ldap.LDAPResultInvalidCredentials, assert.AnError)

	pd, err := ConnectWithDialer(ctx, testConnectConfig(), dir)
	require.Error(t, err)
	assert.Nil(t, pd)
	assert.True(t, IsAuthenticationError(err))
	assert.Len(t, dir.closed, 1)
}

func TestConnectWithDialer_InvalidConfig(t *testing.T) {
	dir := newFakeDirectory()
	config := testConnectConfig()
	config.BaseDN = "not a dn"

	_, err := ConnectWithDialer(context.Background(), config, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base DN")
	assert.Empty(t, dir.opened, "nothing is dialed for an invalid config")
}

func TestProviderData_Duplicate(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()

	pd, err := ConnectWithDialer(ctx, testConnectConfig(), dir)
	require.NoError(t, err)

	dup, err := pd.Duplicate(ctx)
	require.NoError(t, err)
	assert.True(t, dup.IsDuplicate())
	assert.True(t, dup.SharesOrigin(pd.Session))

	require.NoError(t, pd.Close(ctx))
	assert.False(t, dup.IsUsable())

	_, err = pd.Duplicate(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = (&ProviderData{}).Duplicate(ctx)
	assert.Error(t, err)
}

func TestProviderData_ResolveBaseDN(t *testing.T) {
	pd := &ProviderData{Config: &Config{BaseDN: "dc=example,dc=com"}}

	base, err := pd.ResolveBaseDN("")
	require.NoError(t, err)
	assert.Equal(t, "dc=example,dc=com", base)

	base, err = pd.ResolveBaseDN("ou=people,dc=example,dc=com")
	require.NoError(t, err)
	assert.Equal(t, "ou=people,dc=example,dc=com", base)

	_, err = (&ProviderData{Config: &Config{}}).ResolveBaseDN("")
	assert.Error(t, err)
}
