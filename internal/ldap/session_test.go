package ldap

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSession(t *testing.T, dir *fakeDirectory) *Session {
	t.Helper()

	s, err := Open(context.Background(), dir, LDAP("localhost"))
	require.NoError(t, err)
	return s
}

func TestOpen(t *testing.T) {
	dir := newFakeDirectory()
	s := openTestSession(t, dir)

	assert.Equal(t, []string{"ldap://localhost:389"}, dir.opened)
	assert.Equal(t, ModePrimary, s.Mode())
	assert.False(t, s.IsDuplicate())
	assert.True(t, s.IsUsable())
	assert.Equal(t, LDAP("localhost"), s.Server())
}

func TestOpen_Errors(t *testing.T) {
	t.Run("native failure", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.openErr = ldap.NewError(ldap.ErrorNetwork, errors.New("connection refused"))

		_, err := Open(context.Background(), dir, LDAP("localhost"))
		require.Error(t, err)

		var dirErr *DirectoryError
		require.True(t, errors.As(err, &dirErr))
		assert.Equal(t, "open", dirErr.Operation)
		assert.Equal(t, ErrorCategoryConnection, dirErr.Category())
	})

	t.Run("success without handle", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.nilHandle = true

		_, err := Open(context.Background(), dir, LDAP("localhost"))
		assert.ErrorIs(t, err, ErrUnknownResult)
	})

	t.Run("invalid server", func(t *testing.T) {
		dir := newFakeDirectory()

		_, err := Open(context.Background(), dir, Server{Scheme: SchemeLDAP})
		assert.Error(t, err)
		assert.Empty(t, dir.opened)
	})
}

func TestBind(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		dir := newFakeDirectory()
		s := openTestSession(t, dir)

		require.NoError(t, s.Bind(ctx, "cn=admin,dc=example,dc=com", "secret"))
		assert.Equal(t, []string{"cn=admin,dc=example,dc=com"}, dir.binds)
		assert.True(t, s.IsUsable())
	})

	t.Run("invalid credentials leave state unchanged", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.bindErr = ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
		s := openTestSession(t, dir)

		err := s.Bind(ctx, "cn=admin,dc=example,dc=com", "wrong")
		require.Error(t, err)
		assert.True(t, IsAuthenticationError(err))

		var dirErr *DirectoryError
		require.True(t, errors.As(err, &dirErr))
		assert.Equal(t, "cn=admin,dc=example,dc=com", dirErr.DN)
		assert.True(t, s.IsUsable())
	})

	t.Run("closed session", func(t *testing.T) {
		dir := newFakeDirectory()
		s := openTestSession(t, dir)
		require.NoError(t, s.Unbind(ctx))

		assert.ErrorIs(t, s.Bind(ctx, "cn=admin,dc=example,dc=com", "secret"), ErrSessionClosed)
		assert.Empty(t, dir.binds)
	})
}

func TestDuplicate_FateSharing(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()

	p := openTestSession(t, dir)
	d1, err := p.Duplicate(ctx)
	require.NoError(t, err)
	d2, err := d1.Duplicate(ctx)
	require.NoError(t, err)

	assert.True(t, d1.IsDuplicate())
	assert.True(t, d2.IsDuplicate())
	assert.True(t, d1.SharesOrigin(p))
	assert.True(t, d2.SharesOrigin(p))

	// Both duplicates derive from the primary's handle, never from each other.
	primary := p.handle.(*fakeHandle)
	assert.Same(t, primary, d1.handle.(*fakeHandle).parent)
	assert.Same(t, primary, d2.handle.(*fakeHandle).parent)

	require.NoError(t, d1.Close(ctx))
	assert.False(t, d1.IsUsable())
	assert.True(t, p.IsUsable(), "closing a duplicate must not affect the primary")
	assert.True(t, d2.IsUsable(), "closing a duplicate must not affect its siblings")

	require.NoError(t, p.Unbind(ctx))
	assert.False(t, p.IsUsable())
	assert.False(t, d2.IsUsable(), "unbinding the primary invalidates every duplicate")

	_, err = d2.Duplicate(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)

	assert.ElementsMatch(t, []*fakeHandle{d1.handle.(*fakeHandle), primary}, dir.closed)
}

func TestDuplicate_ReleasesOnlyOwnHandle(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()

	p := openTestSession(t, dir)
	d, err := p.Duplicate(ctx)
	require.NoError(t, err)

	require.NoError(t, d.Unbind(ctx))
	require.Len(t, dir.closed, 1)
	assert.Same(t, d.handle.(*fakeHandle), dir.closed[0])

	require.NoError(t, p.Bind(ctx, "cn=admin,dc=example,dc=com", "secret"))
}

func TestNewPrimary_IsIndependent(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()

	p := openTestSession(t, dir)
	other, err := p.NewPrimary(ctx)
	require.NoError(t, err)

	assert.False(t, other.SharesOrigin(p))

	require.NoError(t, p.Unbind(ctx))
	assert.True(t, other.IsUsable())
}

func TestUnbind_RedundantReleaseLogsWarning(t *testing.T) {
	var output bytes.Buffer
	ctx := tflogtest.RootLogger(context.Background(), &output)
	ctx = NewLoggingContext(ctx)

	dir := newFakeDirectory()
	s, err := Open(ctx, dir, LDAP("localhost"))
	require.NoError(t, err)

	require.NoError(t, s.Unbind(ctx))
	require.NoError(t, s.Unbind(ctx), "a second release must not fail")
	assert.Len(t, dir.closed, 1, "the native handle is released exactly once")

	entries, err := tflogtest.MultilineJSONDecode(&output)
	require.NoError(t, err)

	var warned bool
	for _, entry := range entries {
		if entry["event"] == "redundant_release" {
			warned = true
			assert.Equal(t, "warn", entry["@level"])
			assert.Contains(t, entry["@module"], Subsystem)
		}
	}
	assert.True(t, warned, "redundant release should be logged")
}

func TestUnbind_CloseFailure(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	dir.closeErr = errors.New("socket already gone")

	s := openTestSession(t, dir)

	err := s.Unbind(ctx)
	require.Error(t, err)

	var dirErr *DirectoryError
	require.True(t, errors.As(err, &dirErr))
	assert.Equal(t, "close", dirErr.Operation)
	assert.False(t, s.IsUsable(), "a failed release still closes the session")

	assert.NotPanics(t, func() { s.CloseQuietly(ctx) })
}

func TestSessionSearch_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("native failure", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.searchErr = ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("no such object"))
		s := openTestSession(t, dir)

		_, err := s.search(ctx, SearchParams{BaseDN: "ou=missing,dc=example,dc=com"})
		assert.True(t, IsNotFoundError(err))
	})

	t.Run("success without cursor", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.nilCursor = true
		s := openTestSession(t, dir)

		_, err := s.search(ctx, SearchParams{BaseDN: "dc=example,dc=com"})
		assert.ErrorIs(t, err, ErrUnknownResult)
	})

	t.Run("closed duplicate", func(t *testing.T) {
		dir := newFakeDirectory()
		p := openTestSession(t, dir)
		d, err := p.Duplicate(ctx)
		require.NoError(t, err)
		require.NoError(t, d.Close(ctx))

		_, err = d.search(ctx, SearchParams{BaseDN: "dc=example,dc=com"})
		assert.ErrorIs(t, err, ErrSessionClosed)
		assert.Empty(t, dir.searches)
	})
}
