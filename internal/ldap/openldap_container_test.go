//go:build container

package ldap_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/isometry/terraform-provider-directory/internal/ldap"
)

const (
	openldapImage    = "osixia/openldap:1.5.0"
	openldapBaseDN   = "dc=example,dc=org"
	openldapAdminDN  = "cn=admin,dc=example,dc=org"
	openldapPassword = "admin"
)

const seedLDIF = `dn: ou=people,dc=example,dc=org
objectClass: organizationalUnit
ou: people

dn: uid=alice,ou=people,dc=example,dc=org
objectClass: top
objectClass: person
objectClass: organizationalPerson
objectClass: inetOrgPerson
cn: Alice Liddell
sn: Liddell
uid: alice
mail: alice@example.org

dn: uid=bob,ou=people,dc=example,dc=org
objectClass: top
objectClass: person
objectClass: organizationalPerson
objectClass: inetOrgPerson
cn: Bob Builder
sn: Builder
uid: bob

dn: ou=groups,dc=example,dc=org
objectClass: organizationalUnit
ou: groups

dn: cn=readers,ou=groups,dc=example,dc=org
objectClass: groupOfNames
cn: readers
member: uid=alice,ou=people,dc=example,dc=org
member: uid=bob,ou=people,dc=example,dc=org
`

// startOpenLDAP runs a seeded OpenLDAP server and returns its URL.
func startOpenLDAP(t *testing.T, ctx context.Context) string {
	t.Helper()

	req := tc.ContainerRequest{
		Image:        openldapImage,
		ExposedPorts: []string{"389/tcp"},
		Env: map[string]string{
			"LDAP_ORGANISATION":   "Example",
			"LDAP_DOMAIN":         "example.org",
			"LDAP_ADMIN_PASSWORD": openldapPassword,
		},
		Files: []tc.ContainerFile{{
			Reader:            strings.NewReader(seedLDIF),
			ContainerFilePath: "/tmp/seed.ldif",
			FileMode:          0o644,
		}},
		WaitingFor: wait.ForAll(
			wait.ForLog("slapd starting"),
			wait.ForListeningPort("389/tcp"),
		),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	exitCode, output, err := container.Exec(ctx, []string{
		"ldapadd", "-x", "-H", "ldap://localhost:389",
		"-D", openldapAdminDN, "-w", openldapPassword, "-f", "/tmp/seed.ldif",
	})
	require.NoError(t, err)
	if exitCode != 0 {
		out, _ := io.ReadAll(output)
		t.Fatalf("ldapadd failed with exit code %d: %s", exitCode, out)
	}

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "389/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("ldap://%s:%s", host, port.Port())
}

func TestOpenLDAP_SearchPipeline(t *testing.T) {
	ctx := context.Background()

	config := ldap.DefaultConfig()
	config.URL = startOpenLDAP(t, ctx)
	config.BindDN = openldapAdminDN
	config.BindPassword = openldapPassword
	config.BaseDN = openldapBaseDN

	conn, err := ldap.Connect(ctx, config)
	require.NoError(t, err)
	defer conn.Session.CloseQuietly(ctx)

	t.Run("typed people", func(t *testing.T) {
		people, err := ldap.Search(ctx, conn.Session, ldap.InetOrgPerson{}, openldapBaseDN, "(uid=alice)")
		require.NoError(t, err)
		require.Len(t, people, 1)

		alice := people[0]
		assert.True(t, alice.DN().Equal("uid=alice,ou=people,dc=example,dc=org"))
		assert.Equal(t, "Liddell", ldap.Get(alice, alice.Schema().Surname()))

		mail := ldap.Get(alice, alice.Schema().Mail())
		require.NotNil(t, mail)
		assert.Equal(t, "alice@example.org", *mail)

		// entryUUID is operational and only present because "+" is requested.
		id, err := ldap.Lookup(alice, alice.Schema().EntryUUID())
		require.NoError(t, err)
		assert.NotNil(t, id)

		person, ok := ldap.Cast(alice, ldap.Person{})
		require.True(t, ok)
		assert.Equal(t, "Alice Liddell", ldap.Get(person, person.Schema().CommonName()))
	})

	t.Run("groups", func(t *testing.T) {
		groups, err := ldap.Search(ctx, conn.Session, ldap.GroupOfNames{}, openldapBaseDN, "")
		require.NoError(t, err)
		require.Len(t, groups, 1)

		members := ldap.Get(groups[0], groups[0].Schema().Member())
		assert.Len(t, members, 2)
	})

	t.Run("entry by DN", func(t *testing.T) {
		bob, err := ldap.SearchDN(ctx, conn.Session, ldap.DynamicSchema(nil), "uid=bob,ou=people,dc=example,dc=org")
		require.NoError(t, err)
		assert.Contains(t, ldap.ObjectClasses(bob), "inetOrgPerson")

		_, err = ldap.SearchDN(ctx, conn.Session, ldap.DynamicSchema(nil), "uid=carol,ou=people,dc=example,dc=org")
		assert.ErrorIs(t, err, ldap.ErrNotFound)
	})

	t.Run("whoami", func(t *testing.T) {
		id, err := conn.Session.WhoAmI(ctx)
		require.NoError(t, err)
		assert.Equal(t, ldap.AuthzDN, id.Format)
		assert.True(t, id.DN().Equal(openldapAdminDN))
	})

	t.Run("missing base", func(t *testing.T) {
		_, err := ldap.Search(ctx, conn.Session, ldap.Any{}, "ou=nowhere,dc=example,dc=org", "")
		require.Error(t, err)
		assert.True(t, ldap.IsNotFoundError(err))
	})
}

func TestOpenLDAP_DuplicateSharesFate(t *testing.T) {
	ctx := context.Background()

	config := ldap.DefaultConfig()
	config.URL = startOpenLDAP(t, ctx)
	config.BindDN = openldapAdminDN
	config.BindPassword = openldapPassword

	conn, err := ldap.Connect(ctx, config)
	require.NoError(t, err)

	dup, err := conn.Duplicate(ctx)
	require.NoError(t, err)

	entries, err := ldap.Search(ctx, dup, ldap.DynamicSchema(nil), openldapBaseDN, "")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	require.NoError(t, conn.Close(ctx))
	assert.False(t, dup.IsUsable())

	_, err = ldap.Search(ctx, dup, ldap.DynamicSchema(nil), openldapBaseDN, "")
	assert.ErrorIs(t, err, ldap.ErrSessionClosed)

	_, err = conn.Duplicate(ctx)
	assert.Error(t, err)
}

func TestOpenLDAP_InvalidCredentials(t *testing.T) {
	ctx := context.Background()

	config := ldap.DefaultConfig()
	config.URL = startOpenLDAP(t, ctx)
	config.BindDN = openldapAdminDN
	config.BindPassword = "wrong"

	_, err := ldap.Connect(ctx, config)
	require.Error(t, err)
	assert.True(t, ldap.IsAuthenticationError(err))
}
