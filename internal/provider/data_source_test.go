package provider

import (
	"errors"
	"os"
	"regexp"
	"testing"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
)

func TestEntriesDataSource(t *testing.T) {
	resource.UnitTest(t, resource.TestCase{
		ProtoV6ProviderFactories: testProviderFactories(testDirectory()),
		Steps: []resource.TestStep{
			{
				Config: testProviderConfig() + `
data "directory_entries" "groups_ou" {
  base_dn = "ou=groups,dc=example,dc=com"
}

data "directory_entries" "people" {
  object_class = "inetOrgPerson"
  filter       = "(uid=a*)"
}
`,
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.directory_entries.groups_ou", "object_class", "*"),
					resource.TestCheckResourceAttr("data.directory_entries.groups_ou", "entry_count", "2"),
					resource.TestCheckResourceAttr("data.directory_entries.groups_ou", "entries.0.dn", "cn=admins,ou=groups,dc=example,dc=com"),
					resource.TestCheckResourceAttr("data.directory_entries.groups_ou", "entries.0.attributes.cn.0", "admins"),
					resource.TestCheckResourceAttr("data.directory_entries.groups_ou", "entries.1.attributes.member.#", "2"),
					resource.TestCheckResourceAttr("data.directory_entries.groups_ou", "id", "ou=groups,dc=example,dc=com|*|"),

					resource.TestCheckResourceAttr("data.directory_entries.people", "base_dn", testBaseDN),
					resource.TestCheckResourceAttr("data.directory_entries.people", "entry_count", "1"),
					resource.TestCheckResourceAttr("data.directory_entries.people", "entries.0.dn", "uid=alice,ou=people,dc=example,dc=com"),
					resource.TestCheckResourceAttr("data.directory_entries.people", "entries.0.object_classes.#", "4"),
				),
			},
		},
	})
}

func TestEntriesDataSource_InvalidInput(t *testing.T) {
	testCases := []struct {
		name        string
		config      string
		expectError *regexp.Regexp
	}{
		{
			name: "malformed filter",
			config: `
data "directory_entries" "bad" {
  filter = "(cn=broken"
}
`,
			expectError: regexp.MustCompile(`Invalid Search Filter`),
		},
		{
			name: "unknown object class",
			config: `
data "directory_entries" "bad" {
  object_class = "noSuchClass"
}
`,
			expectError: regexp.MustCompile(`Unknown Object Class`),
		},
		{
			name: "missing base",
			config: `
data "directory_entries" "bad" {
  base_dn = "ou=nowhere,dc=example,dc=com"
}
`,
			expectError: regexp.MustCompile(`Entry Not Found`),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resource.UnitTest(t, resource.TestCase{
				ProtoV6ProviderFactories: testProviderFactories(testDirectory()),
				Steps: []resource.TestStep{
					{
						Config:      testProviderConfig() + tc.config,
						ExpectError: tc.expectError,
					},
				},
			})
		})
	}
}

func TestEntriesDataSource_InsufficientAccess(t *testing.T) {
	dir := testDirectory()
	dir.SearchErr = goldap.NewError(goldap.LDAPResultInsufficientAccessRights, errors.New("access denied"))

	resource.UnitTest(t, resource.TestCase{
		ProtoV6ProviderFactories: testProviderFactories(dir),
		Steps: []resource.TestStep{
			{
				Config: testProviderConfig() + `
data "directory_entries" "denied" {}
`,
				ExpectError: regexp.MustCompile(`Insufficient Access`),
			},
		},
	})
}

func TestEntryDataSource(t *testing.T) {
	resource.UnitTest(t, resource.TestCase{
		ProtoV6ProviderFactories: testProviderFactories(testDirectory()),
		Steps: []resource.TestStep{
			{
				Config: testProviderConfig() + `
data "directory_entry" "alice" {
  dn           = "uid=alice,ou=people,dc=example,dc=com"
  object_class = "person"
}
`,
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.directory_entry.alice", "id", "uid=alice,ou=people,dc=example,dc=com"),
					resource.TestCheckResourceAttr("data.directory_entry.alice", "parent_dn", "ou=people,dc=example,dc=com"),
					resource.TestCheckResourceAttr("data.directory_entry.alice", "object_classes.#", "4"),
					resource.TestCheckResourceAttr("data.directory_entry.alice", "attributes.mail.0", "alice@example.com"),
					resource.TestCheckResourceAttr("data.directory_entry.alice", "attributes.sn.0", "Liddell"),
				),
			},
			{
				Config: testProviderConfig() + `
data "directory_entry" "carol" {
  dn = "uid=carol,ou=people,dc=example,dc=com"
}
`,
				ExpectError: regexp.MustCompile(`Entry Not Found`),
			},
			{
				Config: testProviderConfig() + `
data "directory_entry" "group_as_person" {
  dn           = "cn=admins,ou=groups,dc=example,dc=com"
  object_class = "inetOrgPerson"
}
`,
				ExpectError: regexp.MustCompile(`Entry Not Found`),
			},
		},
	})
}

func TestGroupsDataSource(t *testing.T) {
	resource.UnitTest(t, resource.TestCase{
		ProtoV6ProviderFactories: testProviderFactories(testDirectory()),
		Steps: []resource.TestStep{
			{
				Config: testProviderConfig() + `
data "directory_groups" "all" {}

data "directory_groups" "everyone" {
  base_dn = "ou=groups,dc=example,dc=com"
  filter  = "(cn=every*)"
}
`,
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.directory_groups.all", "base_dn", testBaseDN),
					resource.TestCheckResourceAttr("data.directory_groups.all", "group_count", "2"),
					resource.TestCheckResourceAttr("data.directory_groups.all", "groups.0.cn", "admins"),
					resource.TestCheckResourceAttr("data.directory_groups.all", "groups.0.description", "Administrators"),
					resource.TestCheckResourceAttr("data.directory_groups.all", "groups.0.members.#", "1"),
					resource.TestCheckResourceAttr("data.directory_groups.all", "groups.0.members.0", "uid=alice,ou=people,dc=example,dc=com"),
					resource.TestCheckNoResourceAttr("data.directory_groups.all", "groups.1.description"),

					resource.TestCheckResourceAttr("data.directory_groups.everyone", "group_count", "1"),
					resource.TestCheckResourceAttr("data.directory_groups.everyone", "groups.0.members.#", "2"),
				),
			},
		},
	})
}

func TestInetOrgPersonsDataSource(t *testing.T) {
	resource.UnitTest(t, resource.TestCase{
		ProtoV6ProviderFactories: testProviderFactories(testDirectory()),
		Steps: []resource.TestStep{
			{
				Config: testProviderConfig() + `
data "directory_inet_org_persons" "people" {
  base_dn = "ou=people,dc=example,dc=com"
}
`,
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.directory_inet_org_persons.people", "person_count", "2"),
					resource.TestCheckResourceAttr("data.directory_inet_org_persons.people", "people.0.cn", "Alice Liddell"),
					resource.TestCheckResourceAttr("data.directory_inet_org_persons.people", "people.0.sn", "Liddell"),
					resource.TestCheckResourceAttr("data.directory_inet_org_persons.people", "people.0.title", "Explorer"),
					resource.TestCheckResourceAttr("data.directory_inet_org_persons.people", "people.0.entry_uuid", "6f1c4c3e-2b7a-4d5e-9c1f-3a2b1c0d9e8f"),
					resource.TestCheckResourceAttr("data.directory_inet_org_persons.people", "people.1.uid", "bob"),
					resource.TestCheckNoResourceAttr("data.directory_inet_org_persons.people", "people.1.mail"),
					resource.TestCheckNoResourceAttr("data.directory_inet_org_persons.people", "people.1.entry_uuid"),
				),
			},
		},
	})
}

func TestPersonObject_MalformedValue(t *testing.T) {
	entry := ldapclient.NewEntry(ldapclient.InetOrgPerson{}, map[ldapclient.AttributeKey]ldapclient.RawValue{
		"objectClass": ldapclient.RawOf("top", "person", "organizationalPerson", "inetOrgPerson"),
		"entryDN":     ldapclient.Single("uid=eve,ou=people,dc=example,dc=com"),
		"cn":          ldapclient.Single("Eve"),
		"sn":          ldapclient.Single("Example"),
		"entryUUID":   ldapclient.Single("not-a-uuid"),
	})

	var diags diag.Diagnostics
	obj := personObject(entry, &diags)

	require.True(t, diags.HasError())
	assert.Equal(t, "Malformed Person Entry", diags.Errors()[0].Summary())
	assert.True(t, obj.IsNull())
}

func TestPersonObject_MissingSurname(t *testing.T) {
	entry := ldapclient.NewEntry(ldapclient.InetOrgPerson{}, map[ldapclient.AttributeKey]ldapclient.RawValue{
		"objectClass": ldapclient.RawOf("inetOrgPerson", "person"),
		"entryDN":     ldapclient.Single("uid=eve,ou=people,dc=example,dc=com"),
		"cn":          ldapclient.Single("Eve"),
	})

	var diags diag.Diagnostics
	personObject(entry, &diags)

	require.True(t, diags.HasError())
	assert.Contains(t, diags.Errors()[0].Detail(), "uid=eve,ou=people,dc=example,dc=com")
}

// TestAccEntriesDataSource_LiveDirectory runs against the server named by
// DIRECTORY_URL when TF_ACC is set.
func TestAccEntriesDataSource_LiveDirectory(t *testing.T) {
	testAccPreCheck(t)

	resource.Test(t, resource.TestCase{
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		Steps: []resource.TestStep{
			{
				Config: `
provider "directory" {}

data "directory_entries" "all" {}
`,
				Check: resource.TestCheckResourceAttrSet("data.directory_entries.all", "entry_count"),
			},
		},
	})
}

func testAccPreCheck(t *testing.T) {
	if os.Getenv("TF_ACC") == "" {
		t.Skip("Skipping acceptance test - set TF_ACC=1 to run")
	}
	if os.Getenv("DIRECTORY_URL") == "" || os.Getenv("DIRECTORY_BASE_DN") == "" {
		t.Skip("Skipping acceptance test - DIRECTORY_URL and DIRECTORY_BASE_DN must be set")
	}
}

func TestWhoAmIDataSource(t *testing.T) {
	resource.UnitTest(t, resource.TestCase{
		ProtoV6ProviderFactories: testProviderFactories(testDirectory()),
		Steps: []resource.TestStep{
			{
				Config: testProviderConfig() + `
data "directory_whoami" "current" {}
`,
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.directory_whoami.current", "authz_id", "dn:"+testBindDN),
					resource.TestCheckResourceAttr("data.directory_whoami.current", "id", "dn:"+testBindDN),
					resource.TestCheckResourceAttr("data.directory_whoami.current", "format", "dn"),
					resource.TestCheckResourceAttr("data.directory_whoami.current", "dn", testBindDN),
					resource.TestCheckNoResourceAttr("data.directory_whoami.current", "user_id"),
					resource.TestCheckResourceAttr("data.directory_whoami.current", "server", "ldap://directory.test:389"),
				),
			},
			{
				Config: `
provider "directory" {
  url = "ldap://directory.test"
}

data "directory_whoami" "current" {}
`,
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("data.directory_whoami.current", "id", "anonymous"),
					resource.TestCheckResourceAttr("data.directory_whoami.current", "format", "empty"),
					resource.TestCheckNoResourceAttr("data.directory_whoami.current", "dn"),
				),
			},
		},
	})
}

func TestMapAuthzID_UserForm(t *testing.T) {
	var data WhoAmIDataSourceModel
	mapAuthzID(ldapclient.ParseAuthzID("u:alice"), &data)

	assert.Equal(t, "u:alice", data.ID.ValueString())
	assert.Equal(t, "u", data.Format.ValueString())
	assert.Equal(t, "alice", data.UserID.ValueString())
	assert.True(t, data.DN.IsNull())
}
