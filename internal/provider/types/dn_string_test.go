package types

import (
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/attr/xattr"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"
	"github.com/hashicorp/terraform-plugin-go/tftypes"
)

func TestDNStringValue_StringSemanticEquals(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		old, new DNStringValue
		want     bool
	}{
		"identical": {
			old:  DNString("uid=alice,ou=people,dc=example,dc=com"),
			new:  DNString("uid=alice,ou=people,dc=example,dc=com"),
			want: true,
		},
		"attribute type case": {
			old:  DNString("uid=alice,ou=people,dc=example,dc=com"),
			new:  DNString("UID=alice,OU=people,DC=example,DC=com"),
			want: true,
		},
		"value case": {
			old:  DNString("cn=Admins,dc=example,dc=com"),
			new:  DNString("cn=admins,dc=example,dc=com"),
			want: true,
		},
		"different entries": {
			old:  DNString("cn=admins,dc=example,dc=com"),
			new:  DNString("cn=users,dc=example,dc=com"),
			want: false,
		},
		"unparseable falls back to text": {
			old:  DNString("not a dn"),
			new:  DNString("NOT A DN"),
			want: true,
		},
		"null and value": {
			old:  DNStringNull(),
			new:  DNString("cn=admins,dc=example,dc=com"),
			want: false,
		},
		"both null": {
			old:  DNStringNull(),
			new:  DNStringNull(),
			want: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, diags := tc.old.StringSemanticEquals(t.Context(), tc.new)
			if diags.HasError() {
				t.Fatalf("unexpected diagnostics: %s", diags)
			}
			if got != tc.want {
				t.Errorf("StringSemanticEquals() = %t, want %t", got, tc.want)
			}
		})
	}
}

func TestDNStringValue_WrongType(t *testing.T) {
	_, diags := DNString("cn=a").StringSemanticEquals(t.Context(), basetypes.NewStringValue("cn=a"))
	if !diags.HasError() {
		t.Fatal("expected an error for a plain string value")
	}
}

func TestDNStringType_ValueFromTerraform(t *testing.T) {
	value, err := DNStringType{}.ValueFromTerraform(t.Context(), tftypes.NewValue(tftypes.String, "cn=a,dc=example,dc=com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dn, ok := value.(DNStringValue)
	if !ok {
		t.Fatalf("expected DNStringValue, got %T", value)
	}
	if got := dn.DN().String(); got != "cn=a,dc=example,dc=com" {
		t.Errorf("DN() = %q", got)
	}
	if !dn.Type(t.Context()).Equal(DNStringType{}) {
		t.Error("value type should be DNStringType")
	}
}

func TestDNStringValue_Parent(t *testing.T) {
	parent, err := DNString("uid=alice,ou=people,dc=example,dc=com").Parent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := parent.ValueString(); got != "ou=people,dc=example,dc=com" {
		t.Errorf("Parent() = %q", got)
	}

	if _, err := DNString("dc=com").Parent(); err == nil {
		t.Error("expected an error for a DN without a parent")
	}

	parent, err = DNStringValue{StringValue: basetypes.NewStringUnknown()}.Parent()
	if err != nil || !parent.IsUnknown() {
		t.Errorf("Parent() of unknown = %v, %v; want unknown", parent, err)
	}
	parent, err = DNStringNull().Parent()
	if err != nil || !parent.IsNull() {
		t.Errorf("Parent() of null = %v, %v; want null", parent, err)
	}
}

func TestDNStringValue_ValidateAttribute(t *testing.T) {
	testCases := map[string]struct {
		value   DNStringValue
		wantErr bool
	}{
		"valid":     {value: DNString("cn=admins,ou=groups,dc=example,dc=com")},
		"null":      {value: DNStringNull()},
		"unknown":   {value: DNStringValue{StringValue: basetypes.NewStringUnknown()}},
		"empty":     {value: DNString(""), wantErr: true},
		"malformed": {value: DNString("admins"), wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			req := xattr.ValidateAttributeRequest{Path: path.Root("base_dn")}
			resp := &xattr.ValidateAttributeResponse{}

			tc.value.ValidateAttribute(t.Context(), req, resp)

			if resp.Diagnostics.HasError() != tc.wantErr {
				t.Errorf("HasError() = %t, want %t: %s", resp.Diagnostics.HasError(), tc.wantErr, resp.Diagnostics)
			}
		})
	}
}
