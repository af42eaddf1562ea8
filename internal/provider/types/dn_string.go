// Package types holds custom Terraform value types for directory data.
package types

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/attr/xattr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"
	"github.com/hashicorp/terraform-plugin-go/tftypes"

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
)

var (
	_ basetypes.StringTypable                    = DNStringType{}
	_ basetypes.StringValuableWithSemanticEquals = DNStringValue{}
	_ xattr.ValidateableAttribute                = DNStringValue{}
)

// DNStringType carries Distinguished Names. Values that name the same entry
// are semantically equal, so `OU=People` and `ou=people` do not cause drift.
type DNStringType struct {
	basetypes.StringType
}

func (DNStringType) String() string { return "DNStringType" }

func (DNStringType) ValueType(context.Context) attr.Value { return DNStringValue{} }

func (t DNStringType) Equal(o attr.Type) bool {
	_, ok := o.(DNStringType)
	return ok
}

func (DNStringType) ValueFromString(_ context.Context, in basetypes.StringValue) (basetypes.StringValuable, diag.Diagnostics) {
	return DNStringValue{StringValue: in}, nil
}

func (t DNStringType) ValueFromTerraform(ctx context.Context, in tftypes.Value) (attr.Value, error) {
	value, err := t.StringType.ValueFromTerraform(ctx, in)
	if err != nil {
		return nil, err
	}
	s, ok := value.(basetypes.StringValue)
	if !ok {
		return nil, fmt.Errorf("expected basetypes.StringValue, got: %T", value)
	}
	return DNStringValue{StringValue: s}, nil
}

// DNStringValue is a string holding a DN.
type DNStringValue struct {
	basetypes.StringValue
}

// DNString creates a known DNStringValue.
func DNString(value string) DNStringValue {
	return DNStringValue{StringValue: basetypes.NewStringValue(value)}
}

// DNStringNull creates a null DNStringValue.
func DNStringNull() DNStringValue {
	return DNStringValue{StringValue: basetypes.NewStringNull()}
}

func (DNStringValue) Type(context.Context) attr.Type { return DNStringType{} }

func (v DNStringValue) Equal(o attr.Value) bool {
	other, ok := o.(DNStringValue)
	return ok && v.StringValue.Equal(other.StringValue)
}

// DN returns the value as a directory DN.
func (v DNStringValue) DN() ldapclient.DN {
	return ldapclient.DN(v.ValueString())
}

// Parent returns the DN of the parent entry. It is unknown while the value is
// unknown, and an error for a single-RDN or unparseable DN.
func (v DNStringValue) Parent() (DNStringValue, error) {
	if v.IsUnknown() {
		return DNStringValue{StringValue: basetypes.NewStringUnknown()}, nil
	}
	if v.IsNull() {
		return DNStringNull(), nil
	}
	parent, err := v.DN().Parent()
	if err != nil {
		return DNStringNull(), err
	}
	return DNString(parent.String()), nil
}

// ValidateAttribute rejects known values that do not parse as a DN, so every
// attribute of this type is checked even without an explicit validator.
func (v DNStringValue) ValidateAttribute(_ context.Context, req xattr.ValidateAttributeRequest, resp *xattr.ValidateAttributeResponse) {
	if v.IsNull() || v.IsUnknown() {
		return
	}
	if err := ldapclient.ValidateDNSyntax(v.ValueString()); err != nil {
		resp.Diagnostics.AddAttributeError(req.Path, "Invalid Distinguished Name", err.Error())
	}
}

// StringSemanticEquals compares parsed DNs, ignoring case. Values that do
// not parse compare as case-insensitive text.
func (v DNStringValue) StringSemanticEquals(_ context.Context, newValuable basetypes.StringValuable) (bool, diag.Diagnostics) {
	var diags diag.Diagnostics

	other, ok := newValuable.(DNStringValue)
	if !ok {
		diags.AddError(
			"Semantic Equality Check Error",
			fmt.Sprintf("Expected DNStringValue, got %T. This is a bug in the provider.", newValuable),
		)
		return false, diags
	}

	if v.IsNull() || v.IsUnknown() || other.IsNull() || other.IsUnknown() {
		return v.Equal(other), diags
	}
	return v.DN().Equal(other.DN()), diags
}
