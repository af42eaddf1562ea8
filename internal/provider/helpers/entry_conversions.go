// Package helpers converts decoded directory entries into Terraform values so
// that every data source renders entries the same way.
package helpers

import (
	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
)

// AttributesType is map(list(string)), the Terraform shape of raw attributes.
var AttributesType = types.MapType{ElemType: types.ListType{ElemType: types.StringType}}

// EntryAttrTypes describes one generic entry object.
var EntryAttrTypes = map[string]attr.Type{
	"dn":             types.StringType,
	"object_classes": types.ListType{ElemType: types.StringType},
	"attributes":     AttributesType,
}

// StringList converts values to a list of strings. A nil slice becomes an
// empty list, never null.
func StringList(values []string) (types.List, diag.Diagnostics) {
	elements := make([]attr.Value, len(values))
	for i, v := range values {
		elements[i] = types.StringValue(v)
	}
	return types.ListValue(types.StringType, elements)
}

// DNList converts DN values to a list of strings.
func DNList(values []ldapclient.DN) (types.List, diag.Diagnostics) {
	strs := make([]string, len(values))
	for i, dn := range values {
		strs[i] = dn.String()
	}
	return StringList(strs)
}

// OptionalString maps a missing optional value to null.
func OptionalString(value *string) types.String {
	if value == nil {
		return types.StringNull()
	}
	return types.StringValue(*value)
}

// AttributeMap converts raw attributes to map(list(string)). Attributes that
// carry no values map to an empty list.
func AttributeMap(attrs map[ldapclient.AttributeKey]ldapclient.RawValue) (types.Map, diag.Diagnostics) {
	var diags diag.Diagnostics

	elements := make(map[string]attr.Value, len(attrs))
	for key, raw := range attrs {
		list, d := StringList(raw.Values())
		diags.Append(d...)
		if d.HasError() {
			return types.MapNull(AttributesType.ElemType), diags
		}
		elements[key.String()] = list
	}

	m, d := types.MapValue(AttributesType.ElemType, elements)
	diags.Append(d...)
	return m, diags
}

// EntryObject renders any entry as {dn, object_classes, attributes}.
func EntryObject(entry ldapclient.AnyEntry) (types.Object, diag.Diagnostics) {
	var diags diag.Diagnostics

	classes, d := StringList(ldapclient.ObjectClasses(entry))
	diags.Append(d...)
	attrs, d := AttributeMap(entry.Attributes())
	diags.Append(d...)
	if diags.HasError() {
		return types.ObjectNull(EntryAttrTypes), diags
	}

	obj, d := types.ObjectValue(EntryAttrTypes, map[string]attr.Value{
		"dn":             types.StringValue(entry.DN().String()),
		"object_classes": classes,
		"attributes":     attrs,
	})
	diags.Append(d...)
	return obj, diags
}

// EntryList renders entries as a list of entry objects, keeping their order.
func EntryList(entries []ldapclient.AnyEntry) (types.List, diag.Diagnostics) {
	var diags diag.Diagnostics
	elemType := types.ObjectType{AttrTypes: EntryAttrTypes}

	elements := make([]attr.Value, 0, len(entries))
	for _, entry := range entries {
		obj, d := EntryObject(entry)
		diags.Append(d...)
		if d.HasError() {
			return types.ListNull(elemType), diags
		}
		elements = append(elements, obj)
	}

	list, d := types.ListValue(elemType, elements)
	diags.Append(d...)
	return list, diags
}
