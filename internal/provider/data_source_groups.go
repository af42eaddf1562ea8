package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
	"github.com/isometry/terraform-provider-directory/internal/provider/helpers"
	customtypes "github.com/isometry/terraform-provider-directory/internal/provider/types"
	"github.com/isometry/terraform-provider-directory/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &GroupsDataSource{}

func NewGroupsDataSource() datasource.DataSource {
	return &GroupsDataSource{}
}

// GroupsDataSource lists groupOfNames entries below a base DN.
type GroupsDataSource struct {
	providerData *ldapclient.ProviderData
}

// GroupsDataSourceModel describes the data source data model.
type GroupsDataSourceModel struct {
	BaseDN customtypes.DNStringValue `tfsdk:"base_dn"`
	Filter types.String              `tfsdk:"filter"`

	Groups     types.List   `tfsdk:"groups"`
	GroupCount types.Int64  `tfsdk:"group_count"`
	ID         types.String `tfsdk:"id"`
}

var groupAttrTypes = map[string]attr.Type{
	"dn":          types.StringType,
	"cn":          types.StringType,
	"members":     types.ListType{ElemType: types.StringType},
	"description": types.StringType,
}

func (d *GroupsDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_groups"
}

func (d *GroupsDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Lists `groupOfNames` entries below a base DN, with their members.",

		Attributes: map[string]schema.Attribute{
			"base_dn": schema.StringAttribute{
				MarkdownDescription: "DN to search below. Defaults to the provider's `base_dn`.",
				CustomType:          customtypes.DNStringType{},
				Optional:            true,
				Computed:            true,
			},
			"filter": schema.StringAttribute{
				MarkdownDescription: "Additional LDAP filter. Example: `(cn=admins*)`",
				Optional:            true,
				Validators: []validator.String{
					validators.IsValidFilter(),
				},
			},

			"group_count": schema.Int64Attribute{
				MarkdownDescription: "The number of groups found.",
				Computed:            true,
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "A computed identifier for this search.",
				Computed:            true,
			},
			"groups": schema.ListNestedAttribute{
				MarkdownDescription: "Matching groups, in server order.",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"dn": schema.StringAttribute{
							MarkdownDescription: "The group's Distinguished Name.",
							Computed:            true,
						},
						"cn": schema.StringAttribute{
							MarkdownDescription: "The group's common name.",
							Computed:            true,
						},
						"members": schema.ListAttribute{
							MarkdownDescription: "Member DNs as stored on the group.",
							ElementType:         types.StringType,
							Computed:            true,
						},
						"description": schema.StringAttribute{
							MarkdownDescription: "The group's description, if set.",
							Computed:            true,
						},
					},
				},
			},
		},
	}
}

func (d *GroupsDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.providerData = providerDataFrom(req, resp)
}

func (d *GroupsDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data GroupsDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	logCompletion := ldapclient.LogDataSourceOperation(ctx, "directory_groups", "read", map[string]any{
		"base_dn": data.BaseDN.ValueString(),
		"filter":  data.Filter.ValueString(),
	})
	defer func() { logCompletion(firstError(resp.Diagnostics)) }()

	session := readSession(ctx, d.providerData, &resp.Diagnostics)
	if session == nil {
		return
	}
	defer session.CloseQuietly(ctx)

	base, err := d.providerData.ResolveBaseDN(data.BaseDN.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Missing Base DN", err.Error())
		return
	}

	groups, err := ldapclient.Search(ctx, session, ldapclient.GroupOfNames{}, base, data.Filter.ValueString())
	if err != nil {
		searchErrorDiagnostic(&resp.Diagnostics, base, err)
		return
	}

	data.Groups = mapGroups(ctx, groups, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	data.GroupCount = types.Int64Value(int64(len(groups)))
	if data.BaseDN.IsNull() {
		data.BaseDN = customtypes.DNString(base)
	}
	data.ID = types.StringValue(fmt.Sprintf("%s|groups|%s", base, data.Filter.ValueString()))

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// mapGroups converts group entries to Terraform objects. A value that fails
// to decode is reported against the group's DN.
func mapGroups(ctx context.Context, groups []*ldapclient.Entry[ldapclient.GroupOfNames], diags *diag.Diagnostics) types.List {
	elemType := types.ObjectType{AttrTypes: groupAttrTypes}

	elements := make([]attr.Value, 0, len(groups))
	for _, group := range groups {
		s := group.Schema()

		cn, err := ldapclient.Lookup(group, s.CommonName())
		if err != nil {
			diags.AddError("Malformed Group Entry", fmt.Sprintf("Group %q: %s", group.DN(), err))
			return types.ListNull(elemType)
		}
		members, err := ldapclient.Lookup(group, s.Member())
		if err != nil {
			diags.AddError("Malformed Group Entry", fmt.Sprintf("Group %q: %s", group.DN(), err))
			return types.ListNull(elemType)
		}
		description, err := ldapclient.Lookup(group, s.Description())
		if err != nil {
			diags.AddError("Malformed Group Entry", fmt.Sprintf("Group %q: %s", group.DN(), err))
			return types.ListNull(elemType)
		}

		memberList, d := helpers.DNList(members)
		diags.Append(d...)
		if d.HasError() {
			return types.ListNull(elemType)
		}

		obj, d := types.ObjectValue(groupAttrTypes, map[string]attr.Value{
			"dn":          types.StringValue(group.DN().String()),
			"cn":          types.StringValue(cn),
			"members":     memberList,
			"description": helpers.OptionalString(description),
		})
		diags.Append(d...)
		if d.HasError() {
			return types.ListNull(elemType)
		}
		elements = append(elements, obj)
	}

	list, d := types.ListValue(elemType, elements)
	diags.Append(d...)

	tflog.SubsystemTrace(ctx, Subsystem, "Mapped groups to model", map[string]any{
		"group_count": len(groups),
	})
	return list
}
