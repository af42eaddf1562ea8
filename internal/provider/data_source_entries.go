package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
	"github.com/isometry/terraform-provider-directory/internal/provider/helpers"
	customtypes "github.com/isometry/terraform-provider-directory/internal/provider/types"
	"github.com/isometry/terraform-provider-directory/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &EntriesDataSource{}

func NewEntriesDataSource() datasource.DataSource {
	return &EntriesDataSource{}
}

// EntriesDataSource lists the entries of one object class below a base DN.
type EntriesDataSource struct {
	providerData *ldapclient.ProviderData
}

// EntriesDataSourceModel describes the data source data model.
type EntriesDataSourceModel struct {
	ObjectClass types.String              `tfsdk:"object_class"`
	BaseDN      customtypes.DNStringValue `tfsdk:"base_dn"`
	Filter      types.String              `tfsdk:"filter"`

	Entries    types.List   `tfsdk:"entries"`
	EntryCount types.Int64  `tfsdk:"entry_count"`
	ID         types.String `tfsdk:"id"`
}

func (d *EntriesDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_entries"
}

func (d *EntriesDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Lists every entry below a base DN that carries an object class and matches an optional filter. " +
			"Attributes are returned as raw string lists.",

		Attributes: map[string]schema.Attribute{
			"object_class": schema.StringAttribute{
				MarkdownDescription: "Object class name or OID to restrict the search to. Defaults to `*` (every entry).",
				Optional:            true,
				Computed:            true,
				Validators: []validator.String{
					validators.IsKnownObjectClass(),
				},
			},
			"base_dn": schema.StringAttribute{
				MarkdownDescription: "DN to search below. Defaults to the provider's `base_dn`.",
				CustomType:          customtypes.DNStringType{},
				Optional:            true,
				Computed:            true,
			},
			"filter": schema.StringAttribute{
				MarkdownDescription: "Additional LDAP filter, combined with the object class. Example: `(mail=*@example.com)`",
				Optional:            true,
				Validators: []validator.String{
					validators.IsValidFilter(),
				},
			},

			"entry_count": schema.Int64Attribute{
				MarkdownDescription: "The number of entries found.",
				Computed:            true,
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "A computed identifier for this search.",
				Computed:            true,
			},
			"entries": schema.ListNestedAttribute{
				MarkdownDescription: "Matching entries, in server order.",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"dn": schema.StringAttribute{
							MarkdownDescription: "The entry's Distinguished Name.",
							Computed:            true,
						},
						"object_classes": schema.ListAttribute{
							MarkdownDescription: "The entry's objectClass values.",
							ElementType:         types.StringType,
							Computed:            true,
						},
						"attributes": schema.MapAttribute{
							MarkdownDescription: "Every user and operational attribute, keyed by name.",
							ElementType:         types.ListType{ElemType: types.StringType},
							Computed:            true,
						},
					},
				},
			},
		},
	}
}

func (d *EntriesDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.providerData = providerDataFrom(req, resp)
}

func (d *EntriesDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data EntriesDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	logCompletion := ldapclient.LogDataSourceOperation(ctx, "directory_entries", "read", map[string]any{
		"object_class": data.ObjectClass.ValueString(),
		"base_dn":      data.BaseDN.ValueString(),
		"filter":       data.Filter.ValueString(),
	})
	defer func() { logCompletion(firstError(resp.Diagnostics)) }()

	class := resolveClass(data.ObjectClass.ValueString(), &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

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

	entries, err := ldapclient.Search(ctx, session, ldapclient.DynamicSchema(class), base, data.Filter.ValueString())
	if err != nil {
		searchErrorDiagnostic(&resp.Diagnostics, base, err)
		return
	}

	tflog.SubsystemDebug(ctx, Subsystem, "Found directory entries", map[string]any{
		"entry_count": len(entries),
		"class":       class.Name,
	})

	list, diags := helpers.EntryList(ldapclient.Entries(entries))
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.Entries = list
	data.EntryCount = types.Int64Value(int64(len(entries)))
	if data.ObjectClass.IsNull() {
		data.ObjectClass = types.StringValue(class.Name)
	}
	if data.BaseDN.IsNull() {
		data.BaseDN = customtypes.DNString(base)
	}
	data.ID = types.StringValue(fmt.Sprintf("%s|%s|%s", base, class.OID, data.Filter.ValueString()))

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}
