package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
	"github.com/isometry/terraform-provider-directory/internal/provider/helpers"
	customtypes "github.com/isometry/terraform-provider-directory/internal/provider/types"
	"github.com/isometry/terraform-provider-directory/internal/provider/validators"
)

var _ datasource.DataSource = &EntryDataSource{}

func NewEntryDataSource() datasource.DataSource {
	return &EntryDataSource{}
}

// EntryDataSource reads a single entry by DN.
type EntryDataSource struct {
	providerData *ldapclient.ProviderData
}

// EntryDataSourceModel describes the data source data model.
type EntryDataSourceModel struct {
	DN          customtypes.DNStringValue `tfsdk:"dn"`
	ObjectClass types.String              `tfsdk:"object_class"`

	ParentDN      customtypes.DNStringValue `tfsdk:"parent_dn"`
	ObjectClasses types.List                `tfsdk:"object_classes"`
	Attributes    types.Map                 `tfsdk:"attributes"`
	ID            types.String              `tfsdk:"id"`
}

func (d *EntryDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_entry"
}

func (d *EntryDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Reads one directory entry by its Distinguished Name. " +
			"The entry is located by searching its parent for the entry's RDN.",

		Attributes: map[string]schema.Attribute{
			"dn": schema.StringAttribute{
				MarkdownDescription: "The DN of the entry to read. Example: `uid=alice,ou=people,dc=example,dc=com`",
				CustomType:          customtypes.DNStringType{},
				Required:            true,
			},
			"object_class": schema.StringAttribute{
				MarkdownDescription: "Only return the entry if it carries this object class (name or OID). Defaults to `*`.",
				Optional:            true,
				Validators: []validator.String{
					validators.IsKnownObjectClass(),
				},
			},
			"parent_dn": schema.StringAttribute{
				MarkdownDescription: "The DN of the entry's parent, i.e. the base that was searched.",
				CustomType:          customtypes.DNStringType{},
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
			"id": schema.StringAttribute{
				MarkdownDescription: "The entry's DN as returned by the server.",
				Computed:            true,
			},
		},
	}
}

func (d *EntryDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.providerData = providerDataFrom(req, resp)
}

func (d *EntryDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data EntryDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	logCompletion := ldapclient.LogDataSourceOperation(ctx, "directory_entry", "read", map[string]any{
		"dn": data.DN.ValueString(),
	})
	defer func() { logCompletion(firstError(resp.Diagnostics)) }()

	parent, err := data.DN.Parent()
	if err != nil {
		resp.Diagnostics.AddAttributeError(path.Root("dn"), "Invalid Distinguished Name", err.Error())
		return
	}

	class := resolveClass(data.ObjectClass.ValueString(), &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	session := readSession(ctx, d.providerData, &resp.Diagnostics)
	if session == nil {
		return
	}
	defer session.CloseQuietly(ctx)

	entry, err := ldapclient.SearchDN(ctx, session, ldapclient.DynamicSchema(class), data.DN.DN())
	if err != nil {
		searchErrorDiagnostic(&resp.Diagnostics, data.DN.ValueString(), err)
		return
	}

	classes, diags := helpers.StringList(ldapclient.ObjectClasses(entry))
	resp.Diagnostics.Append(diags...)
	attrs, diags := helpers.AttributeMap(entry.Attributes())
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.ParentDN = parent
	data.ObjectClasses = classes
	data.Attributes = attrs
	data.ID = types.StringValue(entry.DN().String())

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}
