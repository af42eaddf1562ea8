package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &WhoAmIDataSource{}

func NewWhoAmIDataSource() datasource.DataSource {
	return &WhoAmIDataSource{}
}

// WhoAmIDataSource reports the identity the provider is bound as.
type WhoAmIDataSource struct {
	providerData *ldapclient.ProviderData
}

// WhoAmIDataSourceModel describes the data source data model.
type WhoAmIDataSourceModel struct {
	ID      types.String `tfsdk:"id"`
	AuthzID types.String `tfsdk:"authz_id"`
	DN      types.String `tfsdk:"dn"`
	UserID  types.String `tfsdk:"user_id"`
	Format  types.String `tfsdk:"format"`
	Server  types.String `tfsdk:"server"`
}

func (d *WhoAmIDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_whoami"
}

func (d *WhoAmIDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Retrieves the authenticated identity using the LDAP \"Who Am I?\" extended operation (RFC 4532). " +
			"This data source requires no configuration.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Same as `authz_id`, or `anonymous` for an anonymous bind.",
				Computed:            true,
			},
			"authz_id": schema.StringAttribute{
				MarkdownDescription: "The raw authorization identity returned by the server, such as `dn:cn=admin,dc=example,dc=com` or `u:alice`.",
				Computed:            true,
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "The bound DN, populated when the identity is in the `dn:` form.",
				Computed:            true,
			},
			"user_id": schema.StringAttribute{
				MarkdownDescription: "The user ID, populated when the identity is in the `u:` form.",
				Computed:            true,
			},
			"format": schema.StringAttribute{
				MarkdownDescription: "The form of the identity: `dn`, `u`, `empty` (anonymous) or `unknown`.",
				Computed:            true,
			},
			"server": schema.StringAttribute{
				MarkdownDescription: "The directory server the provider is connected to.",
				Computed:            true,
			},
		},
	}
}

func (d *WhoAmIDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.providerData = providerDataFrom(req, resp)
}

func (d *WhoAmIDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data WhoAmIDataSourceModel

	ctx = initializeLogging(ctx)

	logCompletion := ldapclient.LogDataSourceOperation(ctx, "directory_whoami", "read", nil)
	defer func() { logCompletion(firstError(resp.Diagnostics)) }()

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	session := readSession(ctx, d.providerData, &resp.Diagnostics)
	if session == nil {
		return
	}
	defer session.CloseQuietly(ctx)

	id, err := session.WhoAmI(ctx)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Performing WhoAmI Operation",
			fmt.Sprintf("Could not perform LDAP Who Am I? operation: %s", err.Error()),
		)
		return
	}

	tflog.Debug(ctx, "Successfully performed WhoAmI operation", map[string]any{
		"authz_id": id.Raw,
		"format":   string(id.Format),
	})

	mapAuthzID(id, &data)
	data.Server = types.StringValue(session.Server().String())

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// mapAuthzID copies an authorization identity into the model.
func mapAuthzID(id ldapclient.AuthzID, data *WhoAmIDataSourceModel) {
	data.ID = types.StringValue(id.Raw)
	if id.Format == ldapclient.AuthzEmpty {
		data.ID = types.StringValue("anonymous")
	}

	data.AuthzID = types.StringValue(id.Raw)
	data.Format = types.StringValue(string(id.Format))

	data.DN = types.StringNull()
	if dn := id.DN(); dn != "" {
		data.DN = types.StringValue(dn.String())
	}

	data.UserID = types.StringNull()
	if id.Format == ldapclient.AuthzUser {
		data.UserID = types.StringValue(id.Value)
	}
}
