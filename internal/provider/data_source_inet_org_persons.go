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

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
	"github.com/isometry/terraform-provider-directory/internal/provider/helpers"
	customtypes "github.com/isometry/terraform-provider-directory/internal/provider/types"
	"github.com/isometry/terraform-provider-directory/internal/provider/validators"
)

var _ datasource.DataSource = &InetOrgPersonsDataSource{}

func NewInetOrgPersonsDataSource() datasource.DataSource {
	return &InetOrgPersonsDataSource{}
}

// InetOrgPersonsDataSource lists inetOrgPerson entries as typed people.
type InetOrgPersonsDataSource struct {
	providerData *ldapclient.ProviderData
}

// InetOrgPersonsDataSourceModel describes the data source data model.
type InetOrgPersonsDataSourceModel struct {
	BaseDN customtypes.DNStringValue `tfsdk:"base_dn"`
	Filter types.String              `tfsdk:"filter"`

	People      types.List   `tfsdk:"people"`
	PersonCount types.Int64  `tfsdk:"person_count"`
	ID          types.String `tfsdk:"id"`
}

var personAttrTypes = map[string]attr.Type{
	"dn":           types.StringType,
	"cn":           types.StringType,
	"sn":           types.StringType,
	"uid":          types.StringType,
	"mail":         types.StringType,
	"display_name": types.StringType,
	"given_name":   types.StringType,
	"title":        types.StringType,
	"entry_uuid":   types.StringType,
}

func (d *InetOrgPersonsDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_inet_org_persons"
}

func (d *InetOrgPersonsDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	personAttr := func(desc string) schema.StringAttribute {
		return schema.StringAttribute{MarkdownDescription: desc, Computed: true}
	}

	resp.Schema = schema.Schema{
		MarkdownDescription: "Lists `inetOrgPerson` entries below a base DN with their common attributes decoded.",

		Attributes: map[string]schema.Attribute{
			"base_dn": schema.StringAttribute{
				MarkdownDescription: "DN to search below. Defaults to the provider's `base_dn`.",
				CustomType:          customtypes.DNStringType{},
				Optional:            true,
				Computed:            true,
			},
			"filter": schema.StringAttribute{
				MarkdownDescription: "Additional LDAP filter. Example: `(mail=*@example.com)`",
				Optional:            true,
				Validators: []validator.String{
					validators.IsValidFilter(),
				},
			},

			"person_count": schema.Int64Attribute{
				MarkdownDescription: "The number of people found.",
				Computed:            true,
			},
			"id": schema.StringAttribute{
				MarkdownDescription: "A computed identifier for this search.",
				Computed:            true,
			},
			"people": schema.ListNestedAttribute{
				MarkdownDescription: "Matching people, in server order. Unset optional attributes are null.",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"dn":           personAttr("The person's Distinguished Name."),
						"cn":           personAttr("Common name."),
						"sn":           personAttr("Surname."),
						"uid":          personAttr("User ID."),
						"mail":         personAttr("Email address."),
						"display_name": personAttr("Display name."),
						"given_name":   personAttr("Given name."),
						"title":        personAttr("Job title."),
						"entry_uuid":   personAttr("The server-assigned entryUUID."),
					},
				},
			},
		},
	}
}

func (d *InetOrgPersonsDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.providerData = providerDataFrom(req, resp)
}

func (d *InetOrgPersonsDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data InetOrgPersonsDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	logCompletion := ldapclient.LogDataSourceOperation(ctx, "directory_inet_org_persons", "read", map[string]any{
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

	people, err := ldapclient.Search(ctx, session, ldapclient.InetOrgPerson{}, base, data.Filter.ValueString())
	if err != nil {
		searchErrorDiagnostic(&resp.Diagnostics, base, err)
		return
	}

	elemType := types.ObjectType{AttrTypes: personAttrTypes}
	elements := make([]attr.Value, 0, len(people))
	for _, person := range people {
		obj := personObject(person, &resp.Diagnostics)
		if resp.Diagnostics.HasError() {
			return
		}
		elements = append(elements, obj)
	}

	list, diags := types.ListValue(elemType, elements)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.People = list
	data.PersonCount = types.Int64Value(int64(len(people)))
	if data.BaseDN.IsNull() {
		data.BaseDN = customtypes.DNString(base)
	}
	data.ID = types.StringValue(fmt.Sprintf("%s|people|%s", base, data.Filter.ValueString()))

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// personDecoder collects the first decode failure so that each attribute
// can be read in one line.
type personDecoder struct {
	entry *ldapclient.Entry[ldapclient.InetOrgPerson]
	err   error
}

func (p *personDecoder) optional(attr ldapclient.Attribute[*string]) types.String {
	v, err := ldapclient.Lookup(p.entry, attr)
	if err != nil && p.err == nil {
		p.err = err
	}
	return helpers.OptionalString(v)
}

func (p *personDecoder) required(attr ldapclient.Attribute[string]) types.String {
	v, err := ldapclient.Lookup(p.entry, attr)
	if err != nil {
		if p.err == nil {
			p.err = err
		}
		return types.StringNull()
	}
	return types.StringValue(v)
}

// personObject decodes one inetOrgPerson. The common name is read through a
// person view of the same entry, which shares its storage.
func personObject(entry *ldapclient.Entry[ldapclient.InetOrgPerson], diags *diag.Diagnostics) types.Object {
	s := entry.Schema()
	dec := &personDecoder{entry: entry}

	cn := types.StringNull()
	if person, ok := ldapclient.Cast(entry, ldapclient.Person{}); ok {
		v, err := ldapclient.Lookup(person, person.Schema().CommonName())
		if err != nil {
			dec.err = err
		} else {
			cn = types.StringValue(v)
		}
	}

	entryUUID := types.StringNull()
	if id, err := ldapclient.Lookup(entry, s.EntryUUID()); err != nil {
		if dec.err == nil {
			dec.err = err
		}
	} else if id != nil {
		entryUUID = types.StringValue(id.String())
	}

	values := map[string]attr.Value{
		"dn":           types.StringValue(entry.DN().String()),
		"cn":           cn,
		"sn":           dec.required(s.Surname()),
		"uid":          dec.optional(s.UID()),
		"mail":         dec.optional(s.Mail()),
		"display_name": dec.optional(s.DisplayName()),
		"given_name":   dec.optional(s.GivenName()),
		"title":        dec.optional(s.Title()),
		"entry_uuid":   entryUUID,
	}

	if dec.err != nil {
		diags.AddError("Malformed Person Entry", fmt.Sprintf("Entry %q: %s", entry.DN(), dec.err))
		return types.ObjectNull(personAttrTypes)
	}

	obj, d := types.ObjectValue(personAttrTypes, values)
	diags.Append(d...)
	return obj
}
