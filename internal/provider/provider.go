package provider

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/providervalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/ephemeral"
	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
	"github.com/isometry/terraform-provider-directory/internal/provider/validators"
)

// Ensure DirectoryProvider satisfies various provider interfaces.
var _ provider.Provider = &DirectoryProvider{}
var _ provider.ProviderWithFunctions = &DirectoryProvider{}
var _ provider.ProviderWithEphemeralResources = &DirectoryProvider{}
var _ provider.ProviderWithConfigValidators = &DirectoryProvider{}

// DirectoryProvider defines the provider implementation.
type DirectoryProvider struct {
	// Version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	Version string

	// dialer overrides the network dialer. Tests use it to run against an
	// in-memory directory.
	dialer ldapclient.Dialer
}

// DirectoryProviderModel describes the provider data model.
type DirectoryProviderModel struct {
	// Connection settings
	URL    types.String `tfsdk:"url"`
	Domain types.String `tfsdk:"domain"`
	BaseDN types.String `tfsdk:"base_dn"`

	// Authentication settings
	BindDN       types.String `tfsdk:"bind_dn"`
	BindPassword types.String `tfsdk:"bind_password"`

	// TLS settings
	StartTLS      types.Bool   `tfsdk:"start_tls"`
	SkipTLSVerify types.Bool   `tfsdk:"skip_tls_verify"`
	TLSCACertFile types.String `tfsdk:"tls_ca_cert_file"`
	TLSCACert     types.String `tfsdk:"tls_ca_cert"`

	ConnectTimeout types.Int64 `tfsdk:"connect_timeout"`
}

func (p *DirectoryProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "directory"
	resp.Version = p.Version
}

func (p *DirectoryProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "The directory provider reads entries from any LDAP directory server. " +
			"Entries are decoded through typed object class schemas such as `inetOrgPerson` and `groupOfNames`.",
		Attributes: map[string]schema.Attribute{
			"url": schema.StringAttribute{
				MarkdownDescription: "Directory server URL (e.g., `ldaps://ldap.example.com:636`). Defaults to `ldap://localhost:389` unless `domain` is set. " +
					"Can be set via the `DIRECTORY_URL` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"domain": schema.StringAttribute{
				MarkdownDescription: "DNS domain whose `_ldaps._tcp` or `_ldap._tcp` SRV records name the directory servers. " +
					"Conflicts with `url`. Can be set via the `DIRECTORY_DOMAIN` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"base_dn": schema.StringAttribute{
				MarkdownDescription: "Default base DN for searches that do not name one (e.g., `dc=example,dc=com`). " +
					"Can be set via the `DIRECTORY_BASE_DN` environment variable.",
				Optional: true,
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},

			// Authentication settings
			"bind_dn": schema.StringAttribute{
				MarkdownDescription: "DN to bind as. Leave unset for an anonymous bind. " +
					"Can be set via the `DIRECTORY_BIND_DN` environment variable.",
				Optional: true,
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},
			"bind_password": schema.StringAttribute{
				MarkdownDescription: "Password for the simple bind. " +
					"Can be set via the `DIRECTORY_BIND_PASSWORD` environment variable.",
				Optional:  true,
				Sensitive: true,
			},

			// TLS settings
			"start_tls": schema.BoolAttribute{
				MarkdownDescription: "Upgrade `ldap://` connections with StartTLS. Defaults to `false`. " +
					"Can be set via the `DIRECTORY_START_TLS` environment variable.",
				Optional: true,
			},
			"skip_tls_verify": schema.BoolAttribute{
				MarkdownDescription: "Skip TLS certificate verification. Not recommended for production. Defaults to `false`. " +
					"Can be set via the `DIRECTORY_SKIP_TLS_VERIFY` environment variable.",
				Optional: true,
			},
			"tls_ca_cert_file": schema.StringAttribute{
				MarkdownDescription: "Path to a PEM CA certificate file for TLS verification. " +
					"Can be set via the `DIRECTORY_TLS_CA_CERT_FILE` environment variable.",
				Optional: true,
			},
			"tls_ca_cert": schema.StringAttribute{
				MarkdownDescription: "PEM CA certificate content for TLS verification. " +
					"Can be set via the `DIRECTORY_TLS_CA_CERT` environment variable.",
				Optional:  true,
				Sensitive: true,
			},

			"connect_timeout": schema.Int64Attribute{
				MarkdownDescription: "Connection and request timeout in seconds. Defaults to `30`. " +
					"Can be set via the `DIRECTORY_CONNECT_TIMEOUT` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(1),
				},
			},
		},
	}
}

// ConfigValidators implements provider.ProviderWithConfigValidators.
func (p *DirectoryProvider) ConfigValidators(ctx context.Context) []provider.ConfigValidator {
	return []provider.ConfigValidator{
		providervalidator.Conflicting(
			path.MatchRoot("url"),
			path.MatchRoot("domain"),
		),
		// TLS cert file and cert content are mutually exclusive
		providervalidator.Conflicting(
			path.MatchRoot("tls_ca_cert_file"),
			path.MatchRoot("tls_ca_cert"),
		),
	}
}

func (p *DirectoryProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data DirectoryProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	ctx = p.configureLogging(ctx)

	tflog.Info(ctx, "Configuring directory provider", map[string]any{
		"version": p.Version,
	})

	config := p.buildConfig(&data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	if err := config.Validate(); err != nil {
		resp.Diagnostics.AddError(
			"Invalid Provider Configuration",
			"The directory provider configuration is not valid.\n\n"+
				"Configuration Error: "+err.Error(),
		)
		return
	}

	start := time.Now()
	providerData, err := p.connect(ctx, config)
	if err != nil {
		tflog.Error(ctx, "Failed to connect to directory", map[string]any{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})

		if ldapclient.IsAuthenticationError(err) {
			resp.Diagnostics.AddError(
				"Authentication Failed",
				"The provider could not bind to the directory. "+
					"Please verify bind_dn and bind_password.\n\n"+
					"Authentication Error: "+err.Error(),
			)
			return
		}

		resp.Diagnostics.AddError(
			"Unable to Connect to Directory",
			"The provider could not establish a connection to the directory server. "+
				"Please verify your configuration settings.\n\n"+
				"Connection Error: "+err.Error(),
		)
		return
	}

	tflog.Info(ctx, "Directory provider configured successfully", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	})

	resp.DataSourceData = providerData
	resp.ResourceData = providerData
}

func (p *DirectoryProvider) connect(ctx context.Context, config *ldapclient.Config) (*ldapclient.ProviderData, error) {
	if p.dialer == nil {
		return ldapclient.Connect(ctx, config)
	}
	return ldapclient.ConnectWithDialer(ctx, config, p.dialer)
}

// configureLogging sets up the persistent log fields and the ldap subsystem.
func (p *DirectoryProvider) configureLogging(ctx context.Context) context.Context {
	ctx = tflog.SetField(ctx, "provider", "directory")
	ctx = tflog.SetField(ctx, "provider_version", p.Version)
	ctx = tflog.MaskFieldValuesWithFieldKeys(ctx, "bind_password")

	ctx = ldapclient.NewLoggingContext(ctx)

	tflog.Debug(ctx, "Directory provider logging configured")

	return ctx
}

// buildConfig constructs the client configuration from provider config and environment variables.
func (p *DirectoryProvider) buildConfig(data *DirectoryProviderModel, diags *diag.Diagnostics) *ldapclient.Config {
	config := &ldapclient.Config{}

	config.URL = p.getStringValue(data.URL, "DIRECTORY_URL")
	config.Domain = p.getStringValue(data.Domain, "DIRECTORY_DOMAIN")

	config.BaseDN = p.getStringValue(data.BaseDN, "DIRECTORY_BASE_DN")
	config.BindDN = p.getStringValue(data.BindDN, "DIRECTORY_BIND_DN")
	config.BindPassword = p.getStringValue(data.BindPassword, "DIRECTORY_BIND_PASSWORD")

	if config.BindPassword != "" && config.BindDN == "" {
		diags.AddError(
			"Missing Bind DN",
			"A bind_password was given without a bind_dn. "+
				"Provide 'bind_dn' or set the DIRECTORY_BIND_DN environment variable, "+
				"or remove the password to bind anonymously.",
		)
		return config
	}

	config.TLS.StartTLS = p.getBoolValue(data.StartTLS, "DIRECTORY_START_TLS", false)
	config.TLS.SkipVerify = p.getBoolValue(data.SkipTLSVerify, "DIRECTORY_SKIP_TLS_VERIFY", false)
	config.TLS.CACertFile = p.getStringValue(data.TLSCACertFile, "DIRECTORY_TLS_CA_CERT_FILE")
	config.TLS.CACert = p.getStringValue(data.TLSCACert, "DIRECTORY_TLS_CA_CERT")

	if connectTimeout := p.getInt64Value(data.ConnectTimeout, "DIRECTORY_CONNECT_TIMEOUT", 30); connectTimeout > 0 {
		config.Timeout = time.Duration(connectTimeout) * time.Second
	}

	if err := config.ApplyDefaults(); err != nil {
		diags.AddError("Invalid Provider Configuration", err.Error())
	}

	return config
}

// Helper functions for configuration value resolution

func (p *DirectoryProvider) getStringValue(configValue types.String, envVar string) string {
	if !configValue.IsNull() && configValue.ValueString() != "" {
		return configValue.ValueString()
	}
	return os.Getenv(envVar)
}

func (p *DirectoryProvider) getBoolValue(configValue types.Bool, envVar string, defaultValue bool) bool {
	if !configValue.IsNull() {
		return configValue.ValueBool()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseBool(envValue); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *DirectoryProvider) getInt64Value(configValue types.Int64, envVar string, defaultValue int64) int64 {
	if !configValue.IsNull() {
		return configValue.ValueInt64()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseInt(envValue, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *DirectoryProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		// The provider is read-only.
	}
}

func (p *DirectoryProvider) EphemeralResources(ctx context.Context) []func() ephemeral.EphemeralResource {
	return []func() ephemeral.EphemeralResource{
		// No ephemeral resources defined yet
	}
}

func (p *DirectoryProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewEntriesDataSource,
		NewEntryDataSource,
		NewGroupsDataSource,
		NewInetOrgPersonsDataSource,
		NewWhoAmIDataSource,
	}
}

func (p *DirectoryProvider) Functions(ctx context.Context) []func() function.Function {
	return []func() function.Function{
		NewNormalizeDNFunction,
		NewParentDNFunction,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &DirectoryProvider{
			Version: version,
		}
	}
}
