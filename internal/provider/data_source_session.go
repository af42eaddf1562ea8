package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/diag"

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
)

// providerDataFrom extracts the provider data handed to a data source. It
// returns nil when the provider is not configured yet.
func providerDataFrom(req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) *ldapclient.ProviderData {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return nil
	}

	providerData, ok := req.ProviderData.(*ldapclient.ProviderData)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *ldapclient.ProviderData, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return nil
	}

	return providerData
}

// readSession duplicates the primary session for a single Read. The caller
// must close the returned session.
func readSession(ctx context.Context, providerData *ldapclient.ProviderData, diags *diag.Diagnostics) *ldapclient.Session {
	if providerData == nil {
		diags.AddError(
			"Unconfigured Provider",
			"The directory provider has not been configured. Data sources cannot be read before the provider is configured.",
		)
		return nil
	}

	session, err := providerData.Duplicate(ctx)
	if err != nil {
		diags.AddError(
			"Directory Session Unavailable",
			"Could not obtain a directory session for this read: "+err.Error(),
		)
		return nil
	}
	return session
}

// resolveClass maps an object_class value to a registered class. An empty
// value selects every class.
func resolveClass(value string, diags *diag.Diagnostics) *ldapclient.ObjectClass {
	if value == "" {
		return ldapclient.AnyClass
	}
	class, ok := ldapclient.LookupClass(value)
	if !ok {
		diags.AddError("Unknown Object Class", fmt.Sprintf("The object class %q is not registered.", value))
		return nil
	}
	return class
}

// searchErrorDiagnostic reports a failed search with a summary matching its category.
func searchErrorDiagnostic(diags *diag.Diagnostics, base string, err error) {
	switch {
	case errors.Is(err, ldapclient.ErrNotFound), ldapclient.IsNotFoundError(err):
		diags.AddError("Entry Not Found", fmt.Sprintf("No directory entry was found under %q: %s", base, err.Error()))
	case ldapclient.IsPermissionError(err):
		diags.AddError("Insufficient Access", fmt.Sprintf("The bind identity may not search %q: %s", base, err.Error()))
	default:
		diags.AddError("Error Searching Directory", fmt.Sprintf("Could not search %q: %s", base, err.Error()))
	}
}

// firstError returns the first error diagnostic as an error, for logging.
func firstError(diags diag.Diagnostics) error {
	for _, d := range diags.Errors() {
		return fmt.Errorf("%s: %s", d.Summary(), d.Detail())
	}
	return nil
}
