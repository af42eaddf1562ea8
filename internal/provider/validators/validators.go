// Package validators holds the attribute validators shared by the directory
// data sources.
package validators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
)

// stringCheck is a validator.String that reports the error of check under
// summary. Null and unknown values are skipped.
type stringCheck struct {
	description string
	markdown    string
	summary     string
	check       func(value string) error
}

var _ validator.String = stringCheck{}

func (v stringCheck) Description(_ context.Context) string {
	return v.description
}

func (v stringCheck) MarkdownDescription(_ context.Context) string {
	if v.markdown != "" {
		return v.markdown
	}
	return v.description
}

func (v stringCheck) ValidateString(ctx context.Context, request validator.StringRequest, response *validator.StringResponse) {
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	if err := v.check(request.ConfigValue.ValueString()); err != nil {
		response.Diagnostics.AddAttributeError(request.Path, v.summary, err.Error())
	}
}

// IsValidDN returns a validator which ensures that any configured
// attribute value is a valid Distinguished Name (DN).
func IsValidDN() validator.String {
	return stringCheck{
		description: "value must be a valid Distinguished Name (DN)",
		summary:     "Invalid Distinguished Name",
		check: func(value string) error {
			if err := ldapclient.ValidateDNSyntax(value); err != nil {
				return fmt.Errorf("The value %q is not a valid Distinguished Name format: %w", value, err)
			}
			return nil
		},
	}
}

// IsValidFilter returns a validator which ensures that any configured
// attribute value compiles as an LDAP search filter. An empty filter is
// rejected: omit the attribute instead.
func IsValidFilter() validator.String {
	return stringCheck{
		description: "value must be a valid LDAP search filter, e.g. (cn=Alice)",
		markdown:    "value must be a valid LDAP search filter, e.g. `(cn=Alice)`",
		summary:     "Invalid Search Filter",
		check: func(value string) error {
			if value == "" {
				return errors.New("The filter cannot be empty. Omit the attribute to match every entry.")
			}
			if err := ldapclient.ValidateFilter(value); err != nil {
				return fmt.Errorf("The value %q is not a valid LDAP search filter: %w", value, err)
			}
			return nil
		},
	}
}

// IsKnownObjectClass returns a validator which ensures that any configured
// attribute value names a registered object class by name (any case) or OID.
func IsKnownObjectClass() validator.String {
	return stringCheck{
		description: fmt.Sprintf("value must name a known object class by name (case-insensitive) or OID: %s", knownClasses()),
		summary:     "Unknown Object Class",
		check: func(value string) error {
			if _, ok := ldapclient.LookupClass(strings.TrimSpace(value)); ok {
				return nil
			}
			return fmt.Errorf("The value %q is not a known object class. Must be one of: %s (case-insensitive)", value, knownClasses())
		},
	}
}

func knownClasses() string {
	var names []string
	for _, class := range ldapclient.Classes() {
		names = append(names, class.Name)
	}
	return strings.Join(names, ", ")
}
