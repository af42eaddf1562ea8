package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/function"

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
)

var (
	_ function.Function = &NormalizeDNFunction{}
	_ function.Function = &ParentDNFunction{}
)

func NewNormalizeDNFunction() function.Function {
	return &NormalizeDNFunction{}
}

func NewParentDNFunction() function.Function {
	return &ParentDNFunction{}
}

// NormalizeDNFunction implements the normalize_dn function.
type NormalizeDNFunction struct{}

// Metadata returns the function name.
func (f NormalizeDNFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "normalize_dn"
}

// Definition returns the function schema including parameters and return types.
func (f NormalizeDNFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary:     "Normalize the attribute types of a Distinguished Name",
		Description: "Rewrites every attribute type in the DN in upper case and re-escapes values. Values keep their case.",
		MarkdownDescription: "Rewrites every attribute type in the DN in upper case and re-escapes values.\n\n" +
			"`normalize_dn(\"cn=Alice,ou=people,dc=example,dc=com\")` returns `CN=Alice,OU=people,DC=example,DC=com`.",
		Parameters: []function.Parameter{
			function.StringParameter{
				Name:                "dn",
				Description:         "The Distinguished Name to normalize.",
				MarkdownDescription: "The Distinguished Name to normalize.",
			},
		},
		Return: function.StringReturn{},
	}
}

// Run implements the function logic.
func (f NormalizeDNFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var dn string

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &dn))
	if resp.Error != nil {
		return
	}

	if err := ldapclient.ValidateDNSyntax(dn); err != nil {
		resp.Error = function.NewArgumentFuncError(0, err.Error())
		return
	}

	normalized, err := ldapclient.NormalizeDNCase(dn)
	if err != nil {
		resp.Error = function.NewArgumentFuncError(0, err.Error())
		return
	}

	resp.Error = function.ConcatFuncErrors(resp.Error, resp.Result.Set(ctx, normalized))
}

// ParentDNFunction implements the parent_dn function.
type ParentDNFunction struct{}

// Metadata returns the function name.
func (f ParentDNFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "parent_dn"
}

// Definition returns the function schema including parameters and return types.
func (f ParentDNFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary:     "Return the parent of a Distinguished Name",
		Description: "Removes the first RDN from the DN. A DN with a single RDN has no parent and is rejected.",
		MarkdownDescription: "Removes the first RDN from the DN.\n\n" +
			"`parent_dn(\"uid=alice,ou=people,dc=example,dc=com\")` returns `ou=people,dc=example,dc=com`.",
		Parameters: []function.Parameter{
			function.StringParameter{
				Name:                "dn",
				Description:         "The Distinguished Name whose parent to return.",
				MarkdownDescription: "The Distinguished Name whose parent to return.",
			},
		},
		Return: function.StringReturn{},
	}
}

// Run implements the function logic.
func (f ParentDNFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var dn string

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &dn))
	if resp.Error != nil {
		return
	}

	if err := ldapclient.ValidateDNSyntax(dn); err != nil {
		resp.Error = function.NewArgumentFuncError(0, err.Error())
		return
	}

	parent, err := ldapclient.DN(dn).Parent()
	if err != nil {
		resp.Error = function.NewArgumentFuncError(0, err.Error())
		return
	}

	resp.Error = function.ConcatFuncErrors(resp.Error, resp.Result.Set(ctx, parent.String()))
}
