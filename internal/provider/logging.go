package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-directory/internal/ldap"
)

// Subsystem is the tflog subsystem used by data sources.
const Subsystem = "provider"

// initializeLogging initializes the provider and ldap subsystems for consistent logging.
// This should be called at the beginning of each data source Read method.
func initializeLogging(ctx context.Context) context.Context {
	// Pattern: TF_LOG_PROVIDER_DIRECTORY_<SUBSYSTEM>
	ctx = tflog.NewSubsystem(ctx, Subsystem,
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_DIRECTORY_PROVIDER"))
	return ldapclient.NewLoggingContext(ctx)
}
