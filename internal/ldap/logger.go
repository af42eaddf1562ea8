package ldap

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Subsystem is the tflog subsystem used by this package.
const Subsystem = "ldap"

// NewLoggingContext registers the ldap subsystem on ctx. Its level follows
// TF_LOG_PROVIDER_DIRECTORY_LDAP.
func NewLoggingContext(ctx context.Context) context.Context {
	return tflog.NewSubsystem(ctx, Subsystem,
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_DIRECTORY_LDAP"))
}

// LogOperation runs fn and logs its start, duration and outcome.
func LogOperation(ctx context.Context, operation string, fields map[string]any, fn func() error) error {
	start := time.Now()

	fields = withFields(fields)
	fields["operation"] = operation

	tflog.SubsystemDebug(ctx, Subsystem, "Starting operation", SanitizeFields(fields))

	err := fn()

	fields["duration_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		LogLDAPError(ctx, operation, err, fields)
	} else {
		tflog.SubsystemDebug(ctx, Subsystem, "Operation completed successfully", SanitizeFields(fields))
	}

	return err
}

// LogLDAPError logs LDAP-specific error information.
func LogLDAPError(ctx context.Context, operation string, err error, fields map[string]any) {
	fields = withFields(fields)
	fields["operation"] = operation
	fields["error"] = err.Error()

	var dirErr *DirectoryError
	if errors.As(err, &dirErr) && dirErr.Code > 0 {
		fields["ldap_result_code"] = dirErr.Code
		fields["error_category"] = string(dirErr.Category())
	}

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		fields["ldap_result_code"] = resultErr.ResultCode
		if resultErr.MatchedDN != "" {
			fields["ldap_matched_dn"] = resultErr.MatchedDN
		}
		if resultErr.Err != nil {
			fields["ldap_diagnostic_message"] = resultErr.Err.Error()
		}
	}

	tflog.SubsystemError(ctx, Subsystem, "LDAP operation failed", SanitizeFields(fields))
}

// LogSessionEvent logs session lifecycle events.
func LogSessionEvent(ctx context.Context, event string, fields map[string]any) {
	fields = SanitizeFields(fields)
	fields["event"] = event

	switch event {
	case "session_opened", "session_bound":
		tflog.SubsystemInfo(ctx, Subsystem, "Session event", fields)
	case "redundant_release", "release_failed":
		tflog.SubsystemWarn(ctx, Subsystem, "Session event", fields)
	case "open_failed", "bind_failed":
		tflog.SubsystemError(ctx, Subsystem, "Session event", fields)
	default:
		tflog.SubsystemDebug(ctx, Subsystem, "Session event", fields)
	}
}

// redacted replaces log field values that could carry credentials.
const redacted = "[REDACTED]"

// secretKeyWords mark a field as secret when its name contains one of them.
var secretKeyWords = []string{"password", "passwd", "secret", "token", "credential"}

// secretAssertions mark a string value as secret when it carries one of these
// attribute assertions, e.g. a filter such as (userPassword=...).
var secretAssertions = []string{"userpassword=", "unicodepwd=", "password=", "passwd=", "secret=", "token="}

// SanitizeFields returns a copy of fields with credential-bearing entries
// replaced by [REDACTED]. Every log helper in this package applies it.
func SanitizeFields(fields map[string]any) map[string]any {
	sanitized := make(map[string]any, len(fields))
	for k, v := range fields {
		if isSecretKey(k) {
			sanitized[k] = redacted
			continue
		}
		if str, ok := v.(string); ok && hasSecretAssertion(str) {
			sanitized[k] = redacted
			continue
		}
		sanitized[k] = v
	}
	return sanitized
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	return slices.ContainsFunc(secretKeyWords, func(word string) bool {
		return strings.Contains(key, word)
	})
}

func hasSecretAssertion(value string) bool {
	value = strings.ToLower(value)
	return slices.ContainsFunc(secretAssertions, func(assertion string) bool {
		return strings.Contains(value, assertion)
	})
}

// LogDataSourceOperation provides standardized entry/exit logging for Terraform data source operations.
func LogDataSourceOperation(ctx context.Context, dataSource, operation string, fields map[string]any) func(error) {
	start := time.Now()

	fields = SanitizeFields(fields)

	entryFields := maps.Clone(fields)
	entryFields["data_source"] = dataSource
	entryFields["operation"] = operation

	tflog.SubsystemDebug(ctx, "provider", "Starting data source operation", entryFields)

	return func(err error) {
		exitFields := maps.Clone(fields)
		exitFields["data_source"] = dataSource
		exitFields["operation"] = operation
		exitFields["duration_ms"] = time.Since(start).Milliseconds()
		exitFields["has_error"] = err != nil

		if err != nil {
			exitFields["error"] = err.Error()
			tflog.SubsystemError(ctx, "provider", "Data source operation failed", exitFields)
		} else {
			tflog.SubsystemDebug(ctx, "provider", "Data source operation completed", exitFields)
		}
	}
}

func withFields(fields map[string]any) map[string]any {
	if fields == nil {
		return make(map[string]any)
	}
	return fields
}
