package ldap

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// ProviderData carries the bound primary session and its configuration to
// Terraform data sources.
type ProviderData struct {
	Session *Session
	Config  *Config
}

// Connect opens and binds a primary session as described by config.
func Connect(ctx context.Context, config *Config) (*ProviderData, error) {
	dialer, err := NewDialer(config)
	if err != nil {
		return nil, err
	}
	return ConnectWithDialer(ctx, config, dialer)
}

// ConnectWithDialer is Connect with the native client supplied by the caller.
func ConnectWithDialer(ctx context.Context, config *Config, dialer Dialer) (*ProviderData, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	server, err := config.ResolveServer(ctx, DefaultResolver)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	session, err := Open(ctx, dialer, server)
	if err != nil {
		return nil, err
	}

	if err := session.Bind(ctx, config.BindDN, config.BindPassword); err != nil {
		session.CloseQuietly(ctx)
		return nil, err
	}

	tflog.Debug(ctx, "Directory connection established", map[string]any{
		"server":      server.String(),
		"bind_dn":     config.BindDN,
		"anonymous":   config.BindDN == "",
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &ProviderData{Session: session, Config: config}, nil
}

// Duplicate returns a session sharing the primary's fate for use by one
// operation. The caller must close it.
func (pd *ProviderData) Duplicate(ctx context.Context) (*Session, error) {
	if pd.Session == nil {
		return nil, fmt.Errorf("directory session is not initialized")
	}
	return pd.Session.Duplicate(ctx)
}

// ResolveBaseDN returns base, or the configured base DN when base is empty.
func (pd *ProviderData) ResolveBaseDN(base string) (string, error) {
	if base != "" {
		return base, nil
	}
	if pd.Config != nil && pd.Config.BaseDN != "" {
		return pd.Config.BaseDN, nil
	}
	return "", fmt.Errorf("no base DN given and no default base_dn configured")
}

// IsConnected reports whether the primary session is still usable.
func (pd *ProviderData) IsConnected() bool {
	return pd.Session != nil && pd.Session.IsUsable()
}

// Close unbinds the primary session, invalidating every duplicate.
func (pd *ProviderData) Close(ctx context.Context) error {
	if pd.Session == nil {
		return nil
	}
	if err := pd.Session.Unbind(ctx); err != nil {
		return fmt.Errorf("failed to close directory session: %w", err)
	}
	return nil
}
