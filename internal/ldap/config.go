package ldap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
)

// Config holds the settings for one session and one search.
type Config struct {
	URL          string        `yaml:"url"`
	Domain       string        `yaml:"domain"`
	BindDN       string        `yaml:"bind_dn"`
	BindPassword string        `yaml:"bind_password"`
	BaseDN       string        `yaml:"base_dn"`
	ObjectClass  string        `yaml:"object_class" default:"*"`
	Filter       string        `yaml:"filter"`
	Timeout      time.Duration `yaml:"timeout" default:"30s"`
	TLS          TLSConfig     `yaml:"tls"`
}

// TLSConfig holds transport security settings.
type TLSConfig struct {
	StartTLS      bool   `yaml:"start_tls"`
	SkipVerify    bool   `yaml:"skip_verify"`
	CACertFile    string `yaml:"ca_cert_file"`
	CACert        string `yaml:"ca_cert"`
	ServerName    string `yaml:"server_name"`
	MinTLSVersion string `yaml:"min_version" default:"1.2"`
}

// DefaultURL is used when neither a URL nor a domain is configured.
const DefaultURL = "ldap://localhost:389"

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	config := &Config{}
	if err := config.ApplyDefaults(); err != nil {
		// Only reachable if a default tag above is malformed.
		panic(fmt.Sprintf("ldap: invalid config defaults: %v", err))
	}
	return config
}

// ApplyDefaults fills every zero field that has a default.
func (c *Config) ApplyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("failed to apply config defaults: %w", err)
	}
	if c.URL == "" && c.Domain == "" {
		c.URL = DefaultURL
	}
	return nil
}

// Validate checks that the configuration can be used to open a session.
func (c *Config) Validate() error {
	if c.Domain != "" {
		if c.URL != "" {
			return fmt.Errorf("url and domain are mutually exclusive")
		}
		if err := validateDomain(c.Domain); err != nil {
			return err
		}
	} else if _, err := c.Server(); err != nil {
		return err
	}

	if c.BindDN != "" {
		if err := ValidateDNSyntax(c.BindDN); err != nil {
			return fmt.Errorf("bind DN: %w", err)
		}
	}

	if c.BaseDN != "" {
		if err := ValidateDNSyntax(c.BaseDN); err != nil {
			return fmt.Errorf("base DN: %w", err)
		}
	}

	if c.ObjectClass != "" {
		if _, ok := LookupClass(c.ObjectClass); !ok {
			return fmt.Errorf("unknown object class %q", c.ObjectClass)
		}
	}

	if c.TLS.CACertFile != "" && c.TLS.CACert != "" {
		return fmt.Errorf("ca_cert_file and ca_cert are mutually exclusive")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative: %s", c.Timeout)
	}

	return nil
}

// Server parses the configured URL.
func (c *Config) Server() (Server, error) {
	server, err := ParseServer(c.URL)
	if err != nil {
		return Server{}, fmt.Errorf("invalid directory URL: %w", err)
	}
	return server, nil
}

// ResolveServer returns the configured server, discovering it through DNS
// SRV records when a domain is configured.
func (c *Config) ResolveServer(ctx context.Context, resolver SRVResolver) (Server, error) {
	if c.Domain == "" {
		return c.Server()
	}
	if resolver == nil {
		resolver = DefaultResolver
	}
	return DiscoverServer(ctx, resolver, c.Domain)
}

// Class resolves the configured object class, defaulting to AnyClass.
func (c *Config) Class() (*ObjectClass, error) {
	if c.ObjectClass == "" {
		return AnyClass, nil
	}
	class, ok := LookupClass(c.ObjectClass)
	if !ok {
		return nil, fmt.Errorf("unknown object class %q", c.ObjectClass)
	}
	return class, nil
}

// ClientTLSConfig builds the tls.Config used for ldaps and StartTLS.
func (c *TLSConfig) ClientTLSConfig() (*tls.Config, error) {
	minVersion, err := parseTLSVersion(c.MinTLSVersion)
	if err != nil {
		return nil, err
	}

	config := &tls.Config{
		MinVersion:         minVersion,
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in for test directories
	}

	pem := []byte(c.CACert)
	if c.CACertFile != "" {
		pem, err = os.ReadFile(c.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file: %w", err)
		}
	}

	if len(pem) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no valid certificates found in CA certificate")
		}
		config.RootCAs = pool
	}

	return config, nil
}

func parseTLSVersion(v string) (uint16, error) {
	switch v {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported minimum TLS version %q", v)
	}
}
