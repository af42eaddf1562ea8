// dirsearch binds to a directory server, runs one search, and prints the
// matching entries through the typed object class registry.
//
// Settings come from an optional YAML file and are overridden by flags. The
// server is given as a URL or discovered from a DNS domain:
//
//	dirsearch --config dirsearch.yaml --class inetOrgPerson --filter '(cn=A*)'
//	dirsearch --domain example.com --base dc=example,dc=com --class groupOfNames
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/terraform-plugin-log/tfsdklog"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/isometry/terraform-provider-directory/internal/ldap"
)

const (
	formatText = "text"
	formatYAML = "yaml"
)

type options struct {
	configFile  string
	passwordEnv string
	format      string
	verbose     bool
}

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "dirsearch: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	config, opts, err := parseArgs(args, stderr, getenv)
	if err != nil {
		return err
	}

	if opts.verbose {
		ctx = tfsdklog.NewRootProviderLogger(ctx,
			tfsdklog.WithLogName("dirsearch"),
			tfsdklog.WithStderrFromInit(),
			tfsdklog.WithoutLocation(),
		)
	}
	ctx = ldap.NewLoggingContext(ctx)

	dialer, err := ldap.NewDialer(config)
	if err != nil {
		return err
	}

	return search(ctx, dialer, config, opts.format, stdout)
}

// parseArgs builds the search configuration: YAML file first, then flags
// that were set explicitly, then defaults.
func parseArgs(args []string, stderr io.Writer, getenv func(string) string) (*ldap.Config, *options, error) {
	var opts options
	var flags ldap.Config

	flagSet := pflag.NewFlagSet("dirsearch", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.configFile, "config", "c", "", "YAML configuration file")
	flagSet.StringVar(&flags.URL, "url", "", "directory server URL (default ldap://localhost:389)")
	flagSet.StringVar(&flags.Domain, "domain", "", "DNS domain to discover servers from through SRV records")
	flagSet.StringVar(&flags.BindDN, "bind-dn", "", "DN to bind as; anonymous when empty")
	flagSet.StringVar(&opts.passwordEnv, "password-env", "", "environment variable holding the bind password")
	flagSet.StringVarP(&flags.BaseDN, "base", "b", "", "DN to search below")
	flagSet.StringVar(&flags.ObjectClass, "class", "", "object class name or OID (default *)")
	flagSet.StringVarP(&flags.Filter, "filter", "f", "", "additional LDAP filter")
	flagSet.DurationVar(&flags.Timeout, "timeout", 0, "connect and request timeout (default 30s)")
	flagSet.BoolVar(&flags.TLS.StartTLS, "start-tls", false, "upgrade ldap:// connections with StartTLS")
	flagSet.BoolVar(&flags.TLS.SkipVerify, "skip-tls-verify", false, "skip TLS certificate verification")
	flagSet.StringVar(&flags.TLS.CACertFile, "ca-cert-file", "", "PEM CA certificate file")
	flagSet.StringVarP(&opts.format, "format", "o", formatText, "output format: text or yaml")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log directory operations as JSON to stderr")

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}
	if flagSet.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	config := &ldap.Config{}
	if opts.configFile != "" {
		loaded, err := loadConfig(opts.configFile)
		if err != nil {
			return nil, nil, err
		}
		config = loaded
	}

	if flagSet.Changed("url") && flagSet.Changed("domain") {
		return nil, nil, errors.New("--url and --domain are mutually exclusive")
	}

	// Either server flag replaces both server settings from the file.
	overlay := []struct {
		flag  string
		apply func()
	}{
		{"url", func() { config.URL, config.Domain = flags.URL, "" }},
		{"domain", func() { config.Domain, config.URL = flags.Domain, "" }},
		{"bind-dn", func() { config.BindDN = flags.BindDN }},
		{"base", func() { config.BaseDN = flags.BaseDN }},
		{"class", func() { config.ObjectClass = flags.ObjectClass }},
		{"filter", func() { config.Filter = flags.Filter }},
		{"timeout", func() { config.Timeout = flags.Timeout }},
		{"start-tls", func() { config.TLS.StartTLS = flags.TLS.StartTLS }},
		{"skip-tls-verify", func() { config.TLS.SkipVerify = flags.TLS.SkipVerify }},
		{"ca-cert-file", func() { config.TLS.CACertFile = flags.TLS.CACertFile }},
	}
	for _, o := range overlay {
		if flagSet.Changed(o.flag) {
			o.apply()
		}
	}

	if opts.passwordEnv != "" {
		password := getenv(opts.passwordEnv)
		if password == "" {
			return nil, nil, fmt.Errorf("environment variable %s is empty", opts.passwordEnv)
		}
		config.BindPassword = password
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}
	if config.BaseDN == "" {
		return nil, nil, fmt.Errorf("a base DN is required (--base or base_dn)")
	}
	if err := ldap.ValidateFilter(config.Filter); err != nil {
		return nil, nil, err
	}

	switch opts.format {
	case formatText, formatYAML:
	default:
		return nil, nil, fmt.Errorf("unknown output format %q (want %s or %s)", opts.format, formatText, formatYAML)
	}

	return config, &opts, nil
}

// loadConfig reads a YAML configuration file.
func loadConfig(path string) (*ldap.Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ldap.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// search connects with dialer, runs the configured search and writes the
// result to out.
func search(ctx context.Context, dialer ldap.Dialer, config *ldap.Config, format string, out io.Writer) error {
	class, err := config.Class()
	if err != nil {
		return err
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	conn, err := ldap.ConnectWithDialer(ctx, config, dialer)
	if err != nil {
		return err
	}
	defer conn.Session.CloseQuietly(ctx)

	entries, err := ldap.Search(ctx, conn.Session, ldap.DynamicSchema(class), config.BaseDN, config.Filter)
	if err != nil {
		return err
	}

	return render(out, format, ldap.Entries(entries))
}

type yamlEntry struct {
	DN         string              `yaml:"dn"`
	Attributes map[string][]string `yaml:"attributes"`
}

func render(out io.Writer, format string, entries []ldap.AnyEntry) error {
	if format == formatYAML {
		docs := make([]yamlEntry, len(entries))
		for i, entry := range entries {
			attrs := make(map[string][]string)
			for key, raw := range entry.Attributes() {
				attrs[key.String()] = raw.Values()
			}
			docs[i] = yamlEntry{DN: entry.DN().String(), Attributes: attrs}
		}

		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return fmt.Errorf("failed to encode entries: %w", err)
		}
		return enc.Close()
	}

	for i, entry := range entries {
		if i > 0 {
			if _, err := io.WriteString(out, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(out, ldap.Describe(entry)); err != nil {
			return err
		}
	}
	return nil
}
