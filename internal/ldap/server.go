package ldap

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Scheme is the URI scheme used to reach a directory server.
type Scheme string

const (
	SchemeLDAP  Scheme = "ldap"
	SchemeLDAPS Scheme = "ldaps"
	SchemeLDAPI Scheme = "ldapi"
	SchemeCLDAP Scheme = "cldap"
)

// Default ports for the TCP schemes.
const (
	DefaultLDAPPort  = 389
	DefaultLDAPSPort = 636
)

// DefaultPort returns the well-known port for s, or 0 if it has none.
func (s Scheme) DefaultPort() int {
	switch s {
	case SchemeLDAP, SchemeCLDAP:
		return DefaultLDAPPort
	case SchemeLDAPS:
		return DefaultLDAPSPort
	default:
		return 0
	}
}

// Server is a directory endpoint. Any scheme other than the named constants
// is passed through to the dialer unchanged.
type Server struct {
	Scheme Scheme
	Host   string
	Port   int
}

// LDAP returns a plain LDAP endpoint on the default port.
func LDAP(host string) Server {
	return Server{Scheme: SchemeLDAP, Host: host, Port: DefaultLDAPPort}
}

// LDAPS returns an LDAP over TLS endpoint on the default port.
func LDAPS(host string) Server {
	return Server{Scheme: SchemeLDAPS, Host: host, Port: DefaultLDAPSPort}
}

// String renders the endpoint as <scheme>://<host>:<port>. Endpoints
// without a port, such as ldapi sockets, omit it.
func (s Server) String() string {
	if s.Port == 0 {
		return fmt.Sprintf("%s://%s", s.Scheme, s.Host)
	}
	return fmt.Sprintf("%s://%s", s.Scheme, net.JoinHostPort(s.Host, strconv.Itoa(s.Port)))
}

// Validate checks that the endpoint can be dialed.
func (s Server) Validate() error {
	if s.Scheme == "" {
		return fmt.Errorf("server scheme cannot be empty")
	}

	if s.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	if s.Scheme == SchemeLDAPI && s.Port == 0 {
		return nil
	}

	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", s.Port)
	}

	return nil
}

// ParseServer parses scheme://host[:port][/...] into a Server. A missing
// port falls back to the scheme's default.
func ParseServer(url string) (Server, error) {
	if url == "" {
		return Server{}, fmt.Errorf("URL cannot be empty")
	}

	scheme, rest, ok := strings.Cut(url, "://")
	if !ok || scheme == "" {
		return Server{}, fmt.Errorf("missing scheme in URL %q", url)
	}

	// Drop any DN, attribute or filter suffix of an LDAP URL.
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		rest = rest[:i]
	}

	server := Server{Scheme: Scheme(strings.ToLower(scheme))}

	host, portStr, err := net.SplitHostPort(rest)
	if err != nil {
		// No port present
		server.Host = strings.Trim(rest, "[]")
		server.Port = server.Scheme.DefaultPort()
	} else {
		server.Host = host
		server.Port, err = strconv.Atoi(portStr)
		if err != nil {
			return Server{}, fmt.Errorf("invalid port number: %s", portStr)
		}
	}

	return server, server.Validate()
}
