package ldap

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// SRVResolver looks up DNS SRV records. *net.Resolver satisfies it.
type SRVResolver interface {
	LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

// DefaultResolver is used when a configuration names a domain instead of a URL.
var DefaultResolver SRVResolver = net.DefaultResolver

// srvServices are consulted in order. LDAPS records win: when a domain
// advertises any, the plain LDAP records are not looked up.
var srvServices = []struct {
	service string
	scheme  Scheme
}{
	{service: "ldaps", scheme: SchemeLDAPS},
	{service: "ldap", scheme: SchemeLDAP},
}

// Candidate is a server advertised through DNS together with its SRV ranking.
type Candidate struct {
	Server   Server
	Priority int
	Weight   int
}

// DiscoverServers returns the directory servers advertised for domain,
// ordered by ascending priority and then descending weight.
func DiscoverServers(ctx context.Context, resolver SRVResolver, domain string) ([]Candidate, error) {
	if err := validateDomain(domain); err != nil {
		return nil, err
	}

	start := time.Now()
	tflog.SubsystemDebug(ctx, Subsystem, "Starting SRV discovery", map[string]any{
		"domain": domain,
	})

	var candidates []Candidate
	for _, svc := range srvServices {
		found, err := lookupService(ctx, resolver, svc.service, svc.scheme, domain)
		if err != nil {
			tflog.SubsystemDebug(ctx, Subsystem, "SRV lookup failed, continuing to next service", map[string]any{
				"service": svc.service,
				"error":   err.Error(),
			})
			continue
		}
		candidates = append(candidates, found...)
		if len(candidates) > 0 {
			break
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no LDAP SRV records found for domain %q", domain)
	}

	sortCandidates(candidates)

	tflog.SubsystemDebug(ctx, Subsystem, "SRV discovery completed", map[string]any{
		"domain":       domain,
		"server_count": len(candidates),
		"duration_ms":  time.Since(start).Milliseconds(),
	})
	return candidates, nil
}

// DiscoverServer returns the preferred server advertised for domain.
func DiscoverServer(ctx context.Context, resolver SRVResolver, domain string) (Server, error) {
	candidates, err := DiscoverServers(ctx, resolver, domain)
	if err != nil {
		return Server{}, err
	}
	return candidates[0].Server, nil
}

func lookupService(ctx context.Context, resolver SRVResolver, service string, scheme Scheme, domain string) ([]Candidate, error) {
	_, records, err := resolver.LookupSRV(ctx, service, "tcp", domain)
	if err != nil {
		return nil, fmt.Errorf("SRV lookup failed for _%s._tcp.%s: %w", service, domain, err)
	}

	candidates := make([]Candidate, 0, len(records))
	for _, srv := range records {
		host := strings.TrimSuffix(srv.Target, ".")
		// A target of "." means the service is explicitly unavailable.
		if host == "" {
			continue
		}
		server := Server{Scheme: scheme, Host: host, Port: int(srv.Port)}
		if server.Port == 0 {
			server.Port = scheme.DefaultPort()
		}
		if err := server.Validate(); err != nil {
			continue
		}
		candidates = append(candidates, Candidate{
			Server:   server,
			Priority: int(srv.Priority),
			Weight:   int(srv.Weight),
		})
	}
	return candidates, nil
}

// sortCandidates orders by priority, then by weight so that the heaviest
// server of the best priority comes first.
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		return candidates[i].Weight > candidates[j].Weight
	})
}

func validateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	if strings.Contains(domain, "://") {
		return fmt.Errorf("domain %q must be a DNS name, not a URL", domain)
	}
	if strings.ContainsAny(domain, " /:") {
		return fmt.Errorf("invalid domain %q", domain)
	}
	return nil
}
