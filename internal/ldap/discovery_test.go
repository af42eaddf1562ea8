package ldap

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver answers SRV queries from a map keyed by _service._proto.name.
type fakeResolver struct {
	records map[string][]*net.SRV
	queries []string
}

func (r *fakeResolver) LookupSRV(_ context.Context, service, proto, name string) (string, []*net.SRV, error) {
	query := "_" + service + "._" + proto + "." + name
	r.queries = append(r.queries, query)
	records, ok := r.records[query]
	if !ok {
		return "", nil, &net.DNSError{Err: "no such host", Name: query, IsNotFound: true}
	}
	return query, records, nil
}

func TestDiscoverServers(t *testing.T) {
	tests := []struct {
		name        string
		records     map[string][]*net.SRV
		domain      string
		want        []string
		wantQueries int
		wantErr     string
	}{
		{
			name:    "empty domain",
			domain:  "",
			wantErr: "domain cannot be empty",
		},
		{
			name:    "URL instead of domain",
			domain:  "ldap://example.com",
			wantErr: "not a URL",
		},
		{
			name:        "nothing advertised",
			domain:      "example.com",
			wantQueries: 2,
			wantErr:     "no LDAP SRV records",
		},
		{
			name:   "ldaps preferred over ldap",
			domain: "example.com",
			records: map[string][]*net.SRV{
				"_ldaps._tcp.example.com": {{Target: "secure.example.com.", Port: 636}},
				"_ldap._tcp.example.com":  {{Target: "plain.example.com.", Port: 389}},
			},
			want:        []string{"ldaps://secure.example.com:636"},
			wantQueries: 1,
		},
		{
			name:   "falls back to ldap",
			domain: "example.com",
			records: map[string][]*net.SRV{
				"_ldap._tcp.example.com": {{Target: "plain.example.com.", Port: 3389}},
			},
			want:        []string{"ldap://plain.example.com:3389"},
			wantQueries: 2,
		},
		{
			name:   "priority then weight",
			domain: "example.com",
			records: map[string][]*net.SRV{
				"_ldap._tcp.example.com": {
					{Target: "backup.example.com.", Port: 389, Priority: 20, Weight: 100},
					{Target: "light.example.com.", Port: 389, Priority: 10, Weight: 10},
					{Target: "heavy.example.com.", Port: 389, Priority: 10, Weight: 90},
				},
			},
			want: []string{
				"ldap://heavy.example.com:389",
				"ldap://light.example.com:389",
				"ldap://backup.example.com:389",
			},
			wantQueries: 2,
		},
		{
			name:   "unavailable target skipped",
			domain: "example.com",
			records: map[string][]*net.SRV{
				"_ldaps._tcp.example.com": {{Target: ".", Port: 0}},
				"_ldap._tcp.example.com":  {{Target: "dc1.example.com", Port: 0}},
			},
			want:        []string{"ldap://dc1.example.com:389"},
			wantQueries: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{records: tt.records}

			candidates, err := DiscoverServers(context.Background(), resolver, tt.domain)
			assert.Len(t, resolver.queries, tt.wantQueries)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			got := make([]string, len(candidates))
			for i, c := range candidates {
				got[i] = c.Server.String()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverServer(t *testing.T) {
	resolver := &fakeResolver{records: map[string][]*net.SRV{
		"_ldaps._tcp.example.com": {
			{Target: "dc2.example.com.", Port: 636, Priority: 5},
			{Target: "dc1.example.com.", Port: 636, Priority: 1},
		},
	}}

	server, err := DiscoverServer(context.Background(), resolver, "example.com")
	require.NoError(t, err)
	assert.Equal(t, LDAPS("dc1.example.com"), server)

	_, err = DiscoverServer(context.Background(), resolver, "example.org")
	assert.Error(t, err)
}

func TestConfig_ResolveServer(t *testing.T) {
	resolver := &fakeResolver{records: map[string][]*net.SRV{
		"_ldap._tcp.example.com": {{Target: "dc1.example.com.", Port: 389}},
	}}

	config := DefaultConfig()
	server, err := config.ResolveServer(context.Background(), resolver)
	require.NoError(t, err)
	assert.Equal(t, LDAP("localhost"), server)
	assert.Empty(t, resolver.queries, "a URL needs no lookup")

	config = &Config{Domain: "example.com"}
	require.NoError(t, config.ApplyDefaults())
	assert.Empty(t, config.URL, "no default URL when a domain is set")
	require.NoError(t, config.Validate())

	server, err = config.ResolveServer(context.Background(), resolver)
	require.NoError(t, err)
	assert.Equal(t, LDAP("dc1.example.com"), server)
}
