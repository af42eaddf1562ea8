package ldap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// searchBufferSize is the number of results go-ldap may queue ahead of the cursor.
const searchBufferSize = 64

// NetDialer opens handles with go-ldap.
type NetDialer struct {
	tlsConfig *tls.Config
	startTLS  bool
	timeout   time.Duration
}

// NewDialer returns a Dialer configured from config's TLS and timeout settings.
func NewDialer(config *Config) (*NetDialer, error) {
	tlsConfig, err := config.TLS.ClientTLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build TLS configuration: %w", err)
	}

	return &NetDialer{
		tlsConfig: tlsConfig,
		startTLS:  config.TLS.StartTLS,
		timeout:   config.Timeout,
	}, nil
}

func (d *NetDialer) Open(ctx context.Context, uri string) (Handle, error) {
	return d.dial(ctx, uri)
}

func (d *NetDialer) dial(ctx context.Context, uri string) (*netHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []ldap.DialOpt{ldap.DialWithTLSConfig(d.tlsConfig)}
	if d.timeout > 0 {
		opts = append(opts, ldap.DialWithDialer(&net.Dialer{Timeout: d.timeout}))
	}

	conn, err := ldap.DialURL(uri, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", uri, err)
	}

	if d.startTLS && strings.HasPrefix(uri, string(SchemeLDAP)+"://") {
		if err := conn.StartTLS(d.tlsConfig); err != nil {
			conn.Close()
			return nil, fmt.Errorf("StartTLS failed for %s: %w", uri, err)
		}
	}

	if d.timeout > 0 {
		conn.SetTimeout(d.timeout)
	}

	return &netHandle{dialer: d, uri: uri, conn: conn}, nil
}

// netHandle wraps one go-ldap connection. go-ldap has no way to share a
// socket, so duplicating dials again and replays the last successful bind.
type netHandle struct {
	dialer *NetDialer
	uri    string
	conn   *ldap.Conn

	bound    bool
	bindDN   string
	password string
}

func (h *netHandle) Duplicate(ctx context.Context) (Handle, error) {
	dup, err := h.dialer.dial(ctx, h.uri)
	if err != nil {
		return nil, err
	}

	if h.bound {
		if err := dup.Bind(ctx, h.bindDN, h.password); err != nil {
			dup.conn.Close()
			return nil, err
		}
	}

	return dup, nil
}

func (h *netHandle) Bind(ctx context.Context, dn, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := h.conn.SimpleBind(&ldap.SimpleBindRequest{
		Username:           dn,
		Password:           password,
		AllowEmptyPassword: dn == "" && password == "",
	})
	if err != nil {
		return err
	}

	h.bound, h.bindDN, h.password = true, dn, password
	return nil
}

func (h *netHandle) Search(ctx context.Context, params SearchParams) (Cursor, error) {
	req := ldap.NewSearchRequest(
		params.BaseDN,
		goldapScope(params.Scope),
		ldap.NeverDerefAliases,
		0, 0, false,
		params.Filter,
		params.Attributes,
		nil,
	)

	return &netCursor{resp: h.conn.SearchAsync(ctx, req, searchBufferSize)}, nil
}

func (h *netHandle) WhoAmI(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	result, err := h.conn.WhoAmI(nil)
	if err != nil {
		return "", err
	}
	return result.AuthzID, nil
}

func (h *netHandle) Close() error {
	if h.conn.IsClosing() {
		return nil
	}
	if err := h.conn.Unbind(); err != nil {
		h.conn.Close()
		return err
	}
	return nil
}

func goldapScope(scope SearchScope) int {
	switch scope {
	case ScopeBaseObject:
		return ldap.ScopeBaseObject
	case ScopeSingleLevel:
		return ldap.ScopeSingleLevel
	case ScopeWholeSubtree:
		return ldap.ScopeWholeSubtree
	default:
		return ldap.ScopeChildren
	}
}

// netCursor adapts a go-ldap async search response. Referrals are skipped.
type netCursor struct {
	resp    ldap.Response
	current *RawEntry
}

func (c *netCursor) Next() bool {
	for c.resp.Next() {
		if entry := c.resp.Entry(); entry != nil {
			c.current = rawEntryFrom(entry)
			return true
		}
	}
	c.current = nil
	return false
}

func (c *netCursor) Entry() *RawEntry {
	return c.current
}

func (c *netCursor) Err() error {
	return c.resp.Err()
}

func rawEntryFrom(entry *ldap.Entry) *RawEntry {
	raw := &RawEntry{
		DN:         entry.DN,
		Attributes: make([]RawAttribute, 0, len(entry.Attributes)),
	}
	for _, attr := range entry.Attributes {
		raw.Attributes = append(raw.Attributes, RawAttribute{
			Name:   attr.Name,
			Values: attr.Values,
		})
	}
	return raw
}
