package ldap

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Mode tells whether a session owns its origin or shares it.
type Mode int

const (
	ModePrimary Mode = iota
	ModeDuplicate
)

func (m Mode) String() string {
	if m == ModeDuplicate {
		return "duplicate"
	}
	return "primary"
}

// origin is the state a primary shares with every duplicate derived from it.
// Duplicates hold the origin, never the primary Session itself.
type origin struct {
	handle Handle
	closed atomic.Bool
}

// Session is one logical connection to a directory server.
//
// A primary session owns the connection it opened. Duplicates have their own
// native handle but follow the primary's fate: once the primary is unbound no
// duplicate is usable. Closing a duplicate affects only that duplicate.
//
// A Session is not safe for concurrent use; distinct sessions are.
type Session struct {
	server Server
	dialer Dialer
	mode   Mode
	handle Handle
	origin *origin

	destroyed atomic.Bool
	released  atomic.Bool
}

// Open dials server and returns a primary session.
func Open(ctx context.Context, dialer Dialer, server Server) (*Session, error) {
	if err := server.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]any{"server": server.String()}

	var handle Handle
	err := LogOperation(ctx, "open", fields, func() error {
		var err error
		handle, err = dialer.Open(ctx, server.String())
		if err != nil {
			return NewDirectoryError("open", "", err)
		}
		if handle == nil {
			return fmt.Errorf("open %s: %w", server, ErrUnknownResult)
		}
		return nil
	})
	if err != nil {
		LogSessionEvent(ctx, "open_failed", map[string]any{"server": server.String()})
		return nil, err
	}

	LogSessionEvent(ctx, "session_opened", map[string]any{"server": server.String()})

	return newPrimary(server, dialer, handle), nil
}

func newPrimary(server Server, dialer Dialer, handle Handle) *Session {
	return &Session{
		server: server,
		dialer: dialer,
		mode:   ModePrimary,
		handle: handle,
		origin: &origin{handle: handle},
	}
}

// Server returns the endpoint the session was opened against.
func (s *Session) Server() Server {
	return s.server
}

func (s *Session) Mode() Mode {
	return s.mode
}

func (s *Session) IsDuplicate() bool {
	return s.mode == ModeDuplicate
}

// IsUsable reports whether bind and search are permitted. For duplicates this
// also reflects the state of the primary they derive from.
func (s *Session) IsUsable() bool {
	if s.origin.closed.Load() {
		return false
	}
	return s.mode == ModePrimary || !s.destroyed.Load()
}

// SharesOrigin reports whether s and other derive from the same primary.
func (s *Session) SharesOrigin(other *Session) bool {
	return other != nil && s.origin == other.origin
}

// Duplicate returns a new session with its own native handle sharing the
// fate of this session's primary. Duplicating a duplicate duplicates the
// primary's handle, so duplicates never chain.
//
// The caller owns the returned session and must release it, typically with
// defer dup.CloseQuietly(ctx). Closing the primary makes a duplicate unusable
// but does not release its handle, and nothing releases it when the session
// becomes unreachable.
func (s *Session) Duplicate(ctx context.Context) (*Session, error) {
	if !s.IsUsable() {
		return nil, ErrSessionClosed
	}

	var handle Handle
	err := LogOperation(ctx, "duplicate", map[string]any{"server": s.server.String()}, func() error {
		var err error
		handle, err = s.origin.handle.Duplicate(ctx)
		if err != nil {
			return NewDirectoryError("duplicate", "", err)
		}
		if handle == nil {
			return fmt.Errorf("duplicate %s: %w", s.server, ErrUnknownResult)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	LogSessionEvent(ctx, "session_duplicated", map[string]any{
		"server":    s.server.String(),
		"from_mode": s.mode.String(),
	})

	return &Session{
		server: s.server,
		dialer: s.dialer,
		mode:   ModeDuplicate,
		handle: handle,
		origin: s.origin,
	}, nil
}

// NewPrimary opens an independent primary session to the same server.
func (s *Session) NewPrimary(ctx context.Context) (*Session, error) {
	return Open(ctx, s.dialer, s.server)
}

// Bind authenticates the session with a simple bind. An empty dn and
// password perform an anonymous bind.
func (s *Session) Bind(ctx context.Context, dn, password string) error {
	if !s.IsUsable() {
		return ErrSessionClosed
	}

	fields := map[string]any{
		"server":  s.server.String(),
		"bind_dn": dn,
		"mode":    s.mode.String(),
	}

	start := time.Now()
	if err := s.handle.Bind(ctx, dn, password); err != nil {
		err = NewDirectoryError("bind", dn, err)
		fields["duration_ms"] = time.Since(start).Milliseconds()
		LogLDAPError(ctx, "bind", err, fields)
		LogSessionEvent(ctx, "bind_failed", map[string]any{"server": s.server.String(), "bind_dn": dn})
		return err
	}

	fields["duration_ms"] = time.Since(start).Milliseconds()
	LogSessionEvent(ctx, "session_bound", fields)
	return nil
}

// Unbind releases the session's native handle. On a primary it also closes
// every duplicate derived from it. A second call logs a warning and returns nil.
//
// If the native release fails the session is still considered closed.
func (s *Session) Unbind(ctx context.Context) error {
	if !s.released.CompareAndSwap(false, true) {
		LogSessionEvent(ctx, "redundant_release", map[string]any{
			"server": s.server.String(),
			"mode":   s.mode.String(),
		})
		return nil
	}

	if s.mode == ModePrimary {
		s.origin.closed.Store(true)
	} else {
		s.destroyed.Store(true)
	}

	if err := s.handle.Close(); err != nil {
		err = NewDirectoryError("close", "", err)
		LogSessionEvent(ctx, "release_failed", map[string]any{
			"server": s.server.String(),
			"mode":   s.mode.String(),
			"error":  err.Error(),
		})
		return err
	}

	tflog.SubsystemDebug(ctx, Subsystem, "Session released", map[string]any{
		"server": s.server.String(),
		"mode":   s.mode.String(),
	})
	return nil
}

// Close is Unbind.
func (s *Session) Close(ctx context.Context) error {
	return s.Unbind(ctx)
}

// CloseQuietly releases the session for use in defer, logging instead of
// returning any failure.
func (s *Session) CloseQuietly(ctx context.Context) {
	_ = s.Unbind(ctx)
}

// search runs params on the session's own handle.
func (s *Session) search(ctx context.Context, params SearchParams) (Cursor, error) {
	if !s.IsUsable() {
		return nil, ErrSessionClosed
	}

	cursor, err := s.handle.Search(ctx, params)
	if err != nil {
		return nil, NewDirectoryError("search", params.BaseDN, err)
	}
	if cursor == nil {
		return nil, fmt.Errorf("search %s: %w", params.BaseDN, ErrUnknownResult)
	}
	return cursor, nil
}
