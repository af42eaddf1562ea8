package ldap

import (
	"context"
	"sync"
)

// fakeDirectory is a Dialer that records the native calls made through its handles.
type fakeDirectory struct {
	mu sync.Mutex

	entries   []*RawEntry
	cursorErr error

	openErr    error
	bindErr    error
	searchErr  error
	closeErr   error
	whoAmIErr  error
	authzID    string
	nilHandle  bool
	nilCursor  bool
	opened     []string
	duplicates int
	binds      []string
	searches   []SearchParams
	closed     []*fakeHandle
	nextHandle int
}

func newFakeDirectory(entries ...*RawEntry) *fakeDirectory {
	return &fakeDirectory{entries: entries}
}

func (f *fakeDirectory) Open(ctx context.Context, uri string) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.opened = append(f.opened, uri)
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.nilHandle {
		return nil, nil
	}
	return f.newHandle(nil), nil
}

func (f *fakeDirectory) newHandle(parent *fakeHandle) *fakeHandle {
	f.nextHandle++
	return &fakeHandle{dir: f, id: f.nextHandle, parent: parent}
}

type fakeHandle struct {
	dir    *fakeDirectory
	id     int
	parent *fakeHandle
}

func (h *fakeHandle) Duplicate(ctx context.Context) (Handle, error) {
	h.dir.mu.Lock()
	defer h.dir.mu.Unlock()

	h.dir.duplicates++
	return h.dir.newHandle(h), nil
}

func (h *fakeHandle) Bind(ctx context.Context, dn, password string) error {
	h.dir.mu.Lock()
	defer h.dir.mu.Unlock()

	h.dir.binds = append(h.dir.binds, dn)
	if h.dir.bindErr != nil {
		return h.dir.bindErr
	}
	return nil
}

func (h *fakeHandle) Search(ctx context.Context, params SearchParams) (Cursor, error) {
	h.dir.mu.Lock()
	defer h.dir.mu.Unlock()

	h.dir.searches = append(h.dir.searches, params)
	if h.dir.searchErr != nil {
		return nil, h.dir.searchErr
	}
	if h.dir.nilCursor {
		return nil, nil
	}
	return &sliceCursor{entries: h.dir.entries, err: h.dir.cursorErr}, nil
}

func (h *fakeHandle) WhoAmI(ctx context.Context) (string, error) {
	h.dir.mu.Lock()
	defer h.dir.mu.Unlock()

	if h.dir.whoAmIErr != nil {
		return "", h.dir.whoAmIErr
	}
	return h.dir.authzID, nil
}

func (h *fakeHandle) Close() error {
	h.dir.mu.Lock()
	defer h.dir.mu.Unlock()

	h.dir.closed = append(h.dir.closed, h)
	return h.dir.closeErr
}

func (f *fakeDirectory) lastSearch() SearchParams {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.searches[len(f.searches)-1]
}

// sliceCursor yields entries in order and then reports err.
type sliceCursor struct {
	entries []*RawEntry
	pos     int
	current *RawEntry
	err     error
}

func (c *sliceCursor) Next() bool {
	if c.pos >= len(c.entries) {
		c.current = nil
		return false
	}
	c.current = c.entries[c.pos]
	c.pos++
	return true
}

func (c *sliceCursor) Entry() *RawEntry {
	return c.current
}

func (c *sliceCursor) Err() error {
	if c.pos < len(c.entries) {
		return nil
	}
	return c.err
}
