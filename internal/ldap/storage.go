package ldap

import (
	"errors"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
)

// entryStorage is the backing store shared by every view cast from one entry.
//
// Every key in cache was decoded from the current raw value for that key.
// refs counts the live views; a view may only mutate in place while it is the
// sole reference.
type entryStorage struct {
	mu    sync.Mutex
	raw   map[AttributeKey]RawValue
	cache map[AttributeKey]any
	refs  atomic.Int32
}

func newEntryStorage(raw map[AttributeKey]RawValue) *entryStorage {
	if raw == nil {
		raw = make(map[AttributeKey]RawValue)
	}
	return &entryStorage{
		raw:   raw,
		cache: make(map[AttributeKey]any),
	}
}

// clone copies the raw values. The cache is not carried over.
func (s *entryStorage) clone() *entryStorage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return newEntryStorage(maps.Clone(s.raw))
}

func (s *entryStorage) retain() {
	s.refs.Add(1)
}

func (s *entryStorage) release() {
	s.refs.Add(-1)
}

func (s *entryStorage) shared() bool {
	return s.refs.Load() > 1
}

func (s *entryStorage) get(key AttributeKey) (RawValue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.raw[key]
	return v, ok
}

func (s *entryStorage) keys() []AttributeKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := slices.Collect(maps.Keys(s.raw))
	slices.SortFunc(keys, AttributeKey.Compare)
	return keys
}

func (s *entryStorage) snapshot() map[AttributeKey]RawValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.raw)
}

// put stores raw for key and replaces its cache slot with decoded. A nil
// decoded drops the slot.
func (s *entryStorage) put(key AttributeKey, raw RawValue, decoded any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw[key] = raw
	if decoded == nil {
		delete(s.cache, key)
	} else {
		s.cache[key] = decoded
	}
}

func (s *entryStorage) remove(key AttributeKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.raw, key)
	delete(s.cache, key)
}

// load returns the cached value for attr or decodes it from raw. An absent
// key decodes as an empty raw value. Callers always get their own copy, so
// mutating a result never reaches the cache or a sibling view.
func load[T any](s *entryStorage, attr Attribute[T]) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache[attr.key]; ok {
		if v, ok := cached.(T); ok {
			return cloneValue(attr.codec, v), nil
		}
	}

	v, err := attr.codec.Decode(s.raw[attr.key])
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) && decodeErr.Key == "" {
			decodeErr.Key = attr.key
		}
		return v, err
	}

	s.cache[attr.key] = v
	return cloneValue(attr.codec, v), nil
}
