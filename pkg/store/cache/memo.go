// Package cache memoises expensive pipeline results under explicit keys.
package cache

import (
	"context"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"
)

// Memo is a bounded key/value cache. When full, the oldest entry is evicted.
// Concurrent Get calls for a missing key share a single computation.
type Memo[V any] struct {
	mu         sync.Mutex
	entries    map[string]V
	order      []string
	maxEntries int
	disabled   bool
	group      singleflight.Group
}

// New returns a memo holding at most maxEntries values. A maxEntries of zero
// or less leaves it unbounded.
func New[V any](maxEntries int) *Memo[V] {
	return &Memo[V]{
		entries:    make(map[string]V),
		maxEntries: maxEntries,
	}
}

// Disabled returns a memo that never stores values and calls compute on
// every Get.
func Disabled[V any]() *Memo[V] {
	return &Memo[V]{entries: make(map[string]V), disabled: true}
}

// Get returns the value stored under key, computing and storing it on a miss.
// Errors are returned to every waiting caller and are not stored.
func (m *Memo[V]) Get(ctx context.Context, key string, compute func(context.Context) (V, error)) (V, error) {
	if m.disabled {
		return compute(ctx)
	}

	if v, ok := m.lookup(key); ok {
		return v, nil
	}

	res, err, _ := m.group.Do(key, func() (interface{}, error) {
		if v, ok := m.lookup(key); ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return v, err
		}
		m.store(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (m *Memo[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memo[V]) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]V)
	m.order = nil
}

func (m *Memo[V]) lookup(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *Memo[V]) store(key string, v V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		m.entries[key] = v
		return
	}
	if m.maxEntries > 0 && len(m.order) >= m.maxEntries {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
	m.entries[key] = v
	m.order = append(m.order, key)
}

// Key hashes parts into a compact cache key. Parts are length-prefixed so
// ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) string {
	h := xxh3.New()
	for _, p := range parts {
		_, _ = h.WriteString(strconv.Itoa(len(p)))
		_, _ = h.WriteString(":")
		_, _ = h.WriteString(p)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
