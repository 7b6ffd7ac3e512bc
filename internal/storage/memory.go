package storage

import (
	"sync"

	"github.com/armon/go-radix"
)

// Memory is an in-process Store backed by a radix tree.
//
// When quota is positive, Set fails with ErrQuotaExceeded once the summed
// length of keys and values would exceed it, the way browser local storage
// rejects writes past its per-origin limit.
type Memory struct {
	mu    sync.RWMutex
	tree  *radix.Tree
	quota int
	used  int
}

// NewMemory returns an empty Memory store. quota <= 0 means unbounded.
func NewMemory(quota int) *Memory {
	return &Memory{tree: radix.New(), quota: quota}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.tree.Get(key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used + len(key) + len(value)
	if old, ok := m.tree.Get(key); ok {
		used -= len(key) + len(old.(string))
	}
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}
	m.tree.Insert(key, value)
	m.used = used
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.tree.Delete(key); ok {
		m.used -= len(key) + len(old.(string))
	}
	return nil
}

func (m *Memory) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, m.tree.Len())
	m.tree.Walk(func(k string, _ interface{}) bool {
		keys = append(keys, k)
		return false
	})
	return keys, nil
}

// KeysWithPrefix walks only the subtree under prefix.
func (m *Memory) KeysWithPrefix(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	m.tree.WalkPrefix(prefix, func(k string, _ interface{}) bool {
		keys = append(keys, k)
		return false
	})
	return keys, nil
}

// Used reports the bytes currently counted against the quota.
func (m *Memory) Used() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}
