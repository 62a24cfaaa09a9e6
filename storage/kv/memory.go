package kv

import (
	"context"
	"strings"
	"sync"

	"github.com/trezcool/schoolconnect/core/session"
)

type memoryTable struct {
	data  map[string][]byte
	mutex sync.RWMutex
}

// Memory keeps values in process memory. Namespaces share the same table.
type Memory struct {
	table  *memoryTable
	prefix string
}

var _ Backend = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{table: &memoryTable{data: make(map[string][]byte)}}
}

func (m *Memory) Namespace(ns string) Backend {
	return &Memory{table: m.table, prefix: join(m.prefix, ns)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.table.mutex.RLock()
	defer m.table.mutex.RUnlock()

	v, ok := m.table.data[m.prefix+key]
	if !ok {
		return nil, session.ErrNoValue
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.table.mutex.Lock()
	defer m.table.mutex.Unlock()
	m.table.data[m.prefix+key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.table.mutex.Lock()
	defer m.table.mutex.Unlock()
	delete(m.table.data, m.prefix+key)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.table.mutex.Lock()
	defer m.table.mutex.Unlock()
	for k := range m.table.data {
		if strings.HasPrefix(k, m.prefix) {
			delete(m.table.data, k)
		}
	}
	return nil
}

// Len returns the number of keys of the namespace.
func (m *Memory) Len() int {
	m.table.mutex.RLock()
	defer m.table.mutex.RUnlock()
	n := 0
	for k := range m.table.data {
		if strings.HasPrefix(k, m.prefix) {
			n++
		}
	}
	return n
}
