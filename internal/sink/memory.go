package sink

import (
	"context"
	"sort"
	"sync"

	"github.com/koustreak/dbgen/internal/errs"
)

// Memory keeps files in a map. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

func (m *Memory) Write(_ context.Context, p string, content []byte) error {
	c, err := Clean(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[c] = append([]byte(nil), content...)
	return nil
}

func (m *Memory) Append(_ context.Context, p string, content []byte) error {
	c, err := Clean(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[c] = append(m.files[c], content...)
	return nil
}

func (m *Memory) Read(_ context.Context, p string) ([]byte, error) {
	c, err := Clean(p)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.files[c]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no file at "+c)
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}
