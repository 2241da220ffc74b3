package format

import (
	"context"
	"fmt"
	"io/fs"
)

type memSource map[string]string

func (m memSource) ReadFile(_ context.Context, name string) ([]byte, error) {
	s, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", name, fs.ErrNotExist)
	}
	return []byte(s), nil
}

func (m memSource) WriteFile(_ context.Context, name string, data []byte) error {
	m[name] = string(data)
	return nil
}
