// Package clipboard copies and pastes entities and tile patterns between
// worlds through a text clipboard.
package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// Board stores one text payload.
type Board interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// System is the desktop clipboard.
type System struct{}

// NewSystem initializes the platform clipboard. It fails on headless hosts.
func NewSystem() (*System, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("clipboard: %w", err)
	}
	return &System{}, nil
}

func (System) Read() ([]byte, error) { return clipboard.Read(clipboard.FmtText), nil }

func (System) Write(data []byte) error {
	clipboard.Write(clipboard.FmtText, data)
	return nil
}

// Memory is a process-local Board, used when no desktop clipboard exists.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

func (m *Memory) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...), nil
}

func (m *Memory) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}
