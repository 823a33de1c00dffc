// Package storage abstracts the blob backend that holds attachment payloads.
// Whether the handle points at a local path or an object-store URL is
// invisible to the rest of the service.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// Store puts and gets opaque byte payloads.
type Store interface {
	// Put persists data and returns the handle to retrieve it later.
	// suggestedName is advisory; implementations must not trust it.
	Put(ctx context.Context, data []byte, suggestedName string) (string, error)

	// Get returns the payload for a handle previously returned by Put.
	Get(ctx context.Context, handle string) ([]byte, error)

	// Delete removes the payload. Missing handles are not an error.
	Delete(ctx context.Context, handle string) error
}

// DiskStore is the local-filesystem Store used in development and tests.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("disk store: create root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Put(_ context.Context, data []byte, suggestedName string) (string, error) {
	name := sanitizeName(suggestedName)
	handle := fmt.Sprintf("%d_%s_%s", time.Now().UnixNano(), watermill.NewShortUUID(), name)

	if err := os.WriteFile(filepath.Join(s.root, handle), data, 0o644); err != nil {
		return "", fmt.Errorf("disk store: write: %w", err)
	}
	return handle, nil
}

func (s *DiskStore) Get(_ context.Context, handle string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, sanitizeName(handle)))
	if err != nil {
		return nil, fmt.Errorf("disk store: read %s: %w", handle, err)
	}
	return data, nil
}

func (s *DiskStore) Delete(_ context.Context, handle string) error {
	err := os.Remove(filepath.Join(s.root, sanitizeName(handle)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("disk store: delete %s: %w", handle, err)
	}
	return nil
}

// sanitizeName strips path separators so handles cannot escape the root.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "unnamed"
	}
	return name
}
