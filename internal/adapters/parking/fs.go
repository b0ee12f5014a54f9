// Package parking stores inbound messages that could not be handled and must
// not be retried, so an operator can follow them up. Events are kept as one
// JSON document each, on the local filesystem or in an S3 bucket.
package parking

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/plp/internal/ports/secondary"
)

// FileStore implements secondary.ParkedEventStore in a local directory.
type FileStore struct {
	root string
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("parking directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create parking directory: %w", err)
	}
	return &FileStore{root: dir}, nil
}

// Park writes the event to <root>/<id>.json, replacing any earlier copy.
func (s *FileStore) Park(ctx context.Context, event secondary.ParkedEvent) error {
	name, err := objectName(event.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode parked event: %w", err)
	}

	// Write then rename so a reader never sees half a document.
	path := filepath.Join(s.root, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to park event %s: %w", event.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to park event %s: %w", event.ID, err)
	}
	return nil
}

// List returns parked events, oldest first.
func (s *FileStore) List(ctx context.Context) ([]secondary.ParkedEvent, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read parking directory: %w", err)
	}

	var out []secondary.ParkedEvent
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read parked event: %w", err)
		}
		var event secondary.ParkedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("failed to decode parked event %s: %w", entry.Name(), err)
		}
		out = append(out, event)
	}
	sortOldestFirst(out)
	return out, nil
}

// objectName maps a message ID to a file or object name that cannot escape
// the store's root.
func objectName(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("parked event has no id")
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
	return clean + ".json", nil
}

func sortOldestFirst(events []secondary.ParkedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].ParkedAt.Equal(events[j].ParkedAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].ParkedAt.Before(events[j].ParkedAt)
	})
}

var _ secondary.ParkedEventStore = (*FileStore)(nil)
