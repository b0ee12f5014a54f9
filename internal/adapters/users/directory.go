// Package users resolves the usernames recorded on schedules to display names.
package users

import (
	"context"
	"strings"

	"github.com/example/plp/internal/ports/secondary"
)

// Directory implements secondary.UserDirectory from a fixed map, normally the
// users section of the configuration.
type Directory struct {
	names map[string]string
}

// NewDirectory copies names, keyed case-insensitively by username.
func NewDirectory(names map[string]string) *Directory {
	d := &Directory{names: make(map[string]string, len(names))}
	for username, display := range names {
		d.names[strings.ToLower(username)] = display
	}
	return d
}

// DisplayName returns the configured display name, or username when none is known.
func (d *Directory) DisplayName(ctx context.Context, username string) string {
	if name, ok := d.names[strings.ToLower(username)]; ok && name != "" {
		return name
	}
	return username
}

var _ secondary.UserDirectory = (*Directory)(nil)
