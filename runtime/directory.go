// Package runtime owns the ephemeral per-process state of the chat
// backend: the identity directory, the live connection registry, the
// per-connection outbound queues and the broadcaster tying them
// together.
package runtime

import (
	"fmt"
	"strings"
	"sync"

	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/google/uuid"
)

// Directory is the in-memory user registry. It is not persisted; a
// restart forgets every identity while groups and messages survive.
type Directory struct {
	mu    sync.RWMutex
	users map[string]domain.Profile
}

func NewDirectory() *Directory {
	return &Directory{users: make(map[string]domain.Profile)}
}

// Register creates a fresh identity. A blank desired name falls back to
// "User-" plus the first 6 characters of the generated id.
func (d *Directory) Register(desiredName string) domain.Profile {
	id := uuid.NewString()
	profile := domain.Profile{ID: id, DisplayName: displayNameFor(id, desiredName)}
	d.mu.Lock()
	d.users[id] = profile
	d.mu.Unlock()
	return profile
}

// RegisterKnown upserts an identity under a caller-chosen id. Transports
// use it for provisional identities and for session takeover, where the
// client brings its own id.
func (d *Directory) RegisterKnown(id, desiredName string) domain.Profile {
	profile := domain.Profile{ID: id, DisplayName: displayNameFor(id, desiredName)}
	d.mu.Lock()
	d.users[id] = profile
	d.mu.Unlock()
	return profile
}

// Ensure fails for ids the directory has never seen. Mutating
// operations call it before touching any store.
func (d *Directory) Ensure(id string) (domain.Profile, error) {
	d.mu.RLock()
	profile, ok := d.users[id]
	d.mu.RUnlock()
	if !ok {
		return domain.Profile{}, fmt.Errorf("%w: %s", errors.ErrUnknownUser, id)
	}
	return profile, nil
}

// Rename updates the display name of an existing identity.
func (d *Directory) Rename(id, name string) (domain.Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	profile, ok := d.users[id]
	if !ok {
		return domain.Profile{}, fmt.Errorf("%w: %s", errors.ErrUnknownUser, id)
	}
	profile.DisplayName = displayNameFor(id, name)
	d.users[id] = profile
	return profile, nil
}

// Lookup returns the profile for id if present.
func (d *Directory) Lookup(id string) (domain.Profile, bool) {
	d.mu.RLock()
	profile, ok := d.users[id]
	d.mu.RUnlock()
	return profile, ok
}

func displayNameFor(id, desired string) string {
	if trimmed := strings.TrimSpace(desired); trimmed != "" {
		return trimmed
	}
	// Client-supplied ids can be arbitrarily short.
	if len(id) > 6 {
		id = id[:6]
	}
	return "User-" + id
}
