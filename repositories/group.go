package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"chat-hub/domain"

	"github.com/samber/lo"
)

// GroupRepository is the durable group directory, kept as an object
// keyed by group id in <dataDir>/groups.json. Groups are immutable once
// inserted.
type GroupRepository struct {
	mu     sync.Mutex
	path   string
	log    *slog.Logger
	groups map[string]domain.Group
}

func NewGroupRepository(dataDir string, log *slog.Logger) (*GroupRepository, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	r := &GroupRepository{
		path:   filepath.Join(dataDir, "groups.json"),
		log:    log,
		groups: make(map[string]domain.Group),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Insert stores the group and synchronously rewrites the whole
// directory file before returning.
func (r *GroupRepository) Insert(group domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.ID] = group
	if err := r.rewrite(); err != nil {
		delete(r.groups, group.ID)
		return err
	}
	return nil
}

// Find never errors; a missing id is an ordinary outcome.
func (r *GroupRepository) Find(id string) (domain.Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[id]
	return group, ok
}

// All returns a snapshot of every known group.
func (r *GroupRepository) All() []domain.Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Values(r.groups)
}

func (r *GroupRepository) load() error {
	content, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading group directory: %w", err)
	}
	if err := json.Unmarshal(content, &r.groups); err != nil {
		return fmt.Errorf("decoding group directory: %w", err)
	}
	r.log.Debug(fmt.Sprintf("Loaded %d groups from %s", len(r.groups), r.path))
	return nil
}

func (r *GroupRepository) rewrite() error {
	content, err := json.MarshalIndent(r.groups, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding group directory: %w", err)
	}
	if err := os.WriteFile(r.path, content, 0o644); err != nil {
		return fmt.Errorf("writing group directory: %w", err)
	}
	return nil
}
