package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"chat-hub/domain"
)

// MessageRepository is the append-only message log. The whole log lives
// in memory and is rewritten to <dataDir>/messages.json on every append,
// so readers and writers always observe a consistent snapshot under one
// coarse lock.
type MessageRepository struct {
	mu       sync.Mutex
	path     string
	media    *MediaStore
	log      *slog.Logger
	messages []domain.Message
}

func NewMessageRepository(dataDir string, media *MediaStore, log *slog.Logger) (*MessageRepository, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	r := &MessageRepository{
		path:  filepath.Join(dataDir, "messages.json"),
		media: media,
		log:   log,
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Append adds the message to the log and synchronously rewrites the
// file before returning. A write failure reaches the caller; durability
// is part of the contract.
func (r *MessageRepository) Append(msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	if err := r.rewrite(); err != nil {
		r.messages = r.messages[:len(r.messages)-1]
		return err
	}
	return nil
}

// History scans the log in chronological order. A user target matches
// every message exchanged between viewer and target in either
// direction; a group target matches every message sent to that group,
// with no membership restriction.
func (r *MessageRepository) History(viewerID, targetID string, targetType domain.TargetType) []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	var filtered []domain.Message
	for _, msg := range r.messages {
		switch targetType {
		case domain.TargetUser:
			if (msg.FromID == viewerID && msg.ToID == targetID) ||
				(msg.FromID == targetID && msg.ToID == viewerID) {
				filtered = append(filtered, msg)
			}
		case domain.TargetGroup:
			if msg.ToType == domain.TargetGroup && msg.ToID == targetID {
				filtered = append(filtered, msg)
			}
		}
	}
	return filtered
}

// All returns a snapshot of the full log in send order.
func (r *MessageRepository) All() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]domain.Message, len(r.messages))
	copy(snapshot, r.messages)
	return snapshot
}

// Count reports the current log size.
func (r *MessageRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func (r *MessageRepository) load() error {
	content, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading message log: %w", err)
	}
	var messages []domain.Message
	if err := json.Unmarshal(content, &messages); err != nil {
		return fmt.Errorf("decoding message log: %w", err)
	}
	for i, msg := range messages {
		// Legacy logs may hold filesystem pointers instead of data
		// URIs. Materialize them in memory without re-persisting.
		if msg.Kind == domain.KindAudio {
			messages[i].MediaRef = r.media.Resolve(msg.MediaRef, msg.MediaMime)
		}
	}
	r.messages = messages
	r.log.Debug(fmt.Sprintf("Loaded %d messages from %s", len(messages), r.path))
	return nil
}

// rewrite dumps the whole log. O(total messages) per append, same as
// the directory rewrite in GroupRepository.
func (r *MessageRepository) rewrite() error {
	content, err := json.MarshalIndent(r.messages, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding message log: %w", err)
	}
	if err := os.WriteFile(r.path, content, 0o644); err != nil {
		return fmt.Errorf("writing message log: %w", err)
	}
	return nil
}
