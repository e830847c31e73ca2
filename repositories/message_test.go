package repositories

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chat-hub/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStores(t *testing.T) (*MessageRepository, *MediaStore, string) {
	t.Helper()
	dir := t.TempDir()
	media, err := NewMediaStore(dir, slog.Default())
	require.NoError(t, err)
	messages, err := NewMessageRepository(dir, media, slog.Default())
	require.NoError(t, err)
	return messages, media, dir
}

func textMessage(from, to string, toType domain.TargetType, text string) domain.Message {
	return domain.Message{
		ID:       uuid.NewString(),
		FromID:   from,
		FromName: "Name of " + from,
		ToID:     to,
		ToType:   toType,
		Kind:     domain.KindText,
		Text:     text,
		SentAt:   time.Now().UnixMilli(),
	}
}

func Test_Message_Log_Round_Trip(t *testing.T) {
	req := require.New(t)
	messages, media, dir := newTestStores(t)

	text := textMessage("u1", "u2", domain.TargetUser, "hello there")
	ref, _, err := media.SaveAudio([]byte{0x1a, 0x45, 0xdf, 0xa3}, "audio/webm")
	req.NoError(err)
	audio := domain.Message{
		ID:        uuid.NewString(),
		FromID:    "u2",
		FromName:  "Name of u2",
		ToID:      "u1",
		ToType:    domain.TargetUser,
		Kind:      domain.KindAudio,
		MediaRef:  ref,
		MediaMime: "audio/webm",
		SentAt:    time.Now().UnixMilli(),
	}
	req.NoError(messages.Append(text))
	req.NoError(messages.Append(audio))

	// A fresh repository reads the same file back.
	reopened, err := NewMessageRepository(dir, media, slog.Default())
	req.NoError(err)
	req.Equal([]domain.Message{text, audio}, reopened.All())
}

func Test_Append_Write_Failure_Reaches_Caller_And_Rolls_Back(t *testing.T) {
	req := require.New(t)
	messages, _, dir := newTestStores(t)

	kept := textMessage("u1", "u2", domain.TargetUser, "kept")
	req.NoError(messages.Append(kept))

	// Turn the log file into a directory so the next rewrite fails.
	path := filepath.Join(dir, "messages.json")
	req.NoError(os.Remove(path))
	req.NoError(os.Mkdir(path, 0o755))

	err := messages.Append(textMessage("u1", "u2", domain.TargetUser, "lost"))
	req.Error(err)
	req.Equal(1, messages.Count())
	req.Equal([]domain.Message{kept}, messages.All())
}

func Test_History_Direct_Conversation_Matches_Both_Directions(t *testing.T) {
	req := require.New(t)
	messages, _, _ := newTestStores(t)

	sent := textMessage("u1", "u2", domain.TargetUser, "ping")
	req.NoError(messages.Append(sent))
	req.NoError(messages.Append(textMessage("u1", "u3", domain.TargetUser, "unrelated")))

	req.Contains(messages.History("u1", "u2", domain.TargetUser), sent)
	req.Contains(messages.History("u2", "u1", domain.TargetUser), sent)
	req.NotContains(messages.History("u2", "u3", domain.TargetUser), sent)
}

func Test_History_Group_Ignores_Membership(t *testing.T) {
	req := require.New(t)
	messages, _, _ := newTestStores(t)

	sent := textMessage("u1", "g1", domain.TargetGroup, "to the group")
	req.NoError(messages.Append(sent))

	// Anyone who knows the group id can read its feed.
	for _, viewer := range []string{"u1", "u2", "total-stranger"} {
		req.Contains(messages.History(viewer, "g1", domain.TargetGroup), sent)
	}
	req.Empty(messages.History("u1", "g2", domain.TargetGroup))
}

func Test_History_Is_Chronological(t *testing.T) {
	req := require.New(t)
	messages, _, _ := newTestStores(t)

	first := textMessage("u1", "u2", domain.TargetUser, "first")
	second := textMessage("u2", "u1", domain.TargetUser, "second")
	req.NoError(messages.Append(first))
	req.NoError(messages.Append(second))

	history := messages.History("u1", "u2", domain.TargetUser)
	req.Equal([]domain.Message{first, second}, history)
}

func Test_Legacy_Audio_Pointer_Materialized_On_Load(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	blob := []byte("fake audio bytes")
	req.NoError(os.MkdirAll(filepath.Join(dir, "audio"), 0o755))
	req.NoError(os.WriteFile(filepath.Join(dir, "audio", "old.webm"), blob, 0o644))

	stored := []domain.Message{
		{
			ID: uuid.NewString(), FromID: "u1", FromName: "U1", ToID: "u2",
			ToType: domain.TargetUser, Kind: domain.KindAudio,
			MediaRef: "audio/old.webm", MediaMime: "audio/webm", SentAt: 1,
		},
		{
			ID: uuid.NewString(), FromID: "u1", FromName: "U1", ToID: "u2",
			ToType: domain.TargetUser, Kind: domain.KindAudio,
			MediaRef: "audio/long-gone.webm", MediaMime: "audio/webm", SentAt: 2,
		},
	}
	content, err := json.Marshal(stored)
	req.NoError(err)
	req.NoError(os.WriteFile(filepath.Join(dir, "messages.json"), content, 0o644))

	media, err := NewMediaStore(dir, slog.Default())
	req.NoError(err)
	messages, err := NewMessageRepository(dir, media, slog.Default())
	req.NoError(err)

	loaded := messages.All()
	req.Len(loaded, 2)

	decoded, mime, err := DecodeDataURI(loaded[0].MediaRef)
	req.NoError(err)
	req.Equal(blob, decoded)
	req.Equal("audio/webm", mime)

	// Unresolvable pointers degrade to the stored value.
	req.Equal("audio/long-gone.webm", loaded[1].MediaRef)

	// Materialization is in-memory only; the file keeps the pointer.
	onDisk, err := os.ReadFile(filepath.Join(dir, "messages.json"))
	req.NoError(err)
	req.Contains(string(onDisk), "audio/old.webm")
}
