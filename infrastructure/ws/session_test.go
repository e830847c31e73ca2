package ws

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-hub/domain"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *runtime.Registry) {
	t.Helper()
	req := require.New(t)
	dir := t.TempDir()
	log := slog.Default()

	media, err := repositories.NewMediaStore(dir, log)
	req.NoError(err)
	messages, err := repositories.NewMessageRepository(dir, media, log)
	req.NoError(err)
	groups, err := repositories.NewGroupRepository(dir, log)
	req.NoError(err)

	directory := runtime.NewDirectory()
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(log, registry, groups)
	service := services.NewChatService(log, directory, groups, messages, media, broadcaster)

	ts := httptest.NewServer(NewServer(log, service, registry, directory, broadcaster, 16))
	t.Cleanup(ts.Close)
	return ts, registry
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, ts *httptest.Server, query string) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(frameType string, payload any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(outFrame{Type: frameType, Payload: payload}))
}

// readUntil skips unrelated broadcasts (roster updates and the like)
// until a frame of the wanted type shows up.
func (c *wsClient) readUntil(frameType string) map[string]any {
	c.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		var f struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(c.t, c.conn.ReadJSON(&f))
		if f.Type != frameType {
			continue
		}
		var payload map[string]any
		if len(f.Payload) > 0 && f.Payload[0] == '{' {
			require.NoError(c.t, json.Unmarshal(f.Payload, &payload))
		}
		return payload
	}
}

func Test_Welcome_Carries_Identity_And_State(t *testing.T) {
	req := require.New(t)
	ts, _ := newTestServer(t)

	c := dial(t, ts, "?name=Alice")
	welcome := c.readUntil("welcome")

	req.Equal("Alice", welcome["name"])
	req.NotEmpty(welcome["id"])
	req.Contains(welcome, "clients")
	req.Contains(welcome, "groups")
	req.Contains(welcome, "history")
}

func Test_Client_Id_Auto_Registered_On_First_Contact(t *testing.T) {
	req := require.New(t)
	ts, registry := newTestServer(t)

	c := dial(t, ts, "?clientId=web-123&name=Carol")
	welcome := c.readUntil("welcome")
	req.Equal("web-123", welcome["id"])
	req.Equal("Carol", welcome["name"])

	req.Eventually(func() bool {
		_, ok := registry.Lookup("web-123")
		return ok
	}, time.Second, 10*time.Millisecond)
}

func Test_Text_Message_Pushed_To_Recipient(t *testing.T) {
	req := require.New(t)
	ts, _ := newTestServer(t)

	alice := dial(t, ts, "?clientId=alice&name=Alice")
	alice.readUntil("welcome")
	bob := dial(t, ts, "?clientId=bob&name=Bob")
	bob.readUntil("welcome")

	alice.send("text_message", targetPayload{To: "bob", ToType: domain.TargetUser, Text: "hi Bob"})

	incoming := bob.readUntil("incoming_message")
	req.Equal("hi Bob", incoming["text"])
	req.Equal("alice", incoming["from"])
	req.Equal("Alice", incoming["fromName"])

	echo := alice.readUntil("incoming_message")
	req.Equal("hi Bob", echo["text"])
}

func Test_Group_Created_Broadcast_To_Everyone(t *testing.T) {
	req := require.New(t)
	ts, _ := newTestServer(t)

	alice := dial(t, ts, "?clientId=alice&name=Alice")
	alice.readUntil("welcome")
	outsider := dial(t, ts, "?clientId=eve&name=Eve")
	outsider.readUntil("welcome")

	alice.send("create_group", groupPayload{Name: "G", Members: []string{"alice", "bob"}})

	announced := outsider.readUntil("group_created")
	req.Equal("G", announced["name"])
}

func Test_Voice_Note_Round_Trip(t *testing.T) {
	req := require.New(t)
	ts, _ := newTestServer(t)

	alice := dial(t, ts, "?clientId=alice&name=Alice")
	alice.readUntil("welcome")
	bob := dial(t, ts, "?clientId=bob&name=Bob")
	bob.readUntil("welcome")

	blob := []byte("a short voice note")
	alice.send("voice_note", targetPayload{
		To:     "bob",
		ToType: domain.TargetUser,
		Blob:   repositories.DataURI(blob, "audio/webm"),
	})

	incoming := bob.readUntil("incoming_message")
	req.Equal("audio", incoming["kind"])

	decoded, mime, err := repositories.DecodeDataURI(incoming["audioFile"].(string))
	req.NoError(err)
	req.Equal(blob, decoded)
	req.Equal("audio/webm", mime)
}
