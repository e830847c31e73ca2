package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/repositories"
	"chat-hub/runtime"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// frame is the single message shape flowing both ways on a WebSocket.
type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type clientInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type welcomePayload struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Clients []clientInfo     `json:"clients"`
	Groups  []domain.Group   `json:"groups"`
	History []domain.Message `json:"history"`
}

type targetPayload struct {
	To     string            `json:"to"`
	ToType domain.TargetType `json:"toType"`
	Text   string            `json:"text,omitempty"`
	Blob   string            `json:"blobBase64,omitempty"`
}

type namePayload struct {
	Name string `json:"name"`
}

type groupPayload struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type historyPayload struct {
	TargetID   string            `json:"targetId"`
	TargetType domain.TargetType `json:"targetType"`
}

type session struct {
	srv     *Server
	conn    *websocket.Conn
	profile domain.Profile
	outbox  *runtime.Outbox
	writeMu sync.Mutex
	once    sync.Once
}

func newSession(srv *Server, conn *websocket.Conn, clientID, name string) *session {
	s := &session{srv: srv, conn: conn}
	if clientID != "" {
		// Unknown ids are registered on the spot; the web client keeps
		// its identity across reconnects this way.
		s.profile = srv.directory.RegisterKnown(clientID, name)
	} else {
		s.profile = srv.service.RegisterUser(name)
	}
	return s
}

func (s *session) run() {
	defer s.teardown()

	s.outbox = runtime.NewOutbox(s.srv.log, func(e contract.Envelope) error {
		return s.writeFrame(outFrame{Type: string(e.Kind), Payload: e.Payload})
	}, s.srv.outboxCapacity)
	s.srv.registry.Subscribe(s.profile.ID, s.outbox)
	go s.outbox.Run()

	s.sendWelcome()
	s.broadcastRoster()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			s.sendError(fmt.Errorf("malformed frame: %v", err))
			return
		}
		s.handle(f)
	}
}

func (s *session) handle(f frame) {
	switch f.Type {
	case "set_name":
		var p namePayload
		if !s.decode(f.Payload, &p) {
			return
		}
		profile, err := s.srv.service.Rename(s.profile.ID, p.Name)
		if err != nil {
			s.sendError(err)
			return
		}
		s.profile = profile
		s.broadcastRoster()

	case "create_group":
		var p groupPayload
		if !s.decode(f.Payload, &p) {
			return
		}
		group, err := s.srv.service.CreateGroup(domain.CreateGroupCommand{
			CreatorID: s.profile.ID,
			Name:      p.Name,
			Members:   p.Members,
		})
		if err != nil {
			s.sendError(err)
			return
		}
		// group_created already went to everyone through the
		// broadcaster; refresh the full group list as well.
		s.srv.broadcaster.EmitToAll(contract.Envelope{
			Kind:    contract.PushGroupsUpdate,
			Payload: s.srv.service.Groups(),
		})
		s.send("group_created", group)

	case "text_message":
		var p targetPayload
		if !s.decode(f.Payload, &p) {
			return
		}
		if _, err := s.srv.service.SendText(domain.SendTextCommand{
			FromID: s.profile.ID,
			ToID:   p.To,
			ToType: p.ToType,
			Text:   p.Text,
		}); err != nil {
			s.sendError(err)
		}

	case "voice_note":
		var p targetPayload
		if !s.decode(f.Payload, &p) {
			return
		}
		data, mime, err := repositories.DecodeDataURI(p.Blob)
		if err != nil {
			s.sendError(err)
			return
		}
		if _, err := s.srv.service.SendAudio(domain.SendAudioCommand{
			FromID: s.profile.ID,
			ToID:   p.To,
			ToType: p.ToType,
			Data:   data,
			Mime:   mime,
		}); err != nil {
			s.sendError(err)
		}

	case "get_history":
		var p historyPayload
		if !s.decode(f.Payload, &p) {
			return
		}
		messages, err := s.srv.service.History(domain.HistoryQuery{
			ViewerID:   s.profile.ID,
			TargetID:   p.TargetID,
			TargetType: p.TargetType,
		})
		if err != nil {
			s.sendError(err)
			return
		}
		s.send("history", messages)

	case "start_call", "end_call":
		var p targetPayload
		if !s.decode(f.Payload, &p) {
			return
		}
		cmd := domain.CallCommand{FromID: s.profile.ID, TargetID: p.To, TargetType: p.ToType}
		var err error
		if f.Type == "start_call" {
			_, err = s.srv.service.StartCall(cmd)
		} else {
			_, err = s.srv.service.EndCall(cmd)
		}
		if err != nil {
			s.sendError(err)
		}

	default:
		s.sendError(fmt.Errorf("unknown frame type: %s", f.Type))
	}
}

func (s *session) decode(raw json.RawMessage, into any) bool {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		s.sendError(fmt.Errorf("malformed payload: %v", err))
		return false
	}
	return true
}

func (s *session) sendWelcome() {
	s.send("welcome", welcomePayload{
		ID:      s.profile.ID,
		Name:    s.profile.DisplayName,
		Clients: s.roster(),
		Groups:  s.srv.service.Groups(),
		History: s.srv.service.AllMessages(),
	})
}

// roster lists every connected client with its display name.
func (s *session) roster() []clientInfo {
	return lo.FilterMap(s.srv.registry.ConnectedIDs(), func(id string, _ int) (clientInfo, bool) {
		profile, ok := s.srv.directory.Lookup(id)
		if !ok {
			return clientInfo{}, false
		}
		return clientInfo{ID: profile.ID, Name: profile.DisplayName}, true
	})
}

func (s *session) broadcastRoster() {
	s.srv.broadcaster.EmitToAll(contract.Envelope{
		Kind:    contract.PushClientsUpdate,
		Payload: s.roster(),
	})
}

func (s *session) send(frameType string, payload any) {
	_ = s.writeFrame(outFrame{Type: frameType, Payload: payload})
}

func (s *session) sendError(err error) {
	s.send("error", map[string]string{"error": err.Error()})
}

// writeFrame is shared by responses and the outbox writer; the mutex is
// what keeps websocket writes single-writer.
func (s *session) writeFrame(f outFrame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(f)
}

func (s *session) teardown() {
	s.once.Do(func() {
		s.srv.registry.Unsubscribe(s.profile.ID)
		if s.outbox != nil {
			s.outbox.Close()
		}
		_ = s.conn.Close()
		s.broadcastRoster()
	})
}
