package lineproto

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/services"

	"github.com/google/uuid"
)

// maxLineBytes bounds one request line; audio blobs travel base64
// encoded inside it.
const maxLineBytes = 16 << 20

// Session drives one connection through its lifecycle: provisional
// identity on first contact, strictly sequential request handling,
// optional re-keying when the client brings its own id, teardown
// exactly once on every exit path.
type Session struct {
	log       *slog.Logger
	conn      net.Conn
	service   *services.ChatService
	registry  *runtime.Registry
	directory *runtime.Directory

	id      string
	name    string
	outbox  *runtime.Outbox
	writeMu sync.Mutex
	once    sync.Once
}

func NewSession(
	log *slog.Logger,
	conn net.Conn,
	service *services.ChatService,
	registry *runtime.Registry,
	directory *runtime.Directory,
	outboxCapacity int,
) *Session {
	s := &Session{
		log:       log,
		conn:      conn,
		service:   service,
		registry:  registry,
		directory: directory,
	}
	s.outbox = runtime.NewOutbox(log, s.writePush, outboxCapacity)
	return s
}

// Run reads requests until the client leaves, a read fails, the
// protocol is violated, or a request arrives without keepAlive.
func (s *Session) Run() {
	defer s.teardown()

	profile := s.directory.RegisterKnown(uuid.NewString(), "")
	s.id = profile.ID
	s.name = profile.DisplayName
	s.registry.Subscribe(s.id, s.outbox)
	go s.outbox.Run()

	s.log.Debug(fmt.Sprintf("Connection open for %s (%s)", s.name, s.id))

	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 64<<10), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.sendError(fmt.Errorf("%w: %v", errors.ErrMalformedRequest, err))
			return
		}
		s.rekeyIfNeeded(req)
		if err := s.handle(req); err != nil {
			// Payload shape errors kill the connection; everything
			// else was already answered with an error response.
			return
		}
		if !req.KeepAlive {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.log.Debug(fmt.Sprintf("Read loop for %s ended: %v", s.id, err))
	}
}

// rekeyIfNeeded honors an explicit client id: the registry entry under
// the old id goes away and the connection continues under the new one.
func (s *Session) rekeyIfNeeded(req Request) {
	if req.ClientID == "" || req.ClientID == s.id {
		return
	}
	s.registry.Unsubscribe(s.id)
	profile := s.directory.RegisterKnown(req.ClientID, req.ClientName)
	s.id = profile.ID
	s.name = profile.DisplayName
	s.registry.Subscribe(s.id, s.outbox)
	s.log.Debug(fmt.Sprintf("Session re-keyed to %s (%s)", s.name, s.id))
}

func (s *Session) handle(req Request) error {
	switch req.Type {
	case TypeInit:
		return s.respond("welcome", welcomePayload{ID: s.id, Name: s.name})

	case TypeSetName:
		var p setNamePayload
		if err := s.decode(req.Payload, &p); err != nil {
			return err
		}
		profile, err := s.service.Rename(s.id, p.Name)
		if err != nil {
			s.sendError(err)
			return nil
		}
		s.name = profile.DisplayName
		return s.respond("name_set", setNamePayload{Name: profile.DisplayName})

	case TypeCreateGroup:
		var p createGroupPayload
		if err := s.decode(req.Payload, &p); err != nil {
			return err
		}
		group, err := s.service.CreateGroup(domain.CreateGroupCommand{
			CreatorID: s.id,
			Name:      p.Name,
			Members:   p.Members,
		})
		if err != nil {
			s.sendError(err)
			return nil
		}
		return s.respond("group_created", group)

	case TypeTextMessage:
		var p textMessagePayload
		if err := s.decode(req.Payload, &p); err != nil {
			return err
		}
		msg, err := s.service.SendText(domain.SendTextCommand{
			FromID: s.id,
			ToID:   p.To,
			ToType: p.ToType,
			Text:   p.Text,
		})
		if err != nil {
			s.sendError(err)
			return nil
		}
		return s.respond("message_sent", msg)

	case TypeSendAudio:
		var p sendAudioPayload
		if err := s.decode(req.Payload, &p); err != nil {
			return err
		}
		data, mime, err := repositories.DecodeDataURI(p.Blob)
		if err != nil {
			s.sendError(err)
			return nil
		}
		if p.Mime != "" {
			mime = p.Mime
		}
		msg, err := s.service.SendAudio(domain.SendAudioCommand{
			FromID: s.id,
			ToID:   p.To,
			ToType: p.ToType,
			Data:   data,
			Mime:   mime,
		})
		if err != nil {
			s.sendError(err)
			return nil
		}
		return s.respond("message_sent", msg)

	case TypeGetHistory:
		var p historyPayload
		if err := s.decode(req.Payload, &p); err != nil {
			return err
		}
		messages, err := s.service.History(domain.HistoryQuery{
			ViewerID:   s.id,
			TargetID:   p.TargetID,
			TargetType: p.TargetType,
		})
		if err != nil {
			s.sendError(err)
			return nil
		}
		return s.respond("history", historyResponse{Messages: messages})

	case TypeStartCall, TypeEndCall:
		var p callPayload
		if err := s.decode(req.Payload, &p); err != nil {
			return err
		}
		cmd := domain.CallCommand{FromID: s.id, TargetID: p.To, TargetType: p.ToType}
		var event domain.CallEvent
		var err error
		if req.Type == TypeStartCall {
			event, err = s.service.StartCall(cmd)
		} else {
			event, err = s.service.EndCall(cmd)
		}
		if err != nil {
			s.sendError(err)
			return nil
		}
		return s.respond("call_event", event)

	default:
		s.sendError(fmt.Errorf("%w: %s", errors.ErrUnknownRequestType, req.Type))
		return nil
	}
}

// decode answers the client and reports a terminal error when the
// payload does not match the variant's shape.
func (s *Session) decode(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		wrapped := fmt.Errorf("%w: %v", errors.ErrMalformedRequest, err)
		s.sendError(wrapped)
		return wrapped
	}
	return nil
}

func (s *Session) respond(responseType string, payload any) error {
	return s.writeFrame(Response{Type: responseType, Payload: payload})
}

func (s *Session) sendError(err error) {
	_ = s.writeFrame(Response{Type: "error", Payload: errorPayload{Error: err.Error()}})
}

// writePush is the outbox writer; pushes and responses share writeMu so
// frames never interleave on the wire.
func (s *Session) writePush(e contract.Envelope) error {
	return s.writeFrame(Response{Type: string(e.Kind), Payload: e.Payload})
}

func (s *Session) writeFrame(resp Response) error {
	content, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding %s frame: %w", resp.Type, err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err = s.conn.Write(append(content, '\n'))
	return err
}

// teardown runs exactly once whatever path ended the loop.
func (s *Session) teardown() {
	s.once.Do(func() {
		s.registry.Unsubscribe(s.id)
		s.outbox.Close()
		_ = s.conn.Close()
		s.log.Debug(fmt.Sprintf("Connection closed for %s", s.id))
	})
}
