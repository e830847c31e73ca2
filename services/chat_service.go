package services

import (
	"fmt"
	"log/slog"

	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
	"chat-hub/runtime"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var validate = validator.New()

// ChatService is the typed call surface of the backend. Both transports
// dispatch into it; it validates, persists, then routes pushes, in that
// order, so a validation failure never leaves a persistence side
// effect.
type ChatService struct {
	log         *slog.Logger
	directory   *runtime.Directory
	groups      *repositories.GroupRepository
	messages    *repositories.MessageRepository
	media       *repositories.MediaStore
	broadcaster *runtime.Broadcaster
}

func NewChatService(
	log *slog.Logger,
	directory *runtime.Directory,
	groups *repositories.GroupRepository,
	messages *repositories.MessageRepository,
	media *repositories.MediaStore,
	broadcaster *runtime.Broadcaster,
) *ChatService {
	return &ChatService{
		log:         log,
		directory:   directory,
		groups:      groups,
		messages:    messages,
		media:       media,
		broadcaster: broadcaster,
	}
}

// RegisterUser creates a fresh ephemeral identity.
func (s *ChatService) RegisterUser(desiredName string) domain.Profile {
	profile := s.directory.Register(desiredName)
	s.log.Info(fmt.Sprintf("Registered user %s (%s)", profile.DisplayName, profile.ID))
	return profile
}

// CreateGroup dedupes the member list, always includes the creator,
// persists the group and announces it to every connected client.
func (s *ChatService) CreateGroup(cmd domain.CreateGroupCommand) (domain.Group, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Group{}, err
	}
	if _, err := s.directory.Ensure(cmd.CreatorID); err != nil {
		return domain.Group{}, err
	}
	id := uuid.NewString()
	name := cmd.Name
	if name == "" {
		name = "Group-" + id[:4]
	}
	group := domain.Group{
		ID:      id,
		Name:    name,
		Members: lo.Uniq(append(append([]string{}, cmd.Members...), cmd.CreatorID)),
	}
	if err := s.groups.Insert(group); err != nil {
		return domain.Group{}, err
	}
	s.broadcaster.EmitGroupCreated(group)
	return group, nil
}

// FindGroup never errors; absence is an ordinary outcome.
func (s *ChatService) FindGroup(id string) (domain.Group, bool) {
	return s.groups.Find(id)
}

// Groups returns every known group.
func (s *ChatService) Groups() []domain.Group {
	return s.groups.All()
}

// SendText persists a text message and fans it out best effort.
func (s *ChatService) SendText(cmd domain.SendTextCommand) (domain.Message, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Message{}, err
	}
	author, err := s.directory.Ensure(cmd.FromID)
	if err != nil {
		return domain.Message{}, err
	}
	msg := domain.NewTextMessage(author, cmd.ToID, cmd.ToType, cmd.Text)
	if err := s.messages.Append(msg); err != nil {
		return domain.Message{}, err
	}
	s.emit(msg)
	return msg, nil
}

// SendAudio stores the blob, persists a message referencing it as a
// data URI and fans it out like any other message.
func (s *ChatService) SendAudio(cmd domain.SendAudioCommand) (domain.Message, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Message{}, err
	}
	author, err := s.directory.Ensure(cmd.FromID)
	if err != nil {
		return domain.Message{}, err
	}
	ref, mime, err := s.media.SaveAudio(cmd.Data, cmd.Mime)
	if err != nil {
		return domain.Message{}, err
	}
	msg := domain.NewAudioMessage(author, cmd.ToID, cmd.ToType, ref, mime)
	if err := s.messages.Append(msg); err != nil {
		return domain.Message{}, err
	}
	s.emit(msg)
	return msg, nil
}

// History retrieves the conversation between the viewer and a target,
// or the full feed of a group id, membership not checked.
func (s *ChatService) History(q domain.HistoryQuery) ([]domain.Message, error) {
	if err := validateCommand(q); err != nil {
		return nil, err
	}
	if _, err := s.directory.Ensure(q.ViewerID); err != nil {
		return nil, err
	}
	return s.messages.History(q.ViewerID, q.TargetID, q.TargetType), nil
}

// AllMessages exposes the full log snapshot (welcome payloads, tooling).
func (s *ChatService) AllMessages() []domain.Message {
	return s.messages.All()
}

// StartCall emits a transient start event to the resolved recipients.
func (s *ChatService) StartCall(cmd domain.CallCommand) (domain.CallEvent, error) {
	return s.signal(domain.CallStart, cmd)
}

// EndCall emits the matching end event. No call state is tracked, so an
// end without a start passes through untouched.
func (s *ChatService) EndCall(cmd domain.CallCommand) (domain.CallEvent, error) {
	return s.signal(domain.CallEnd, cmd)
}

// Rename changes a display name and returns the updated profile.
func (s *ChatService) Rename(userID, name string) (domain.Profile, error) {
	return s.directory.Rename(userID, name)
}

func (s *ChatService) signal(eventType domain.CallEventType, cmd domain.CallCommand) (domain.CallEvent, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.CallEvent{}, err
	}
	caller, err := s.directory.Ensure(cmd.FromID)
	if err != nil {
		return domain.CallEvent{}, err
	}
	event := domain.CallEvent{
		Type:       eventType,
		FromID:     caller.ID,
		FromName:   caller.DisplayName,
		TargetID:   cmd.TargetID,
		TargetType: cmd.TargetType,
	}
	recipients := s.broadcaster.ResolveRecipients(cmd.TargetType, cmd.TargetID, caller.ID)
	s.broadcaster.EmitCallEvent(event, recipients)
	return event, nil
}

func (s *ChatService) emit(msg domain.Message) {
	recipients := s.broadcaster.ResolveRecipients(msg.ToType, msg.ToID, msg.FromID)
	s.broadcaster.EmitMessage(msg, recipients)
}

func validateCommand(cmd any) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}
	return nil
}
