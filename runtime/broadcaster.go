package runtime

import (
	"log/slog"

	"chat-hub/contract"
	"chat-hub/domain"

	"github.com/samber/lo"
)

// GroupFinder is the slice of the group directory the broadcaster
// needs for recipient resolution.
type GroupFinder interface {
	Find(id string) (domain.Group, bool)
}

// Broadcaster resolves recipients and fans pushes out to their live
// connections. Everything here is best effort: offline recipients are
// skipped, failed pushes are dropped by the sink, and nothing ever
// blocks the request path because sinks enqueue without blocking.
type Broadcaster struct {
	log      *slog.Logger
	registry *Registry
	groups   GroupFinder
}

func NewBroadcaster(log *slog.Logger, registry *Registry, groups GroupFinder) *Broadcaster {
	return &Broadcaster{log: log, registry: registry, groups: groups}
}

// ResolveRecipients expands a target into user ids. A user target
// yields sender and target (sender always sees its own send, once). An
// unknown group falls back to the sender alone rather than erroring.
func (b *Broadcaster) ResolveRecipients(targetType domain.TargetType, targetID, senderID string) []string {
	switch targetType {
	case domain.TargetGroup:
		if group, ok := b.groups.Find(targetID); ok {
			return group.Members
		}
		return []string{senderID}
	default:
		return lo.Uniq([]string{senderID, targetID})
	}
}

// EmitMessage pushes the message to every recipient with a live
// connection. Each delivery rides that connection's own outbox, so one
// dead peer cannot delay another.
func (b *Broadcaster) EmitMessage(msg domain.Message, recipients []string) {
	b.emit(contract.Envelope{Kind: contract.PushIncomingMessage, Payload: msg}, recipients)
}

// EmitCallEvent routes a transient signaling event; nothing persists.
func (b *Broadcaster) EmitCallEvent(event domain.CallEvent, recipients []string) {
	b.emit(contract.Envelope{Kind: contract.PushCallEvent, Payload: event}, recipients)
}

// EmitGroupCreated notifies every currently connected client, members
// or not. Historic behavior, kept on purpose.
func (b *Broadcaster) EmitGroupCreated(group domain.Group) {
	b.EmitToAll(contract.Envelope{Kind: contract.PushGroupCreated, Payload: group})
}

// EmitToAll pushes one envelope to the whole connected population.
func (b *Broadcaster) EmitToAll(e contract.Envelope) {
	for _, sink := range b.registry.Sinks() {
		sink.Enqueue(e)
	}
}

func (b *Broadcaster) emit(e contract.Envelope, recipients []string) {
	for _, recipient := range recipients {
		sink, ok := b.registry.Lookup(recipient)
		if !ok {
			continue
		}
		sink.Enqueue(e)
	}
}
