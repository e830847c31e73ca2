package contract

// PushKind discriminates the asynchronous pushes a connected client
// can receive.
type PushKind string

const (
	PushIncomingMessage PushKind = "incoming_message"
	PushGroupCreated    PushKind = "group_created"
	PushCallEvent       PushKind = "call_event"
	PushClientsUpdate   PushKind = "clients_update"
	PushGroupsUpdate    PushKind = "groups_update"
)

// Envelope is one outbound push on its way to a single client.
type Envelope struct {
	Kind    PushKind
	Payload any
}

// PushSink is the delivery channel of one live connection. Enqueue must
// never block the caller; a false return means the push was dropped
// (queue full or connection gone) and will not be retried.
type PushSink interface {
	Enqueue(e Envelope) bool
}
