package domain

// CallEventType is either the start or the end of a call attempt.
type CallEventType string

const (
	CallStart CallEventType = "start"
	CallEnd   CallEventType = "end"
)

// CallEvent is a transient signaling event. It is routed like a message
// but never persisted, and no call state is tracked around it.
type CallEvent struct {
	Type       CallEventType `json:"type"`
	FromID     string        `json:"from"`
	FromName   string        `json:"fromName"`
	TargetID   string        `json:"targetId"`
	TargetType TargetType    `json:"targetType"`
}
