package lineproto

import (
	"encoding/json"

	"chat-hub/domain"
)

// RequestType is the closed set of line-protocol request variants.
// Anything else gets an explicit error response.
type RequestType string

const (
	TypeInit        RequestType = "init"
	TypeSetName     RequestType = "set_name"
	TypeCreateGroup RequestType = "create_group"
	TypeTextMessage RequestType = "text_message"
	TypeSendAudio   RequestType = "send_audio"
	TypeGetHistory  RequestType = "get_history"
	TypeStartCall   RequestType = "start_call"
	TypeEndCall     RequestType = "end_call"
)

// Request is one line of the protocol: a type tag, an opaque payload
// decoded per variant, optional client identity for session takeover,
// and the keep-alive flag deciding whether the loop continues after the
// response.
type Request struct {
	Type       RequestType     `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	ClientID   string          `json:"clientId,omitempty"`
	ClientName string          `json:"clientName,omitempty"`
	KeepAlive  bool            `json:"keepAlive,omitempty"`
}

// Response mirrors Request on the way back; pushes reuse the same
// frame with a push type.
type Response struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type setNamePayload struct {
	Name string `json:"name"`
}

type createGroupPayload struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type textMessagePayload struct {
	To     string            `json:"to"`
	ToType domain.TargetType `json:"toType"`
	Text   string            `json:"text"`
}

type sendAudioPayload struct {
	To     string            `json:"to"`
	ToType domain.TargetType `json:"toType"`
	Blob   string            `json:"blobBase64"`
	Mime   string            `json:"mimeType"`
}

type historyPayload struct {
	TargetID   string            `json:"targetId"`
	TargetType domain.TargetType `json:"targetType"`
}

type callPayload struct {
	To     string            `json:"to"`
	ToType domain.TargetType `json:"toType"`
}

type welcomePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type errorPayload struct {
	Error string `json:"error"`
}

type historyResponse struct {
	Messages []domain.Message `json:"messages"`
}
