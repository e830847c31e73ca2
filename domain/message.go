// Package domain contains core concepts of the chat system.
// Types here are passive values; runtime, network, and storage
// logic live elsewhere.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TargetType tells whether an id addresses a single user or a group.
type TargetType string

const (
	TargetUser  TargetType = "user"
	TargetGroup TargetType = "group"
)

func (t TargetType) Valid() bool {
	return t == TargetUser || t == TargetGroup
}

// MessageKind discriminates the payload of a Message.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindAudio MessageKind = "audio"
)

// Message is an immutable chat event. Exactly one payload field is
// populated: Text for KindText, MediaRef+MediaMime for KindAudio.
// JSON tags match the on-disk and wire layout.
type Message struct {
	ID        string      `json:"id"`
	FromID    string      `json:"from"`
	FromName  string      `json:"fromName"`
	ToID      string      `json:"to"`
	ToType    TargetType  `json:"toType"`
	Kind      MessageKind `json:"kind"`
	Text      string      `json:"text,omitempty"`
	MediaRef  string      `json:"audioFile,omitempty"`
	MediaMime string      `json:"mimeType,omitempty"`
	SentAt    int64       `json:"ts"`
}

// NewTextMessage stamps a fresh id and the current time in unix millis.
func NewTextMessage(author Profile, toID string, toType TargetType, text string) Message {
	return Message{
		ID:       uuid.NewString(),
		FromID:   author.ID,
		FromName: author.DisplayName,
		ToID:     toID,
		ToType:   toType,
		Kind:     KindText,
		Text:     text,
		SentAt:   time.Now().UnixMilli(),
	}
}

// NewAudioMessage carries a self-contained media reference (a data URI)
// rather than the blob itself.
func NewAudioMessage(author Profile, toID string, toType TargetType, mediaRef, mediaMime string) Message {
	return Message{
		ID:        uuid.NewString(),
		FromID:    author.ID,
		FromName:  author.DisplayName,
		ToID:      toID,
		ToType:    toType,
		Kind:      KindAudio,
		MediaRef:  mediaRef,
		MediaMime: mediaMime,
		SentAt:    time.Now().UnixMilli(),
	}
}
