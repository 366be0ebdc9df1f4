package domain

import (
	"strings"
	"time"
)

type MessageType string

const (
	MessageStart     MessageType = "start"
	MessageFinish    MessageType = "finish"
	MessageEventInfo MessageType = "event_info"
)

var MessageTypes = []MessageType{MessageStart, MessageFinish, MessageEventInfo}

func ParseMessageType(s string) (MessageType, bool) {
	for _, t := range MessageTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

type SystemMessage struct {
	Type      MessageType `json:"type"`
	Text      string      `json:"text"`
	ImageRef  string      `json:"image_ref,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (m SystemMessage) Render(username string) string {
	return strings.ReplaceAll(m.Text, "{username}", username)
}

var DefaultMessages = map[MessageType]SystemMessage{
	MessageStart:     {Type: MessageStart, Text: "Hi, {username}! Please answer a few questions."},
	MessageFinish:    {Type: MessageFinish, Text: "Thank you, {username}! Your answers have been saved."},
	MessageEventInfo: {Type: MessageEventInfo, Text: "Stay tuned for event updates."},
}
