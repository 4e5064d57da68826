// Package relay correlates inbound Telegram replies with the outbound
// messages they answer and resolves bounded waits for them.
package relay

import "time"

type Status string

const (
	StatusSent    Status = "sent"
	StatusReplied Status = "replied"
	StatusTimeout Status = "timeout"
)

// Terminal reports whether s is an end state. Terminal statuses never
// change again.
func (s Status) Terminal() bool {
	return s == StatusReplied || s == StatusTimeout
}

type ReplyState string

const (
	ReplyPending  ReplyState = "pending"
	ReplyConsumed ReplyState = "consumed"
)

// OutboundMessage is a message this process sent, keyed by the id Telegram
// assigned to it.
type OutboundMessage struct {
	ID     int64     `json:"id"`
	ChatID string    `json:"chat_id"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
	Status Status    `json:"status"`
}

// InboundReply is a user message that replied to one of ours.
type InboundReply struct {
	TargetMessageID int64      `json:"target_message_id"`
	ChatID          string     `json:"chat_id,omitempty"`
	Text            string     `json:"text"`
	ReceivedAt      time.Time  `json:"received_at"`
	State           ReplyState `json:"state"`
	UpdateID        int64      `json:"update_id"`
	From            string     `json:"from,omitempty"`
}
