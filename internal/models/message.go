package models

import "time"

// Message types accepted by the relay.
const (
	TypePublic  = "message"
	TypePrivate = "private_message"
	TypeStatus  = "status"
)

// Message is a single relay event: a user message or a system status notice.
type Message struct {
	ID   int       `db:"id" json:"id"`
	From string    `db:"from_name" json:"from"`
	To   string    `db:"to_name" json:"to"`
	Text string    `db:"text" json:"text"`
	Type string    `db:"type" json:"type"`
	Time time.Time `db:"created_at" json:"-"`
}

// Stamp renders the wall-clock time the way clients display it.
func (m Message) Stamp() string {
	return m.Time.Format("15:04:05")
}

// ValidType reports whether t is one of the accepted message types.
func ValidType(t string) bool {
	return t == TypePublic || t == TypePrivate || t == TypeStatus
}

// RelayEvent is broadcasted through websockets.
type RelayEvent struct {
	Type        string   `json:"type"`
	Message     *Message `json:"message,omitempty"`
	Participant string   `json:"participant,omitempty"`
}
