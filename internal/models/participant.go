package models

import "time"

// Broadcast is the reserved recipient meaning "visible to everyone".
const Broadcast = "Todos"

// Participant is a registered chat identity with a liveness timestamp.
type Participant struct {
	Name          string    `db:"name" json:"name"`
	LastHeartbeat time.Time `db:"last_heartbeat" json:"lastStatus"`
}
