package models

import "time"

// Session is a live connection owned by the session registry. This subsystem
// only reads sessions; connect/disconnect churn happens elsewhere, so any
// listing is a best-effort snapshot.
type Session struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"userId"`
	Address      string    `json:"address"` // opaque delivery address for the push channel
	ConnectedAt  time.Time `json:"connectedAt"`
	LastActivity time.Time `json:"lastActivity,omitempty"`
}
