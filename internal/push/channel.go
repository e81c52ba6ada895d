// Package push delivers a single message to one connected session. Delivery
// is fire-and-forget; callers isolate failures per call.
package push

import "context"

// Channel sends a payload to the session behind address, tagged with a
// destination the client subscribes to.
type Channel interface {
	SendToUser(ctx context.Context, address, destination, payload string) error
	Name() string
}
