// Package realtime owns websocket connections: their lifecycle, presence
// broadcasts and the delivery of server events to connected users.
package realtime

import "encoding/json"

const (
	EventActiveUsers    = "activeUsers"
	EventUserRegistered = "userRegistered"
	EventUserConnected  = "userConnected"
	EventGroupAdded     = "groupAdded"
	EventNewMessage     = "newMessage"
)

// Event is one server->client frame.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

type ActiveUsers struct {
	ActiveUsers []string `json:"activeUsers"`
}

// Envelope is an encoded event addressed to one username, or to everyone
// when Target is empty. It is what travels through the fan-out.
type Envelope struct {
	Target  string          `json:"target,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

func encode(target string, ev Event) (Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Target: target, Payload: payload}, nil
}
