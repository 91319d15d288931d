package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Common event types. Any non-empty type invalidates the caches.
const (
	EventEntityCreated = "entity.created"
	EventEntityUpdated = "entity.updated"
	EventEntityDeleted = "entity.deleted"
	EventEdgeChanged   = "edge.changed"
	EventCacheCleared  = "cache.cleared"
)

// Event announces a write to the canon graph.
type Event struct {
	Type      string   `json:"type"`
	EntityIDs []string `json:"entityIds,omitempty"`
}

var ErrMalformedEvent = errors.New("malformed canon event")

func (e Event) RoutingKey() string {
	return "canon." + e.Type
}

func (e Event) Encode() ([]byte, error) {
	if strings.TrimSpace(e.Type) == "" {
		return nil, fmt.Errorf("%w: empty type", ErrMalformedEvent)
	}
	return json.Marshal(e)
}

// DecodeEvent parses a message body. Producers written by hand tend to send
// slightly broken JSON or a JSON string wrapping the object, both of which
// are accepted.
func DecodeEvent(body []byte) (Event, error) {
	var event Event
	if err := unmarshalFlexible(string(body), &event); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	event.Type = strings.TrimSpace(event.Type)
	if event.Type == "" {
		return Event{}, fmt.Errorf("%w: empty type", ErrMalformedEvent)
	}
	return event, nil
}

func unmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return errors.New("empty body")
	}
	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("unmarshal failed after repair: %w", err)
	}
	return nil
}
