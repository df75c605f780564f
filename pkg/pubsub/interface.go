package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventIdentifiersGenerated is published after a batch has been committed.
const EventIdentifiersGenerated = "identifiers_generated"

// ChannelGenerated is the per-source channel generation events go to.
const ChannelGenerated = "idgen:source:%d:generated"

// GeneratedChannel returns the channel name for a source.
func GeneratedChannel(sourceID int64) string {
	return fmt.Sprintf(ChannelGenerated, sourceID)
}

// Event represents a message published to the event bus.
type Event struct {
	Type      string          `json:"type"`
	SourceID  int64           `json:"source_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType string, sourceID int64, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		SourceID:  sourceID,
		Payload:   data,
		Timestamp: time.Now(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into the given struct.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// GeneratedPayload describes one committed batch.
type GeneratedPayload struct {
	SourceID    int64    `json:"source_id"`
	SourceName  string   `json:"source_name"`
	FirstSeed   int64    `json:"first_seed"`
	Identifiers []string `json:"identifiers"`
	LocationID  *int64   `json:"location_id,omitempty"`
}

// Publisher publishes events to the event bus.
type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
	Close() error
}

// channelToTopicAndKey converts a channel to a Kafka topic and message key.
//
//	"idgen:source:42:generated" → topic: "idgen-generated", key: "42"
func channelToTopicAndKey(channel string) (topic, key string, err error) {
	parts := strings.Split(channel, ":")
	if len(parts) != 4 || parts[1] != "source" {
		return "", "", fmt.Errorf("invalid channel format: %s", channel)
	}
	if _, err := strconv.ParseInt(parts[2], 10, 64); err != nil {
		return "", "", fmt.Errorf("invalid source id in channel %s: %w", channel, err)
	}
	return parts[0] + "-" + parts[3], parts[2], nil
}
