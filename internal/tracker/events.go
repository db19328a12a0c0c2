package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event channels.
const (
	EventStageChanged   = "EVENT_STAGE_CHANGED"
	EventCandidateMoved = "EVENT_CANDIDATE_MOVED"
	EventFollowUpDue    = "EVENT_FOLLOW_UP_DUE"
)

// Event is the payload published on every channel.
type Event struct {
	Type        string    `json:"type"`
	CandidateID string    `json:"candidateId"`
	JobID       string    `json:"jobId,omitempty"`
	FromJobID   string    `json:"fromJobId,omitempty"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	Actor       string    `json:"actor,omitempty"`
	At          time.Time `json:"at"`
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// RedisPublisher publishes each event as JSON on the channel named by its
// type.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher returns a Publisher backed by rdb.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Type, err)
	}
	if err := p.rdb.Publish(ctx, e.Type, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
