package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sfd-mhrana/notion-clone-sub001/internal/domain"
)

const eventChannelPrefix = "mutations:"

// EventPublisher fans committed mutation events out over redis pub/sub, one
// channel per workspace. The realtime broadcaster and the search indexer
// subscribe; neither owns tree state.
type EventPublisher struct {
	client *Client
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(client *Client) *EventPublisher {
	return &EventPublisher{client: client}
}

// Publish sends a mutation event to the workspace's channel
func (p *EventPublisher) Publish(ctx context.Context, event *domain.MutationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := fmt.Sprintf("%s%s", eventChannelPrefix, event.WorkspaceID.String())
	if err := p.client.rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
