package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

const profileSavedEvent = "profile.saved"

// profileMessage is the event-stream payload. Messages are keyed by profile
// id so a compacted topic keeps the latest copy of every profile.
type profileMessage struct {
	Type        string            `json:"type"`
	ProfileID   string            `json:"profile_id"`
	Email       string            `json:"email"`
	Slug        string            `json:"slug"`
	DisplayName string            `json:"display_name"`
	Attributes  map[string]string `json:"attributes"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// StreamSink publishes every saved profile to an event stream.
type StreamSink struct {
	publisher ports.EventPublisher
}

func NewStreamSink(publisher ports.EventPublisher) *StreamSink {
	return &StreamSink{publisher: publisher}
}

func (s *StreamSink) Name() string { return domain.SinkEventStream }

func (s *StreamSink) OnProfileSaved(ctx context.Context, p *domain.Profile) error {
	payload, err := json.Marshal(profileMessage{
		Type:        profileSavedEvent,
		ProfileID:   p.ID,
		Email:       p.Email,
		Slug:        p.PublicSlug(),
		DisplayName: p.DisplayName,
		Attributes:  domain.Flatten(p),
		UpdatedAt:   p.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode profile message: %w", err)
	}
	if err := s.publisher.Publish(ctx, p.ID, payload); err != nil {
		return fmt.Errorf("publish profile: %w", err)
	}
	return nil
}
