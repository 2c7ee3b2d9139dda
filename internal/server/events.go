package server

import (
	"encoding/json"
	"log"

	"github.com/emark-cloud/caption-this/internal/db"

	"github.com/google/uuid"
)

const (
	eventRoundCreated     = "round_created"
	eventCaptionSubmitted = "caption_submitted"
	eventRoundCancelled   = "round_cancelled"
	eventRoundResolved    = "round_resolved"
)

// publishEvent appends an audit row (best effort) and pushes the event
// to the live feed. Event persistence never fails the triggering write.
func (s *Server) publishEvent(eventType, roundID string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["round_id"] = roundID

	if s.db != nil {
		encoded, err := json.Marshal(payload)
		if err == nil {
			record := db.RoundEvent{
				EventID: uuid.NewString(),
				RoundID: roundID,
				Type:    eventType,
				Payload: encoded,
			}
			if err := s.db.Create(&record).Error; err != nil {
				log.Printf("event persist failed type=%s round_id=%s: %v", eventType, roundID, err)
			}
		}
	}

	s.feed.Broadcast(map[string]any{
		"type": eventType,
		"data": payload,
	})
}
