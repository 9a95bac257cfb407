package audit

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
)

// Recorder appends audit events. Recording is best-effort: a failed write is
// logged and never fails the request that triggered it.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

type recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) Recorder { return &recorder{repo: repo} }

func (s *recorder) Record(ctx context.Context, e Event) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if err := s.repo.Insert(ctx, &e); err != nil {
		log.Printf("audit: failed to record %s on %s/%s: %v", e.Action, e.ResourceType, e.ResourceID, err)
	}
}

// Detail marshals key/value detail for an event, ignoring marshal errors
// (the detail payload is informational).
func Detail(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
