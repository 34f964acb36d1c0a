package model

import "time"

// EventType is the wire name of a progress event (§6).
type EventType string

const (
	EventReviewStarted        EventType = "review_started"
	EventCheckStarted         EventType = "check_started"
	EventCheckCompleted       EventType = "check_completed"
	EventValidationStarted    EventType = "validation_started"
	EventValidationCompleted  EventType = "validation_completed"
	EventReviewerStarted      EventType = "reviewer_started"
	EventReviewerCompleted    EventType = "reviewer_completed"
	EventReviewCompleted      EventType = "review_completed"
	EventReviewFailed         EventType = "review_failed"

	EventGradeStarted         EventType = "grade_started"
	EventCloningStarted       EventType = "cloning_started"
	EventCloningCompleted     EventType = "cloning_completed"
	EventAnalysisStarted      EventType = "analysis_started"
	EventAnalysisCompleted    EventType = "analysis_completed"
	EventTaskStarted          EventType = "task_started"
	EventCriterionChecked     EventType = "criterion_checked"
	EventTaskCompleted        EventType = "task_completed"
	EventGradeCompleted       EventType = "grade_completed"
	EventGradeFailed          EventType = "grade_failed"

	// EventLagged is a synthetic, internal-only marker delivered to a
	// subscriber that fell behind the bus's backlog (§4.3). It is never
	// part of the wire taxonomy in §6 but is observable via Event.Type by
	// callers that want to detect drops.
	EventLagged EventType = "_lagged"
)

// IsTerminal reports whether this event type ends a job's event stream.
func (t EventType) IsTerminal() bool {
	switch t {
	case EventReviewCompleted, EventReviewFailed, EventGradeCompleted, EventGradeFailed:
		return true
	}
	return false
}

func (t EventType) String() string {
	return string(t)
}

// Event is one message on a job's EventBus. Payload is variant-specific
// (§4) and always includes JobID/TimestampMS via the envelope fields.
type Event struct {
	Type        EventType      `json:"type"`
	JobID       string         `json:"job_id"`
	TimestampMS int64          `json:"timestamp_ms"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// NewEvent stamps the envelope fields and returns an Event carrying payload.
// now is passed in explicitly so event construction stays deterministic and
// testable (no direct time.Now() calls scattered through the pipeline).
func NewEvent(now time.Time, jobID string, t EventType, payload map[string]any) Event {
	return Event{
		Type:        t,
		JobID:       jobID,
		TimestampMS: now.UnixMilli(),
		Payload:     payload,
	}
}
