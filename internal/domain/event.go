package domain

import "time"

const (
	EventLanguageAdded      = "language.added"
	EventLanguageRequested  = "language.requested"
	EventTranslationRemoved = "translation.removed"
	EventReconcileCompleted = "reconcile.completed"
)

// Event is the payload handed to notifiers and the live event stream.
type Event struct {
	Kind      string    `json:"kind"`
	Project   string    `json:"project"`
	Component string    `json:"component"`
	Language  string    `json:"language,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Message   string    `json:"message,omitempty"`
	Time      time.Time `json:"time"`
}
