package domain

import "time"

type Job struct {
	ID          int64     `json:"-"`
	PublicID    string    `json:"id"`
	Type        string    `json:"type"`   // reconcile
	Status      string    `json:"status"` // queued, running, done, failed, canceled
	ComponentID *int64    `json:"component_id"`
	ParamsRaw   string    `json:"params_json"`
	ResultRaw   string    `json:"result_json"`
	Error       string    `json:"error,omitempty"`
	Progress    int       `json:"progress"`
	Total       int       `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type JobLog struct {
	ID      int64     `json:"id"`
	JobID   int64     `json:"job_id"`
	Time    time.Time `json:"ts"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}
