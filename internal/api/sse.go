package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"langsync/internal/domain"
)

// handleJobEvents streams job state over SSE until the job reaches a
// terminal status or the client goes away. State is polled from the
// store, so the stream also works for jobs started on another node
// sharing the database.
func (h *Handler) handleJobEvents(w http.ResponseWriter, r *http.Request, job *domain.Job) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	send := func(j *domain.Job) {
		data, err := json.Marshal(j)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	send(job)
	if jobTerminal(job.Status) {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	last := jobFingerprint(job)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			j, err := h.d.Jobs.GetByPublicID(r.Context(), job.PublicID)
			if err != nil || j == nil {
				return
			}
			if fp := jobFingerprint(j); fp != last {
				last = fp
				send(j)
			}
			if jobTerminal(j.Status) {
				return
			}
		}
	}
}

func jobTerminal(status string) bool {
	switch status {
	case "done", "failed", "canceled":
		return true
	}
	return false
}

func jobFingerprint(j *domain.Job) string {
	return fmt.Sprintf("%s/%d", j.Status, j.Progress)
}
