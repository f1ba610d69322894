package domain

// SkippedCode records a discovered file the reconciler could not act on.
type SkippedCode struct {
	Code   string `json:"code"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ReconcileReport summarizes one reconciliation pass over a component.
type ReconcileReport struct {
	Created   []*Translation `json:"created"`
	Removed   []*Translation `json:"removed"`
	Unchanged int            `json:"unchanged"`
	Skipped   []SkippedCode  `json:"skipped,omitempty"`   // codes with no matching language
	Conflicts []SkippedCode  `json:"conflicts,omitempty"` // codes losing a language slot to an earlier file
}

// Empty reports whether the pass changed nothing.
func (r *ReconcileReport) Empty() bool {
	return len(r.Created) == 0 && len(r.Removed) == 0
}
