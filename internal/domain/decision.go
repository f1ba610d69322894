package domain

// Verdict is the outcome class of a new-language admission.
type Verdict string

const (
	VerdictApproved   Verdict = "approved"
	VerdictDeferred   Verdict = "deferred"
	VerdictRedirected Verdict = "redirected"
	VerdictRejected   Verdict = "rejected"
)

// Reason is the machine-readable cause attached to non-approved verdicts.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonNoPermission        Reason = "no_permission"
	ReasonModeNone            Reason = "mode_none"
	ReasonFiltered            Reason = "filtered"
	ReasonDuplicate           Reason = "duplicate"
	ReasonUnknownLanguage     Reason = "unknown_language"
	ReasonContact             Reason = "contact"
	ReasonURL                 Reason = "url"
	ReasonInstantiationFailed Reason = "instantiation_failed"
)

// Decision is the per-language result of an admission request. Failures
// travel as decisions, never as errors, so one bad language in a batch
// cannot abort the rest.
type Decision struct {
	Language    string       `json:"language"`
	Verdict     Verdict      `json:"verdict"`
	Reason      Reason       `json:"reason,omitempty"`
	Message     string       `json:"message,omitempty"`
	URL         string       `json:"url,omitempty"`
	Translation *Translation `json:"translation,omitempty"`
}

func (d Decision) Approved() bool { return d.Verdict == VerdictApproved }

func Rejected(code string, reason Reason, message string) Decision {
	return Decision{Language: code, Verdict: VerdictRejected, Reason: reason, Message: message}
}
