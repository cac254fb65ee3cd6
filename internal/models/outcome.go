package models

// OutcomeKind classifies the result of submitting one folder batch.
type OutcomeKind string

const (
	OutcomeAccepted       OutcomeKind = "accepted"
	OutcomeRejected       OutcomeKind = "rejected"
	OutcomeProtocolError  OutcomeKind = "protocol-error"
	OutcomeTransportError OutcomeKind = "transport-error"
	OutcomeSkipped        OutcomeKind = "skipped"
	OutcomeDryRun         OutcomeKind = "dry-run"
)

// SubmissionOutcome is the interpreted response for one batch.
type SubmissionOutcome struct {
	Kind          OutcomeKind `json:"kind"`
	Status        *int        `json:"status,omitempty"`
	HTTPStatus    int         `json:"http_status,omitempty"`
	RequestID     string      `json:"request_id,omitempty"`
	Accepted      []string    `json:"accepted,omitempty"`
	Rejected      []string    `json:"rejected,omitempty"`
	AlreadyExists []string    `json:"already_exists,omitempty"`
	Messages      []string    `json:"messages,omitempty"`
	Err           error       `json:"-"`
}

// IsError reports whether the submission failed before the remote side
// could classify the records.
func (o SubmissionOutcome) IsError() bool {
	return o.Kind == OutcomeProtocolError || o.Kind == OutcomeTransportError
}

// Stats converts the outcome to counters.
func (o SubmissionOutcome) Stats() FolderStats {
	return FolderStats{
		Accepted:   len(o.Accepted),
		Rejected:   len(o.Rejected),
		Duplicates: len(o.AlreadyExists),
	}
}
