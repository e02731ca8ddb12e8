package approval

import "fmt"

// Status is the lifecycle status of an evaluation document.
//
// Only Draft, Submitted, FactoryReview and FinalApproved participate in the
// forward approval chain (see chain.go). The remaining values are part of
// the stored taxonomy: they parse, they round-trip, and the legacy
// stage-by-stage workflow on EvaluationService still produces some of them,
// but the chain defines no transition out of them.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"

	StatusHRReview   Status = "hr_review"
	StatusHRApproved Status = "hr_approved"
	StatusHRRejected Status = "hr_rejected"

	StatusManagerReview   Status = "manager_review"
	StatusManagerApproved Status = "manager_approved"
	StatusManagerRejected Status = "manager_rejected"

	StatusFactoryReview   Status = "factory_review"
	StatusFactoryApproved Status = "factory_approved"
	StatusFactoryRejected Status = "factory_rejected"

	StatusFinalApproved Status = "final_approved"
	StatusFinalRejected Status = "final_rejected"
)

var validStatuses = map[Status]bool{
	StatusDraft:           true,
	StatusSubmitted:       true,
	StatusHRReview:        true,
	StatusHRApproved:      true,
	StatusHRRejected:      true,
	StatusManagerReview:   true,
	StatusManagerApproved: true,
	StatusManagerRejected: true,
	StatusFactoryReview:   true,
	StatusFactoryApproved: true,
	StatusFactoryRejected: true,
	StatusFinalApproved:   true,
	StatusFinalRejected:   true,
}

// legacyStatuses maps plain-string statuses written by the pre-workflow
// code to their enumerated equivalents.
var legacyStatuses = map[string]Status{
	"draft":     StatusDraft,
	"submitted": StatusSubmitted,
	"approved":  StatusFinalApproved,
}

// Valid reports whether s is a member of the status taxonomy.
func (s Status) Valid() bool {
	return validStatuses[s]
}

// ParseStatus converts a stored status string into a Status. Legacy values
// are mapped once here; callers never re-check afterwards. An unknown value
// yields ErrInvalidStatus and the document must be treated as corrupt.
func ParseStatus(raw string) (Status, error) {
	if s := Status(raw); s.Valid() {
		return s, nil
	}
	if s, ok := legacyStatuses[raw]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}
