package approval

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"draft", StatusDraft},
		{"submitted", StatusSubmitted},
		{"hr_review", StatusHRReview},
		{"manager_review", StatusManagerReview},
		{"factory_review", StatusFactoryReview},
		{"final_approved", StatusFinalApproved},
		{"final_rejected", StatusFinalRejected},
		// legacy plain-string value
		{"approved", StatusFinalApproved},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.raw)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseStatusUnknown(t *testing.T) {
	for _, raw := range []string{"", "pending", "APPROVED", "done"} {
		_, err := ParseStatus(raw)
		if !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("ParseStatus(%q) error = %v, want ErrInvalidStatus", raw, err)
		}
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusFactoryRejected.Valid() {
		t.Error("factory_rejected should be a valid status")
	}
	if Status("approved").Valid() {
		t.Error("legacy value should not be valid without parsing")
	}
}
