package approval

import "testing"

func TestCurrentStep(t *testing.T) {
	tests := []struct {
		status Status
		want   Role
		ok     bool
	}{
		{StatusSubmitted, RoleHR, true},
		{StatusFactoryReview, RoleFactoryManager, true},
		{StatusFinalApproved, RoleFinal, true},
		{StatusDraft, "", false},
		{StatusHRReview, "", false},
		{StatusManagerReview, "", false},
		{StatusFactoryApproved, "", false},
		{StatusFinalRejected, "", false},
	}
	for _, tt := range tests {
		got, ok := CurrentStep(tt.status)
		if ok != tt.ok || got != tt.want {
			t.Errorf("CurrentStep(%q) = (%q, %v), want (%q, %v)", tt.status, got, ok, tt.want, tt.ok)
		}
	}
}

func TestApproveStatus(t *testing.T) {
	allStatuses := []Status{
		StatusDraft, StatusSubmitted,
		StatusHRReview, StatusHRApproved, StatusHRRejected,
		StatusManagerReview, StatusManagerApproved, StatusManagerRejected,
		StatusFactoryReview, StatusFactoryApproved, StatusFactoryRejected,
		StatusFinalApproved, StatusFinalRejected,
	}

	forward := map[Status]Status{
		StatusSubmitted:     StatusFactoryReview,
		StatusFactoryReview: StatusFinalApproved,
	}

	for _, s := range allStatuses {
		got, ok := ApproveStatus(s)
		want, wantOK := forward[s]
		if ok != wantOK || got != want {
			t.Errorf("ApproveStatus(%q) = (%q, %v), want (%q, %v)", s, got, ok, want, wantOK)
		}
	}
}

func TestCanApprove(t *testing.T) {
	if !CanApprove(StatusSubmitted, RoleHR) {
		t.Error("HR should approve a submitted document")
	}
	if CanApprove(StatusSubmitted, RoleFactoryManager) {
		t.Error("factory manager should not approve a submitted document")
	}
	if CanApprove(StatusSubmitted, RoleManager) {
		t.Error("generic manager never approves")
	}
	if !CanApprove(StatusFactoryReview, RoleFactoryManager) {
		t.Error("factory manager should approve at factory review")
	}
	if CanApprove(StatusDraft, RoleHR) {
		t.Error("nothing is approvable in draft")
	}
}

func TestStepStatus(t *testing.T) {
	if s, ok := StepStatus(RoleHR); !ok || s != StatusSubmitted {
		t.Errorf("StepStatus(hr) = (%q, %v), want submitted", s, ok)
	}
	if s, ok := StepStatus(RoleFactoryManager); !ok || s != StatusFactoryReview {
		t.Errorf("StepStatus(factory_manager) = (%q, %v), want factory_review", s, ok)
	}
	if _, ok := StepStatus(RoleManager); ok {
		t.Error("StepStatus(manager) should report no step")
	}
	if _, ok := StepStatus(RoleFinal); ok {
		t.Error("StepStatus(final) should report no step")
	}
}

func TestCanReturn(t *testing.T) {
	// HR may return regardless of status.
	for _, s := range []Status{StatusDraft, StatusSubmitted, StatusFactoryReview, StatusFinalApproved, StatusManagerReview} {
		if !CanReturn(s, RoleHR) {
			t.Errorf("HR should be able to return a document in %q", s)
		}
	}
	// Others only where they could approve.
	if !CanReturn(StatusFactoryReview, RoleFactoryManager) {
		t.Error("factory manager should return at factory review")
	}
	if CanReturn(StatusSubmitted, RoleFactoryManager) {
		t.Error("factory manager should not return a submitted document")
	}
	if CanReturn(StatusDraft, RoleManager) {
		t.Error("generic manager should not return a draft")
	}
}

func TestReturnStatus(t *testing.T) {
	if got := ReturnStatus(); got != StatusDraft {
		t.Errorf("ReturnStatus() = %q, want draft", got)
	}
}
