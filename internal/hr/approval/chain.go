package approval

// The approval chain is deliberately short: an HR gate on submission and a
// factory-manager gate after it. The finer-grained statuses in the taxonomy
// (hr_review, manager_review, ...) are produced by the legacy workflow and
// by reporting, but they are not wired into this chain. Do not add
// transitions here.

// CurrentStep returns the role that must act on a document in the given
// status. The second result is false when nothing is pending.
func CurrentStep(s Status) (Role, bool) {
	switch s {
	case StatusSubmitted:
		return RoleHR, true
	case StatusFactoryReview:
		return RoleFactoryManager, true
	case StatusFinalApproved:
		return RoleFinal, true
	}
	return "", false
}

// StepStatus is the inverse of CurrentStep: the status whose documents
// wait on the given role. Used to build approval inboxes.
func StepStatus(role Role) (Status, bool) {
	switch role {
	case RoleHR:
		return StatusSubmitted, true
	case RoleFactoryManager:
		return StatusFactoryReview, true
	}
	return "", false
}

// CanApprove reports whether role is the one the current step requires.
func CanApprove(s Status, role Role) bool {
	step, ok := CurrentStep(s)
	return ok && step == role
}

// CanReturn reports whether role may send the document back for edit.
// HR may always return; every other role only when it could also approve.
func CanReturn(s Status, role Role) bool {
	if role == RoleHR {
		return true
	}
	return CanApprove(s, role)
}

// ApproveStatus returns the status a successful approval moves to. The
// second result is false when the status has no legal forward move.
func ApproveStatus(s Status) (Status, bool) {
	switch s {
	case StatusSubmitted:
		return StatusFactoryReview, true
	case StatusFactoryReview:
		return StatusFinalApproved, true
	}
	return "", false
}

// ReturnStatus is the single defined return target.
func ReturnStatus() Status {
	return StatusDraft
}
