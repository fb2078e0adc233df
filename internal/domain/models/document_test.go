package models

import "testing"

func TestWorkflowState_Valid(t *testing.T) {
	for _, state := range []WorkflowState{StateDraft, StateInReview, StatePublished, StateArchived} {
		if !state.Valid() {
			t.Errorf("%s should be valid", state)
		}
	}
	if WorkflowState("bogus").Valid() {
		t.Error("unknown state should be invalid")
	}
}

func TestAuditAction_RequiresReason(t *testing.T) {
	requiring := map[AuditAction]bool{
		ActionPublish:      true,
		ActionArchive:      true,
		ActionForcePublish: true,
	}
	all := []AuditAction{
		ActionDraftCreated, ActionReviewSubmitted, ActionReviewApproved,
		ActionReviewRejected, ActionPublish, ActionArchive, ActionRevert,
		ActionForcePublish,
	}
	for _, action := range all {
		if got := action.RequiresReason(); got != requiring[action] {
			t.Errorf("%s.RequiresReason() = %v, want %v", action, got, requiring[action])
		}
	}
}
