package domain

import "testing"

func TestStatusForConfidence(t *testing.T) {
	cases := []struct {
		confidence float64
		want       CaseStatus
	}{
		{0.0, StatusPendingReview},
		{0.55, StatusPendingReview},
		{0.6999, StatusPendingReview},
		{0.70, StatusAIConfirmed},
		{0.71, StatusAIConfirmed},
		{1.0, StatusAIConfirmed},
	}
	for _, tc := range cases {
		if got := StatusForConfidence(tc.confidence); got != tc.want {
			t.Fatalf("StatusForConfidence(%v) = %s, want %s", tc.confidence, got, tc.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPendingReview.Terminal() {
		t.Fatalf("pending_review must not be terminal")
	}
	if StatusAIConfirmed.Terminal() {
		t.Fatalf("ai_confirmed remains reviewable on demand")
	}
	if !StatusDoctorConfirmed.Terminal() {
		t.Fatalf("doctor_confirmed must be terminal")
	}
}

func TestCaseStatusValid(t *testing.T) {
	for _, s := range []CaseStatus{StatusAIConfirmed, StatusPendingReview, StatusDoctorConfirmed} {
		if !s.Valid() {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if CaseStatus("reviewed").Valid() {
		t.Fatalf("open status strings must not validate")
	}
}
