package domain

import "time"

type CaseStatus string

const (
	StatusAIConfirmed     CaseStatus = "ai_confirmed"
	StatusPendingReview   CaseStatus = "pending_review"
	StatusDoctorConfirmed CaseStatus = "doctor_confirmed"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case StatusAIConfirmed, StatusPendingReview, StatusDoctorConfirmed:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further lifecycle transition leaves s.
// ai_confirmed is terminal but remains reviewable on demand.
func (s CaseStatus) Terminal() bool {
	return s == StatusDoctorConfirmed
}

// ConfidenceThreshold separates auto-confirmed results from those that
// require a doctor review. It is a property of the lifecycle, not a knob.
const ConfidenceThreshold = 0.70

// StatusForConfidence assigns the initial lifecycle status for a fresh
// inference result. Total, deterministic, side-effect free; the boundary
// value classifies as ai_confirmed.
func StatusForConfidence(confidence float64) CaseStatus {
	if confidence >= ConfidenceThreshold {
		return StatusAIConfirmed
	}
	return StatusPendingReview
}

// Case is one submitted-image diagnostic record and its lifecycle state.
// OwnerID, ImagePath, AIDiagnosis, Confidence and CreatedAt are immutable
// after creation; the review fields are set together, exactly once.
type Case struct {
	ID              string            `json:"id"`
	OwnerID         string            `json:"owner_id"`
	ImagePath       string            `json:"image_path"`
	AIDiagnosis     FractureType      `json:"ai_diagnosis"`
	DoctorDiagnosis *FractureType     `json:"doctor_diagnosis,omitempty"`
	Confidence      float64           `json:"confidence"`
	Status          CaseStatus        `json:"status"`
	Provenance      Provenance        `json:"provenance"`
	ReviewerID      string            `json:"reviewer_id,omitempty"`
	ReviewerNotes   string            `json:"reviewer_notes,omitempty"`
	Language        Language          `json:"language"`
	Insights        *ClinicalInsights `json:"insights,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty"`
}

func (c *Case) Reviewed() bool {
	return c.Status == StatusDoctorConfirmed
}
