package domain

// Provenance identifies which inference tier produced a result. It is set
// by the tier that actually ran and never fabricated across tiers.
type Provenance string

const (
	ProvenanceRemote     Provenance = "remote"
	ProvenanceLocalModel Provenance = "local-model"
	ProvenanceSimulated  Provenance = "simulated"
)

// Inference is the best-effort classification for a submitted image.
// Status is populated only when the remote service returned one; all other
// tiers leave it empty and the status assigner derives it from Confidence.
type Inference struct {
	FractureType FractureType `json:"fracture_type"`
	Confidence   float64      `json:"confidence"`
	Provenance   Provenance   `json:"provenance"`
	Status       CaseStatus   `json:"status,omitempty"`
}
