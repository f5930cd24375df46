package simulated

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

// categoryWeights is the sampling prior, shaped after the case mix seen in
// bone X-ray triage: roughly a third of studies are unremarkable, and the
// rest skew toward the common long-bone and ankle fractures.
var categoryWeights = []struct {
	fractureType domain.FractureType
	weight       float64
}{
	{domain.FractureNormal, 0.30},
	{domain.FractureClavicle, 0.06},
	{domain.FractureHumerus, 0.08},
	{domain.FractureRadiusUlna, 0.12},
	{domain.FractureMetacarpal, 0.07},
	{domain.FractureFemur, 0.06},
	{domain.FracturePatella, 0.04},
	{domain.FractureTibiaFibula, 0.08},
	{domain.FractureAnkle, 0.09},
	{domain.FractureCalcaneus, 0.03},
	{domain.FractureMetatarsal, 0.04},
	{domain.FractureVertebral, 0.02},
	{domain.FracturePelvic, 0.01},
}

// Simulator is the last analyzer tier. It never fails: it draws a
// plausible diagnosis from the prior so the triage pipeline stays
// exercisable with no model and no network.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func New() *Simulator {
	return &Simulator{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeeded pins the random stream, for tests.
func NewSeeded(seed uint64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (s *Simulator) Analyze(_ context.Context, _ []byte, _ domain.Language) (domain.Inference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ft := s.drawCategory()
	return domain.Inference{
		FractureType: ft,
		Confidence:   s.drawConfidence(ft),
		Provenance:   domain.ProvenanceSimulated,
	}, nil
}

func (s *Simulator) drawCategory() domain.FractureType {
	var total float64
	for _, c := range categoryWeights {
		total += c.weight
	}

	r := s.rng.Float64() * total
	for _, c := range categoryWeights {
		r -= c.weight
		if r < 0 {
			return c.fractureType
		}
	}
	return categoryWeights[len(categoryWeights)-1].fractureType
}

// drawConfidence is bimodal for fracture findings: most land above the
// review threshold, a minority sit in the band a doctor has to look at.
// Normal studies read confidently.
func (s *Simulator) drawConfidence(ft domain.FractureType) float64 {
	var c float64
	switch {
	case ft.IsNormal():
		c = 0.75 + s.rng.Float64()*0.20
	case s.rng.Float64() < 0.6:
		c = 0.70 + s.rng.Float64()*0.25
	default:
		c = 0.45 + s.rng.Float64()*0.25
	}
	return math.Round(c*100) / 100
}
