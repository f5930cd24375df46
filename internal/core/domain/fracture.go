package domain

import (
	"errors"
	"strings"
)

// FractureType is the closed set of anatomical categories the classifier
// emits. Display strings and model labels are translated at the edges;
// nothing inside the core works with open strings.
type FractureType string

const (
	FractureNormal      FractureType = "normal"
	FractureClavicle    FractureType = "clavicle"
	FractureHumerus     FractureType = "humerus"
	FractureRadiusUlna  FractureType = "radius_ulna"
	FractureMetacarpal  FractureType = "metacarpal"
	FractureFemur       FractureType = "femur"
	FracturePatella     FractureType = "patella"
	FractureTibiaFibula FractureType = "tibia_fibula"
	FractureAnkle       FractureType = "ankle"
	FractureCalcaneus   FractureType = "calcaneus"
	FractureMetatarsal  FractureType = "metatarsal"
	FractureVertebral   FractureType = "vertebral"
	FracturePelvic      FractureType = "pelvic"
)

func KnownFractureTypes() []FractureType {
	return []FractureType{
		FractureNormal,
		FractureClavicle,
		FractureHumerus,
		FractureRadiusUlna,
		FractureMetacarpal,
		FractureFemur,
		FracturePatella,
		FractureTibiaFibula,
		FractureAnkle,
		FractureCalcaneus,
		FractureMetatarsal,
		FractureVertebral,
		FracturePelvic,
	}
}

func (f FractureType) Valid() bool {
	for _, known := range KnownFractureTypes() {
		if f == known {
			return true
		}
	}
	return false
}

func (f FractureType) IsNormal() bool {
	return f == FractureNormal
}

// ParseFractureType is the translation boundary from open label strings
// (remote service responses, request payloads) into the closed enum.
func ParseFractureType(raw string) (FractureType, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	if strings.Contains(normalized, "normal") {
		return FractureNormal, nil
	}

	candidate := FractureType(normalized)
	if candidate.Valid() {
		return candidate, nil
	}
	return "", WrapError(ErrInvalidInput, "parse fracture type", errors.New("unknown label: "+raw))
}
