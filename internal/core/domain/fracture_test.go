package domain

import "testing"

func TestParseFractureType(t *testing.T) {
	cases := []struct {
		raw  string
		want FractureType
	}{
		{"tibia_fibula", FractureTibiaFibula},
		{"Tibia Fibula", FractureTibiaFibula},
		{"radius-ulna", FractureRadiusUlna},
		{" femur ", FractureFemur},
		{"normal", FractureNormal},
		{"Normal (No Fracture Detected)", FractureNormal},
	}
	for _, tc := range cases {
		got, err := ParseFractureType(tc.raw)
		if err != nil {
			t.Fatalf("ParseFractureType(%q) error = %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseFractureType(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestParseFractureTypeUnknown(t *testing.T) {
	_, err := ParseFractureType("plasma rifle")
	if err == nil {
		t.Fatalf("expected error for unknown label")
	}
	if !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestKnownFractureTypesAllValid(t *testing.T) {
	known := KnownFractureTypes()
	if len(known) != 13 {
		t.Fatalf("expected 13 categories, got %d", len(known))
	}
	for _, f := range known {
		if !f.Valid() {
			t.Fatalf("%s reported invalid", f)
		}
	}
}

func TestGuestIDPredicates(t *testing.T) {
	if !IsGuestID("guest_1726000000000_k3j2h1") {
		t.Fatalf("expected guest id to be recognized")
	}
	if IsGuestID("8b9cfa4e-2f1d-41f0-9a56-0f3a0cf7a001") {
		t.Fatalf("uuid must not be recognized as guest")
	}
	if got := DisplayName("guest_1_abc", "Somchai"); got != "Guest User" {
		t.Fatalf("DisplayName(guest) = %q", got)
	}
	if got := DisplayName("8b9cfa4e", "Somchai"); got != "Somchai" {
		t.Fatalf("DisplayName(account) = %q", got)
	}
	if got := DisplayName("", ""); got != "Unknown" {
		t.Fatalf("DisplayName(empty) = %q", got)
	}
}
