package textmatch

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "accents and punctuation", in: "Étude!", want: "etude"},
		{name: "hyphenated country", in: "Royaume-Uni", want: "royaumeuni"},
		{name: "apostrophe", in: "Côte d'Ivoire", want: "cote divoire"},
		{name: "whitespace runs", in: "  Burkina \t  Faso \n", want: "burkina faso"},
		{name: "digits kept", in: "Porte de Saint-Cloud 9", want: "porte de saintcloud 9"},
		{name: "only punctuation", in: "?!.", want: ""},
		{name: "empty", in: "", want: ""},
		{name: "cedilla and diaeresis", in: "Bahreïn Français", want: "bahrein francais"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := Normalize(got); again != got {
				t.Errorf("Normalize not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeEquivalence(t *testing.T) {
	if Normalize("Étude!") != Normalize("etude") {
		t.Errorf("Normalize(%q) != Normalize(%q)", "Étude!", "etude")
	}
}

func TestDistance(t *testing.T) {
	for _, s := range []string{"", "chat", "allemagne", "porte maillot"} {
		if d := Distance(s, s); d != 0 {
			t.Errorf("Distance(%q, %q) = %d, want 0", s, s, d)
		}
	}
	if d := Distance("chat", "chien"); d <= 0 {
		t.Errorf("Distance(chat, chien) = %d, want > 0", d)
	}
	if d := Distance("kitten", "sitting"); d != 3 {
		t.Errorf("Distance(kitten, sitting) = %d, want 3", d)
	}
	if d := Distance("", "uk"); d != 2 {
		t.Errorf("Distance(\"\", uk) = %d, want 2", d)
	}
}

func TestThreshold(t *testing.T) {
	tests := []struct {
		ref  string
		want int
	}{
		{ref: "UK", want: 2},
		{ref: "Allemagne", want: 2},
		{ref: "Bosnie-Herzégovine", want: 2},
		{ref: "Saint-Vincent-et-les-Grenadines", want: 4},
		{ref: "Republique democratique du Congo", want: 4},
	}
	for _, tt := range tests {
		if got := Threshold(tt.ref); got != tt.want {
			t.Errorf("Threshold(%q) = %d, want %d", tt.ref, got, tt.want)
		}
	}
}

func TestWithinToleranceBoundary(t *testing.T) {
	// "allemagne" has 9 characters, so the threshold is max(2, floor(1.35)) = 2.
	if d := Distance(Normalize("Alemagn"), Normalize("Allemagne")); d != 2 {
		t.Fatalf("fixture distance = %d, want 2", d)
	}
	if d := Distance(Normalize("Alemag"), Normalize("Allemagne")); d != 3 {
		t.Fatalf("fixture distance = %d, want 3", d)
	}
	if !WithinTolerance("Alemagn", "Allemagne") {
		t.Error("distance 2 should be accepted")
	}
	if WithinTolerance("Alemag", "Allemagne") {
		t.Error("distance 3 should be rejected")
	}
}

func TestWithinToleranceUsesReferenceLength(t *testing.T) {
	long := "Saint-Vincent-et-les-Grenadines" // normalized length 27, threshold 4
	guess := "saintvincentetlesgrenadi"
	if !WithinTolerance(guess, long) {
		t.Errorf("WithinTolerance(%q, %q) = false, want true", guess, long)
	}
	// Swapping roles shrinks the budget to the shorter string's threshold.
	if WithinTolerance(long, "Saint Vincent") {
		t.Error("long guess against a short reference should be rejected")
	}
}
