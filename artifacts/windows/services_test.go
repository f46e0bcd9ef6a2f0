package windows

import "testing"

func TestLabelOrKnownValue(t *testing.T) {
	if got := labelOr(serviceStarts, "2"); got != "automatic" {
		t.Fatalf("label = %q, want automatic", got)
	}
}

func TestLabelOrUnknownValuePassesThrough(t *testing.T) {
	if got := labelOr(serviceStarts, "99"); got != "99" {
		t.Fatalf("label = %q, want 99", got)
	}
}
