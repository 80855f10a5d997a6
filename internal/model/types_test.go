package model

import "testing"

func TestParseContentID(t *testing.T) {
	for _, raw := range []string{"crash-landing-ep1", "goblin_03", "a"} {
		if _, err := ParseContentID(raw); err != nil {
			t.Fatalf("expected %q to be valid: %v", raw, err)
		}
	}
	for _, raw := range []string{"", "Upper", "space id", "한국어", "../etc"} {
		if _, err := ParseContentID(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestLevelNextSaturates(t *testing.T) {
	if Level1.Next() != Level2 || Level3.Next() != Level4 {
		t.Fatalf("unexpected next level")
	}
	if Level4.Next() != Level4 {
		t.Fatalf("expected level4 to saturate")
	}
	if Level(0).Next() != Level1 {
		t.Fatalf("expected invalid level to normalize to level1")
	}
}
