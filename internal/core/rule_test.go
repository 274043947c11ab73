package core

import "testing"

func TestRuleNextAllRules(t *testing.T) {
	// Bit b of the rule must be the output for neighborhood encoding
	// b = 4*left + 2*center + right, for every rule.
	for rule := 0; rule <= 255; rule++ {
		for l := uint32(0); l <= 1; l++ {
			for c := uint32(0); c <= 1; c++ {
				for r := uint32(0); r <= 1; r++ {
					want := (uint32(rule) >> (4*l + 2*c + r)) & 1
					got := RuleNext(uint8(rule), l, c, r)
					if got != want {
						t.Fatalf("RuleNext(%d, %d, %d, %d) = %d, want %d", rule, l, c, r, got, want)
					}
				}
			}
		}
	}
}

func TestRuleNextKnownRules(t *testing.T) {
	tests := []struct {
		name    string
		rule    uint8
		l, c, r uint32
		want    uint32
	}{
		{"rule 30 single right neighbor", 30, 0, 0, 1, 1},
		{"rule 30 full neighborhood dies", 30, 1, 1, 1, 0},
		{"rule 90 is xor of neighbors", 90, 1, 0, 1, 0},
		{"rule 90 left only", 90, 1, 0, 0, 1},
		{"rule 90 ignores center", 90, 0, 1, 0, 0},
		{"rule 0 kills everything", 0, 1, 1, 1, 0},
		{"rule 255 fills everything", 255, 0, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RuleNext(tt.rule, tt.l, tt.c, tt.r); got != tt.want {
				t.Errorf("RuleNext(%d, %d, %d, %d) = %d, want %d", tt.rule, tt.l, tt.c, tt.r, got, tt.want)
			}
		})
	}
}
