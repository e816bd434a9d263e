package match

import (
	"math"
	"testing"
)

func TestDecide(t *testing.T) {
	policy := Policy{DistanceThreshold: 0.5, LivenessThreshold: 0.6}

	tests := []struct {
		name       string
		distance   float64
		liveness   float64
		outcome    Outcome
		confidence float64
	}{
		{"close match, live", 0.2, 0.9, Accept, 0.6},
		{"exact match, live", 0.0, 1.0, Accept, 1.0},
		{"at distance threshold", 0.5, 0.8, Accept, 0.0},
		{"too far", 0.7, 0.9, RejectDistance, 1 - 0.7/0.5},
		{"liveness below threshold", 0.1, 0.3, RejectLiveness, 0},
		{"liveness wins over perfect distance", 0.0, 0.59, RejectLiveness, 0},
		{"at liveness threshold passes", 0.3, 0.6, Accept, 1 - 0.3/0.5},
		{"far and spoofed rejects on liveness", 2.0, 0.0, RejectLiveness, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := policy.Decide(tc.distance, tc.liveness)
			if d.Outcome != tc.outcome {
				t.Errorf("Decide(%v, %v) outcome = %v; want %v",
					tc.distance, tc.liveness, d.Outcome, tc.outcome)
			}
			if math.Abs(d.Confidence-tc.confidence) > 1e-12 {
				t.Errorf("Decide(%v, %v) confidence = %v; want %v",
					tc.distance, tc.liveness, d.Confidence, tc.confidence)
			}
		})
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	policy := Policy{DistanceThreshold: 0.5, LivenessThreshold: 0.6}
	first := policy.Decide(0.42, 0.73)
	for i := 0; i < 100; i++ {
		if got := policy.Decide(0.42, 0.73); got != first {
			t.Fatalf("iteration %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestConfidenceNotClamped(t *testing.T) {
	policy := Policy{DistanceThreshold: 0.5, LivenessThreshold: 0.6}
	d := policy.Decide(1.0, 0.9)
	if d.Outcome != RejectDistance {
		t.Fatalf("outcome = %v; want RejectDistance", d.Outcome)
	}
	if d.Confidence != -1.0 {
		t.Errorf("confidence = %v; want -1.0 (raw, unclamped)", d.Confidence)
	}
}

func TestDecideVaryingThresholds(t *testing.T) {
	// Same inputs flip outcome purely via injected thresholds.
	strict := Policy{DistanceThreshold: 0.2, LivenessThreshold: 0.6}
	loose := Policy{DistanceThreshold: 0.9, LivenessThreshold: 0.6}

	if got := strict.Decide(0.3, 0.9).Outcome; got != RejectDistance {
		t.Errorf("strict outcome = %v; want RejectDistance", got)
	}
	if got := loose.Decide(0.3, 0.9).Outcome; got != Accept {
		t.Errorf("loose outcome = %v; want Accept", got)
	}
}
