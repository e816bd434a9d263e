// Package match holds the pure attendance decision logic: given a
// nearest-neighbor distance and a liveness score, decide accept/reject
// and compute the advisory confidence. No I/O, no state.
package match

type Outcome int

const (
	Accept Outcome = iota
	RejectLiveness
	RejectDistance
)

func (o Outcome) String() string {
	switch o {
	case Accept:
		return "accept"
	case RejectLiveness:
		return "reject_liveness"
	case RejectDistance:
		return "reject_distance"
	default:
		return "unknown"
	}
}

// Decision is the result of one policy evaluation. Confidence is only
// meaningful when liveness passed (distance was evaluated).
type Decision struct {
	Outcome    Outcome
	Confidence float64
}

// Policy carries the thresholds. Values come from configuration; zero
// values are not defaulted here.
type Policy struct {
	DistanceThreshold float64
	LivenessThreshold float64
}

// Decide applies the policy. Liveness is checked before distance:
// a failing liveness score rejects regardless of how close the match is.
//
// Confidence is 1 - distance/DistanceThreshold, reported raw. It is an
// advisory linear score, not a probability, and goes negative when the
// distance exceeds the threshold; clamping is left to presentation.
func (p Policy) Decide(nearestDistance, livenessScore float64) Decision {
	if livenessScore < p.LivenessThreshold {
		return Decision{Outcome: RejectLiveness}
	}

	confidence := 1 - nearestDistance/p.DistanceThreshold

	if nearestDistance > p.DistanceThreshold {
		return Decision{Outcome: RejectDistance, Confidence: confidence}
	}

	return Decision{Outcome: Accept, Confidence: confidence}
}
