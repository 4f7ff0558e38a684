package verify

// Decision is the outcome of applying the verification policy.
type Decision int

const (
	NoMatch Decision = iota
	Match
)

func (d Decision) String() string {
	if d == Match {
		return "MATCH"
	}
	return "NO_MATCH"
}

// Outcome is the normalized result of one provider comparison. All matched
// pairs already exceed the provider-side similarity floor.
type Outcome struct {
	SourceFaces   int
	TargetFaces   int
	MatchedPairs  int
	TopSimilarity float32
}

// Classify applies the verification policy: a capture verifies only when the
// comparison produced exactly one matched face pair. Zero pairs is a plain
// mismatch; more than one is ambiguous and attendance must be unambiguous.
// Pure function of the pair count.
func Classify(outcome Outcome) Decision {
	if outcome.MatchedPairs == 1 {
		return Match
	}
	return NoMatch
}
