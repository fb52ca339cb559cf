package game

// MaxVisitScore is the highest score a single three-dart visit can produce.
const MaxVisitScore = 180

// LegState is the slice of a player's state the scorer needs: points left in
// the current leg and whether the player has opened under double-in.
type LegState struct {
	Remaining int
	Opened    bool
}

// Visit is one player's turn at the oche, reported at visit granularity. The
// two double flags carry the per-dart detail the double-in/double-out rules
// need; the caller (ultimately the scoring client) supplies them.
type Visit struct {
	Score           int  `json:"score"`
	Darts           int  `json:"darts"`
	FirstDartDouble bool `json:"firstDartDouble"`
	LastDartDouble  bool `json:"lastDartDouble"`
}

// VisitResult is the effect of a visit on a leg.
type VisitResult struct {
	Remaining int
	Opened    bool
	Bust      bool
	Checkout  bool
}

// ScoreVisit computes the effect of a visit under the given rules. Pure and
// deterministic, so a leg can always be replayed from its throw history.
//
// A bust voids the entire visit, including an opening double thrown earlier
// in the same visit. An unopened double-in visit that never hits the opening
// double scores nothing but is not a bust.
func ScoreVisit(leg LegState, v Visit, rules Settings) (VisitResult, error) {
	if v.Score < 0 || v.Score > MaxVisitScore {
		return VisitResult{}, ErrInvalidThrow
	}
	if v.Darts < 0 || v.Darts > 3 {
		return VisitResult{}, ErrInvalidThrow
	}

	res := VisitResult{Remaining: leg.Remaining, Opened: leg.Opened}

	if rules.DoubleIn && !leg.Opened {
		if !v.FirstDartDouble {
			return res, nil
		}
		res.Opened = true
	}

	next := leg.Remaining - v.Score
	switch {
	case next < 0:
		res.Bust = true
	case next == 1 && rules.DoubleOut:
		// No double finishes from 1.
		res.Bust = true
	case next == 0:
		if rules.DoubleOut && !v.LastDartDouble {
			res.Bust = true
		} else {
			res.Remaining = 0
			res.Checkout = true
		}
	default:
		res.Remaining = next
	}

	if res.Bust {
		res.Opened = leg.Opened
	}
	return res, nil
}
