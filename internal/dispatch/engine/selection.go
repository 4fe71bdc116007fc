package engine

import (
	"fixmarket_backend/platform/geo"

	"github.com/google/uuid"
)

// Candidate is the dispatch view of a vendor: just enough to decide
// eligibility. Occupied means the vendor holds an unexpired urgent ticket.
type Candidate struct {
	ID       uuid.UUID
	Name     string
	Category string
	Location geo.Point
	RadiusKm float64
	Occupied bool
}

// EligibleCandidates keeps the candidates whose own service radius contains
// the origin. A nil origin skips the geographic filter entirely and category
// membership alone decides.
func EligibleCandidates(candidates []Candidate, origin *geo.Point) ([]Candidate, error) {
	if origin == nil {
		return candidates, nil
	}
	if err := origin.Validate(); err != nil {
		return nil, err
	}

	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		within, err := geo.WithinRadius(c.Location, *origin, c.RadiusKm)
		if err != nil {
			return nil, err
		}
		if within {
			eligible = append(eligible, c)
		}
	}
	return eligible, nil
}

// SelectUrgentVendor picks the single vendor for an urgent dispatch:
// geo-eligible, not occupied when the hold policy is on, lowest id among
// what remains. Ties cannot occur on a unique id, so the choice is
// deterministic. Returns nil when nobody qualifies.
func SelectUrgentVendor(candidates []Candidate, origin *geo.Point, hold bool) (*Candidate, error) {
	eligible, err := EligibleCandidates(candidates, origin)
	if err != nil {
		return nil, err
	}

	var pick *Candidate
	for i := range eligible {
		c := &eligible[i]
		if hold && c.Occupied {
			continue
		}
		if pick == nil || lessID(c.ID, pick.ID) {
			pick = c
		}
	}
	if pick == nil {
		return nil, nil
	}
	chosen := *pick
	return &chosen, nil
}

func lessID(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
