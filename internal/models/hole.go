package models

import "fmt"

// HolePatch is a partial update of a Hole. Nil fields are left unchanged.
type HolePatch struct {
	Par               *int    `json:"par,omitempty"`
	Strokes           *int    `json:"strokes,omitempty"`
	FairwayHit        *bool   `json:"fairwayHit,omitempty"`
	GreenInRegulation *bool   `json:"greenInRegulation,omitempty"`
	Putts             *int    `json:"putts,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	ShotData          *string `json:"shotData,omitempty"`
}

// Empty reports whether the patch carries no fields.
func (p HolePatch) Empty() bool {
	return p.Par == nil && p.Strokes == nil && p.FairwayHit == nil && p.GreenInRegulation == nil &&
		p.Putts == nil && p.Notes == nil && p.ShotData == nil
}

// Apply merges the present fields of p into h.
func (p HolePatch) Apply(h *Hole) {
	if p.Par != nil {
		h.Par = *p.Par
	}
	if p.Strokes != nil {
		h.Strokes = *p.Strokes
	}
	if p.FairwayHit != nil {
		v := *p.FairwayHit
		h.FairwayHit = &v
	}
	if p.GreenInRegulation != nil {
		v := *p.GreenInRegulation
		h.GreenInRegulation = &v
	}
	if p.Putts != nil {
		v := *p.Putts
		h.Putts = &v
	}
	if p.Notes != nil {
		v := *p.Notes
		h.Notes = &v
	}
	if p.ShotData != nil {
		v := *p.ShotData
		h.ShotData = &v
	}
}

// ValidPar reports whether par is one the scorecard allows.
func ValidPar(par int) bool {
	return par >= 3 && par <= 5
}

// ScoreName is the golfing name for a score on a hole, e.g. "Birdie" or "Double Bogey".
// Unplayed holes (strokes == 0) have no name.
func ScoreName(strokes, par int) string {
	if strokes <= 0 {
		return ""
	}
	if strokes == 1 {
		return "Hole in One"
	}
	switch diff := strokes - par; {
	case diff <= -3:
		return "Albatross"
	case diff == -2:
		return "Eagle"
	case diff == -1:
		return "Birdie"
	case diff == 0:
		return "Par"
	case diff == 1:
		return "Bogey"
	case diff == 2:
		return "Double Bogey"
	case diff == 3:
		return "Triple Bogey"
	default:
		return fmt.Sprintf("+%d", diff)
	}
}

// SeedHoles returns the 18 holes a new round starts with: standard pars, nothing played.
func SeedHoles(roundID string) []Hole {
	holes := make([]Hole, HolesPerRound)
	for i := range holes {
		holes[i] = Hole{
			RoundID:    roundID,
			HoleNumber: i + 1,
			Par:        StandardPars[i],
		}
	}
	return holes
}

// Ptr returns a pointer to v; handy for optional model fields.
func Ptr[T any](v T) *T {
	return &v
}
