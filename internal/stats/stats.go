// Package stats turns stored rounds into career and single-round statistics.
// Everything here is a pure function of its input: no storage access, no errors, and no
// NaN or Inf for empty input.
//
// Round-level sums come from the aggregates stored on each Round; only the score
// distribution and the per-par averages are recomputed from the holes.
package stats

import "github.com/charbodjc/daddy-caddy/internal/models"

// Fixed per-round opportunity counts on a standard course: 14 driving holes (everything
// but the four par 3s) and 18 greens.
const (
	FairwaysPerRound = 14
	GreensPerRound   = models.HolesPerRound
)

// Distribution counts played holes by score relative to par. The five buckets always add
// up to the number of played holes.
type Distribution struct {
	EagleOrBetter      int `json:"eagleOrBetter"`
	Birdie             int `json:"birdie"`
	Par                int `json:"par"`
	Bogey              int `json:"bogey"`
	DoubleBogeyOrWorse int `json:"doubleBogeyOrWorse"`
}

// Total is the number of holes counted.
func (d Distribution) Total() int {
	return d.EagleOrBetter + d.Birdie + d.Par + d.Bogey + d.DoubleBogeyOrWorse
}

func (d *Distribution) add(h models.Hole) {
	switch diff := h.ScoreToPar(); {
	case diff <= -2:
		d.EagleOrBetter++
	case diff == -1:
		d.Birdie++
	case diff == 0:
		d.Par++
	case diff == 1:
		d.Bogey++
	default:
		d.DoubleBogeyOrWorse++
	}
}

// ParAverages is the mean strokes on played holes of each par. A par with no played holes
// averages 0.
type ParAverages struct {
	Par3 float64 `json:"par3"`
	Par4 float64 `json:"par4"`
	Par5 float64 `json:"par5"`
}

// Statistics is the result of Compute. Averages and percentages are unrounded.
type Statistics struct {
	TotalRounds       int          `json:"totalRounds"`
	HolesPlayed       int          `json:"holesPlayed"`
	AverageScore      float64      `json:"averageScore"`
	BestScore         int          `json:"bestScore"`
	WorstScore        int          `json:"worstScore"`
	AveragePutts      float64      `json:"averagePutts"`
	FairwayAccuracy   float64      `json:"fairwayAccuracy"`
	GIRPercentage     float64      `json:"girPercentage"`
	ScoreDistribution Distribution `json:"scoreDistribution"`
	ParAverages       ParAverages  `json:"parAverages"`
}

// Compute returns career statistics over the finished rounds in rounds. Unfinished rounds
// are ignored however much of them has been scored.
func Compute(rounds []models.Round) Statistics {
	finished := make([]models.Round, 0, len(rounds))
	for _, r := range rounds {
		if r.IsFinished {
			finished = append(finished, r)
		}
	}
	return compute(finished)
}

// ComputeRound returns the statistics of a single round, finished or not.
func ComputeRound(r models.Round) Statistics {
	return compute([]models.Round{r})
}

func value(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func compute(rounds []models.Round) Statistics {
	var s Statistics
	s.TotalRounds = len(rounds)
	if s.TotalRounds == 0 {
		return s
	}

	var score, putts, fairways, greens int
	for i, r := range rounds {
		total := value(r.TotalScore)
		score += total
		putts += value(r.TotalPutts)
		fairways += value(r.FairwaysHit)
		greens += value(r.GreensInRegulation)
		if i == 0 || total < s.BestScore {
			s.BestScore = total
		}
		if i == 0 || total > s.WorstScore {
			s.WorstScore = total
		}
	}

	n := float64(s.TotalRounds)
	s.AverageScore = float64(score) / n
	s.AveragePutts = float64(putts) / n
	s.FairwayAccuracy = 100 * float64(fairways) / (n * FairwaysPerRound)
	s.GIRPercentage = 100 * float64(greens) / (n * GreensPerRound)

	var parStrokes, parHoles [6]int
	for _, r := range rounds {
		for _, h := range r.Holes {
			if !h.Played() {
				continue
			}
			s.ScoreDistribution.add(h)
			s.HolesPlayed++
			if models.ValidPar(h.Par) {
				parStrokes[h.Par] += h.Strokes
				parHoles[h.Par]++
			}
		}
	}
	avg := func(par int) float64 {
		if parHoles[par] == 0 {
			return 0
		}
		return float64(parStrokes[par]) / float64(parHoles[par])
	}
	s.ParAverages = ParAverages{Par3: avg(3), Par4: avg(4), Par5: avg(5)}
	return s
}
