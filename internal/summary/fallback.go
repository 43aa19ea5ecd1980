package summary

import (
	"fmt"
	"strings"

	"github.com/charbodjc/daddy-caddy/internal/models"
)

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func mediaCounts(media []models.Media) (photos, videos int) {
	for _, m := range media {
		switch m.Type {
		case models.MediaTypePhoto:
			photos++
		case models.MediaTypeVideo:
			videos++
		}
	}
	return photos, videos
}

func mediaSentence(media []models.Media) string {
	photos, videos := mediaCounts(media)
	switch {
	case photos > 0 && videos > 0:
		return fmt.Sprintf("%s and %s captured.", plural(photos, "photo"), plural(videos, "video"))
	case photos > 0:
		return plural(photos, "photo") + " captured."
	case videos > 0:
		return plural(videos, "video") + " captured."
	}
	return ""
}

// HoleFallback is the locally built summary of one hole.
func HoleFallback(h models.Hole, media []models.Media) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hole %d (par %d): ", h.HoleNumber, h.Par)
	if !h.Played() {
		b.WriteString("not played yet.")
		if s := mediaSentence(media); s != "" {
			b.WriteString(" " + s)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "%s in %s.", models.ScoreName(h.Strokes, h.Par), plural(h.Strokes, "stroke"))
	if h.FairwayHit != nil && h.Par > 3 {
		if *h.FairwayHit {
			b.WriteString(" Hit the fairway.")
		} else {
			b.WriteString(" Missed the fairway.")
		}
	}
	if h.GreenInRegulation != nil {
		if *h.GreenInRegulation {
			b.WriteString(" Green in regulation.")
		} else {
			b.WriteString(" Missed the green in regulation.")
		}
	}
	if h.Putts != nil {
		b.WriteString(" " + plural(*h.Putts, "putt") + ".")
	}
	if s := mediaSentence(media); s != "" {
		b.WriteString(" " + s)
	}
	return b.String()
}

// RoundFallback is the locally built summary of a round.
func RoundFallback(r models.Round, media []models.Media) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s: ", r.CourseName, r.Date.Format("Jan 2, 2006"))

	played, par := 0, 0
	var best *models.Hole
	for i := range r.Holes {
		h := &r.Holes[i]
		if !h.Played() {
			continue
		}
		played++
		par += h.Par
		if best == nil || h.ScoreToPar() < best.ScoreToPar() {
			best = h
		}
	}
	if played == 0 {
		b.WriteString("no holes played yet.")
		if s := mediaSentence(media); s != "" {
			b.WriteString(" " + s)
		}
		return b.String()
	}

	t := value(r.TotalScore)
	fmt.Fprintf(&b, "%d strokes (%s) over %s.", t, toPar(t-par), plural(played, "hole"))
	fmt.Fprintf(&b, " %s, %d fairways hit and %d greens in regulation.",
		plural(value(r.TotalPutts), "putt"), value(r.FairwaysHit), value(r.GreensInRegulation))
	fmt.Fprintf(&b, " Best hole: %d (%s).", best.HoleNumber, models.ScoreName(best.Strokes, best.Par))
	if s := mediaSentence(media); s != "" {
		b.WriteString(" " + s)
	}
	return b.String()
}

func toPar(diff int) string {
	switch {
	case diff == 0:
		return "even"
	case diff > 0:
		return fmt.Sprintf("+%d", diff)
	}
	return fmt.Sprintf("%d", diff)
}

func value(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
