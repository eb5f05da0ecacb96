package engine

import (
	"math"

	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/state"
)

// Growth is the outcome of one simulated day of transmission.
type Growth struct {
	NewCases  int
	NewDeaths int
	Spread    *scenario.Location // region newly reached today, if any
}

// Grow advances cases and deaths by one day and may spread the outbreak to a new region.
// A zero r0 models a point-source outbreak and leaves the state untouched.
func Grow(gs state.GameState, p scenario.Pathogen, rng Rand) (state.GameState, Growth) {
	if gs.R0 == 0 {
		return gs, Growth{}
	}

	rate := max(0, (gs.R0-1)*GrowthPerR0)
	newCases := int(math.Floor(float64(gs.Cases) * rate))
	newDeaths := int(math.Floor(float64(newCases) * p.FatalityRate))

	out := gs.Clone()
	out.Cases += newCases
	out.Deaths += newDeaths
	g := Growth{NewCases: newCases, NewDeaths: newDeaths}

	if newCases > SpreadMinNewCases && rng.Float64() > SpreadThreshold {
		candidates := make([]scenario.Location, 0, len(SpreadRegions))
		for _, r := range SpreadRegions {
			if !out.HasRegion(r.Region) {
				candidates = append(candidates, r)
			}
		}
		if len(candidates) > 0 {
			loc := candidates[rng.Intn(len(candidates))]
			loc.Cases = int(math.Floor(float64(newCases) * SpreadCaseFraction))
			out.OutbreakLocations = append(out.OutbreakLocations, loc)
			g.Spread = &loc
		}
	}

	return out, g
}
