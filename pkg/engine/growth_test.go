package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/state"
)

func TestGrow(t *testing.T) {
	pathogen := scenario.Pathogen{Name: "Influenza", R0: 2.0, FatalityRate: 0.1}
	harbor := []scenario.Location{{Region: "Harbor", Cases: 100}}
	north := []scenario.Location{{Region: "North District", Cases: 100}}

	tests := []struct {
		name       string
		cases      int
		r0         float64
		locations  []scenario.Location
		rng        *scriptedRand
		wantCases  int
		wantDeaths int
		wantSpread string
		wantDraws  int
	}{
		{
			name:      "point source does not grow",
			cases:     200,
			r0:        0,
			locations: harbor,
			rng:       &scriptedRand{floats: []float64{0.99}},
			wantCases: 200,
		},
		{
			name:      "r0 below one adds nothing",
			cases:     200,
			r0:        0.8,
			locations: harbor,
			rng:       &scriptedRand{floats: []float64{0.99}},
			wantCases: 200,
		},
		{
			name:       "ten new cases cannot spread",
			cases:      100,
			r0:         2.0,
			locations:  harbor,
			rng:        &scriptedRand{floats: []float64{0.99}},
			wantCases:  110,
			wantDeaths: 1,
		},
		{
			name:       "draw at the threshold does not spread",
			cases:      110,
			r0:         2.0,
			locations:  harbor,
			rng:        &scriptedRand{floats: []float64{0.7}},
			wantCases:  121,
			wantDeaths: 1,
			wantDraws:  1,
		},
		{
			name:       "spread skips regions already reached",
			cases:      200,
			r0:         2.0,
			locations:  north,
			rng:        &scriptedRand{floats: []float64{0.95}, ints: []int{0}},
			wantCases:  220,
			wantDeaths: 2,
			wantSpread: "South District",
			wantDraws:  1,
		},
		{
			name:       "nothing left to reach",
			cases:      200,
			r0:         2.0,
			locations:  append([]scenario.Location(nil), SpreadRegions...),
			rng:        &scriptedRand{floats: []float64{0.95}},
			wantCases:  220,
			wantDeaths: 2,
			wantDraws:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := state.GameState{Day: 2, Cases: tt.cases, R0: tt.r0, OutbreakLocations: tt.locations}
			out, g := Grow(gs, pathogen, tt.rng)

			assert.Equal(t, tt.wantCases, out.Cases)
			assert.Equal(t, tt.wantDeaths, out.Deaths)
			assert.Equal(t, tt.wantDraws, tt.rng.fcalls)
			assert.Equal(t, tt.cases, gs.Cases, "input is not modified")

			if tt.wantSpread == "" {
				assert.Nil(t, g.Spread)
				assert.Len(t, out.OutbreakLocations, len(tt.locations))
				assert.Zero(t, tt.rng.icalls)
				return
			}
			if assert.NotNil(t, g.Spread) {
				assert.Equal(t, tt.wantSpread, g.Spread.Region)
				assert.Equal(t, 4, g.Spread.Cases)
			}
			assert.Len(t, out.OutbreakLocations, len(tt.locations)+1)
			assert.Equal(t, tt.wantSpread, out.OutbreakLocations[len(out.OutbreakLocations)-1].Region)
		})
	}
}
