package engine

import (
	"math"

	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/state"
)

// Score rates a winning terminal state. Losses always score zero and never call this.
func Score(gs state.GameState, d scenario.Difficulty) int {
	score := BaseScore -
		gs.Deaths*DeathPenalty -
		(gs.Cases/10)*CasesPenaltyPer10 +
		int(math.Floor(gs.Budget/10000))*BudgetBonusPer10k -
		(gs.Day-1)*DayPenalty
	if gs.SourceIdentified {
		score += SourceIdentifyBonus
	}

	scaled := int(math.Floor(float64(score) * d.Multiplier()))
	return max(0, scaled)
}
