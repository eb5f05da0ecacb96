package scenario

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// EffectKind tags the variant of an action effect.
type EffectKind string

const (
	EffectIdentifySource EffectKind = "identify_source"
	EffectReduceR0       EffectKind = "reduce_r0"
	EffectScaleR0        EffectKind = "scale_r0"
)

// DefaultIdentifyProbability is used when identification text carries no percentage.
const DefaultIdentifyProbability = 0.2

// Effect is one typed mutation applied when an action completes.
type Effect struct {
	Kind           EffectKind `json:"kind"`
	Probability    float64    `json:"probability,omitempty"`     // identify_source: chance of success
	Amount         float64    `json:"amount,omitempty"`          // reduce_r0: fraction removed from r0
	Factor         float64    `json:"factor,omitempty"`          // scale_r0: multiplier applied to r0
	RequiresSource bool       `json:"requires_source,omitempty"` // scale_r0: only once the source is identified
}

// IdentifySource returns an effect that identifies the source with probability p.
func IdentifySource(p float64) Effect {
	return Effect{Kind: EffectIdentifySource, Probability: p}
}

// ReduceR0 returns an effect that removes the given fraction from r0.
func ReduceR0(amount float64) Effect {
	return Effect{Kind: EffectReduceR0, Amount: amount}
}

// ScaleR0 returns an effect that multiplies r0 by factor.
func ScaleR0(factor float64, requiresSource bool) Effect {
	return Effect{Kind: EffectScaleR0, Factor: factor, RequiresSource: requiresSource}
}

// Summary describes the effect for notifications.
func (e Effect) Summary() string {
	switch e.Kind {
	case EffectIdentifySource:
		return fmt.Sprintf("%.0f%% chance to identify the source", e.Probability*100)
	case EffectReduceR0:
		return fmt.Sprintf("R0 reduced by %.0f%%", e.Amount*100)
	case EffectScaleR0:
		if e.RequiresSource {
			return fmt.Sprintf("R0 scaled to %.0f%% once the source is known", e.Factor*100)
		}
		return fmt.Sprintf("R0 scaled to %.0f%%", e.Factor*100)
	default:
		return "no effect"
	}
}

// Validate reports a problem with the effect's parameters.
func (e Effect) Validate() error {
	switch e.Kind {
	case EffectIdentifySource:
		if e.Probability <= 0 || e.Probability > 1 {
			return fmt.Errorf("identify_source probability %v outside (0, 1]", e.Probability)
		}
	case EffectReduceR0:
		if e.Amount <= 0 || e.Amount > 1 {
			return fmt.Errorf("reduce_r0 amount %v outside (0, 1]", e.Amount)
		}
	case EffectScaleR0:
		if e.Factor < 0 {
			return fmt.Errorf("scale_r0 factor %v is negative", e.Factor)
		}
	default:
		return fmt.Errorf("unknown effect kind %q", e.Kind)
	}
	return nil
}

// Effects is the ordered effect list of an action.
type Effects []Effect

// UnmarshalJSON accepts either a list of typed effects or a free-text effect description,
// which is compiled with CompileEffectSpec.
func (es *Effects) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*es = CompileEffectSpec(text)
		return nil
	}

	var list []Effect
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*es = list
	return nil
}

var percentRegex = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

// CompileEffectSpec translates free-text effect descriptions into typed effects.
// Every matching rule contributes, in this order: source identification, percentage
// reduction of r0, containment at the source, stopping new exposures.
// Text that matches nothing compiles to no effects.
func CompileEffectSpec(text string) Effects {
	lower := strings.ToLower(text)
	pct, hasPct := firstPercentage(lower)

	var out Effects
	if strings.Contains(lower, "identif") {
		p := DefaultIdentifyProbability
		if hasPct {
			p = pct
		}
		out = append(out, IdentifySource(p))
	}
	if strings.Contains(lower, "reduc") && hasPct {
		out = append(out, ReduceR0(pct))
	}
	if strings.Contains(lower, "source contained") {
		out = append(out, ScaleR0(0.3, true))
	}
	if strings.Contains(lower, "stops new exposures") {
		out = append(out, ScaleR0(0.5, false))
	}
	return out
}

func firstPercentage(s string) (float64, bool) {
	m := percentRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v / 100, true
}
