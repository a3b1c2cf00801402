// Action scoring and softmax selection. Weights are fixed: personality
// alignment 40%, state fit 30%, expected reward 20%, social desirability 10%.
// Selection samples the softmax distribution rather than taking the argmax;
// a deliberate exploration mechanism, not noise.
package decision

import (
	"math"

	"github.com/aistory/sandboxworld/internal/catalog"
	"github.com/aistory/sandboxworld/internal/character"
	"github.com/aistory/sandboxworld/internal/entropy"
)

// softmaxTemperature controls exploration: higher flattens the distribution.
const softmaxTemperature = 2.0

// Score evaluates one action for one character in [0, 1].
func Score(a catalog.ActionOption, profile character.Profile, state character.State) float64 {
	score := personalityFit(a, profile)*0.4 +
		stateFit(a, state)*0.3 +
		expectedReward(a)*0.2 +
		socialDesirability(a, profile)*0.1

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// personalityFit averages trait-weight products over the action's alignment
// pairs. Undeclared traits resolve to the neutral constant.
func personalityFit(a catalog.ActionOption, profile character.Profile) float64 {
	if len(a.PersonalityAlignment) == 0 {
		return 0
	}
	sum := 0.0
	for trait, weight := range a.PersonalityAlignment {
		sum += profile.TraitNorm(trait) * weight
	}
	return sum / float64(len(a.PersonalityAlignment))
}

// stateFit scores how well the action suits the character's current state.
// Note an unaffordable energy cost is a penalty here, never an exclusion;
// only explicit prerequisites gate availability.
func stateFit(a catalog.ActionOption, state character.State) float64 {
	fit := 0.0

	if a.EnergyCost <= state.Energy {
		fit += 0.5
	} else {
		fit -= 0.3
	}

	// Mood-lifting actions appeal when feeling down.
	if state.Mood < 0 && a.EmotionalReward > 0 {
		fit += 0.3
	}

	// Under high stress, social exposure is avoided.
	if state.Stress > 60 && a.SocialImpact > 0.3 {
		fit -= 0.2
	}

	return fit
}

// expectedReward maps the emotional reward from [-1, 1] to [0, 1].
func expectedReward(a catalog.ActionOption) float64 {
	return (a.EmotionalReward + 1) / 2
}

// socialDesirability is neutral except for outgoing actions, which appeal in
// proportion to the character's charisma.
func socialDesirability(a catalog.ActionOption, profile character.Profile) float64 {
	if a.SocialImpact <= 0 {
		return 0.5
	}
	return 0.5 + a.SocialImpact*profile.TraitNorm("charisma")*0.5
}

// sampleSoftmax converts scores into a softmax distribution at the fixed
// temperature and samples an index from it. A single candidate is chosen
// with probability 1.
func sampleSoftmax(scores []float64, rng entropy.Source) int {
	if len(scores) == 1 {
		return 0
	}

	exps := make([]float64, len(scores))
	total := 0.0
	for i, s := range scores {
		exps[i] = math.Exp(s / softmaxTemperature)
		total += exps[i]
	}

	r := rng.Float64() * total
	cum := 0.0
	for i, e := range exps {
		cum += e
		if r < cum {
			return i
		}
	}
	return len(scores) - 1
}
