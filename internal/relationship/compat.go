// Compatibility is a fixed-at-creation score summarizing how well two
// characters' traits and interests mesh. Pure and deterministic: same
// profiles, same score, in either argument order.
package relationship

import (
	"strings"

	"github.com/aistory/sandboxworld/internal/character"
)

// complementPairs are trait pairs where one character being strong and the
// other mid-range reads as complementary rather than redundant.
var complementPairs = [][2]string{
	{"helpfulness", "self_awareness"},
	{"curiosity", "perfectionism"},
	{"charisma", "humor"},
}

// goalKeywords is the fixed theme set scanned for goal affinity.
var goalKeywords = []string{
	"friendship", "growth", "learning", "leadership", "cooperation", "understanding",
}

// Compatibility computes the base compatibility of two characters in [0, 100].
// Weighted sub-scores: personality complementarity 40%, shared interests 30%,
// communication style 20%, goal affinity 10%.
func Compatibility(a, b character.Profile) float64 {
	score := personalityComplement(a, b)*0.4 +
		interestOverlap(a, b)*0.3 +
		commCompatibility(a, b)*0.2 +
		goalAffinity(a, b)*0.1

	score *= 100
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// personalityComplement awards credit when one trait of a complementary pair
// is high and its counterpart mid-range, smaller credit when the two are
// close, nothing otherwise. Symmetric in the two profiles.
func personalityComplement(a, b character.Profile) float64 {
	score := 0.0
	for _, pair := range complementPairs {
		// Each orientation pairs one profile's first trait with the other's
		// second trait; averaging both keeps the score argument-order
		// independent.
		forward := complementScore(a.TraitNorm(pair[0]), b.TraitNorm(pair[1]))
		reverse := complementScore(b.TraitNorm(pair[0]), a.TraitNorm(pair[1]))
		score += (forward + reverse) / 2
	}
	return score / float64(len(complementPairs))
}

func complementScore(v1, v2 float64) float64 {
	switch {
	case (v1 > 0.7 && v2 > 0.3 && v2 < 0.7) || (v2 > 0.7 && v1 > 0.3 && v1 < 0.7):
		return 0.3
	case abs(v1-v2) < 0.2:
		return 0.1
	}
	return 0
}

// interestOverlap is the Jaccard similarity of the two favorite-topic sets.
func interestOverlap(a, b character.Profile) float64 {
	setA := make(map[string]bool, len(a.FavoriteTopics))
	for _, t := range a.FavoriteTopics {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b.FavoriteTopics))
	for _, t := range b.FavoriteTopics {
		setB[t] = true
	}

	common := 0
	union := len(setA)
	for t := range setB {
		if setA[t] {
			common++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}

// commCompatibility scores closeness of chattiness and casualness levels,
// each normalized to [0, 1] and penalized by absolute difference.
func commCompatibility(a, b character.Profile) float64 {
	chatA := float64(a.Comm.Chattiness) / 10.0
	chatB := float64(b.Comm.Chattiness) / 10.0
	casualA := float64(a.Comm.Casualness) / 10.0
	casualB := float64(b.Comm.Casualness) / 10.0

	chatCompat := 1.0 - abs(chatA-chatB)*0.5
	casualCompat := 1.0 - abs(casualA-casualB)*0.3

	return (chatCompat + casualCompat) / 2
}

// goalAffinity is the fraction of the fixed keyword set appearing in both
// characters' stated growth goals. Neutral 0.5 when either list is empty.
func goalAffinity(a, b character.Profile) float64 {
	if len(a.GrowthGoals) == 0 || len(b.GrowthGoals) == 0 {
		return 0.5
	}

	textA := strings.ToLower(strings.Join(a.GrowthGoals, " "))
	textB := strings.ToLower(strings.Join(b.GrowthGoals, " "))

	shared := 0
	for _, kw := range goalKeywords {
		if strings.Contains(textA, kw) && strings.Contains(textB, kw) {
			shared++
		}
	}

	affinity := float64(shared) / float64(len(goalKeywords))
	if affinity > 1 {
		affinity = 1
	}
	return affinity
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
