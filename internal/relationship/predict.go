// Heuristic forward-looking predictions: advisory suggestions about where a
// relationship is headed, never authoritative.
package relationship

import "sort"

// Prediction is one candidate future interaction with its likelihood.
type Prediction struct {
	Event       string  `json:"event"`
	Probability float64 `json:"probability"`
	Description string  `json:"description"`
}

// Predict returns candidate next interactions for a pair, sorted by
// probability descending. An unmet pair predicts a first meeting.
func (e *Engine) Predict(idA, idB string) []Prediction {
	m, ok := e.metrics[NewPair(idA, idB)]
	if !ok {
		return []Prediction{{
			Event:       TypeFirstMeeting,
			Probability: 0.8,
			Description: "the two are likely to cross paths soon",
		}}
	}

	var predictions []Prediction

	if m.Trust > 70 && m.SharedExperiences > 5 {
		predictions = append(predictions, Prediction{
			Event:       "deep_conversation",
			Probability: 0.7,
			Description: "a heart-to-heart talk about what really matters",
		})
	}

	if m.Intimacy > 60 && m.Understanding < 50 {
		predictions = append(predictions, Prediction{
			Event:       "misunderstanding",
			Probability: 0.4,
			Description: "a small misread that puts temporary distance between them",
		})
	}

	if m.Compatibility > 80 && m.Intimacy > 50 {
		predictions = append(predictions, Prediction{
			Event:       "collaboration",
			Probability: 0.6,
			Description: "teaming up on a shared project",
		})
	}

	sort.Slice(predictions, func(i, j int) bool {
		return predictions[i].Probability > predictions[j].Probability
	})
	return predictions
}

// MatrixEntry summarizes one side of a pair for the exported matrix.
type MatrixEntry struct {
	Compatibility float64 `json:"compatibility"`
	Intimacy      float64 `json:"intimacy"`
	Trust         float64 `json:"trust"`
	Level         string  `json:"level"`
}

// Matrix exports the full pairwise relationship summary keyed by character
// id, mirrored in both directions.
func (e *Engine) Matrix() map[string]map[string]MatrixEntry {
	matrix := make(map[string]map[string]MatrixEntry)

	for _, key := range e.Pairs() {
		m := e.metrics[key]
		entry := MatrixEntry{
			Compatibility: m.Compatibility,
			Intimacy:      m.Intimacy,
			Trust:         m.Trust,
			Level:         e.Status(key.A, key.B).Level,
		}
		if matrix[key.A] == nil {
			matrix[key.A] = make(map[string]MatrixEntry)
		}
		if matrix[key.B] == nil {
			matrix[key.B] = make(map[string]MatrixEntry)
		}
		matrix[key.A][key.B] = entry
		matrix[key.B][key.A] = entry
	}

	return matrix
}
