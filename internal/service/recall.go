package service

import (
	"math"
	"sort"

	"npcbrain/internal/model"
)

// RecallRanker scores recalled utterances. Vector distance alone favors old
// stale commands; a recency term keeps recent phrasing near the top.
type RecallRanker struct {
	weightSimilarity float64
	weightRecency    float64
}

// NewRecallRanker creates a ranker with the given weights
func NewRecallRanker(weightSimilarity, weightRecency float64) *RecallRanker {
	return &RecallRanker{
		weightSimilarity: weightSimilarity,
		weightRecency:    weightRecency,
	}
}

// Rank fills in combined scores and sorts matches best first
func (r *RecallRanker) Rank(matches []model.UtteranceMatch) []model.UtteranceMatch {
	for i := range matches {
		similarity := clamp01(matches[i].Similarity)
		recency := recencyScore(matches[i].AgeSeconds)
		matches[i].Score = r.weightSimilarity*similarity + r.weightRecency*recency
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// recencyScore decays with age, half-life of one day
func recencyScore(ageSeconds float64) float64 {
	if ageSeconds <= 0 {
		return 1.0
	}
	const halfLife = 24 * 60 * 60
	return math.Exp(-math.Ln2 * ageSeconds / halfLife)
}
