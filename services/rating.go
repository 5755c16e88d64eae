package services

import "math"

const (
	// InitialRating is the rating every player starts the ladder with.
	InitialRating = 1000

	// BaseKFactor caps how far a single match can move a rating before the
	// margin multiplier is applied.
	BaseKFactor = 32.0
)

// ComputeRatingDeltas returns the signed rating changes for both sides of a
// match, given their current ratings and the points each scored.
//
// Expected outcome comes from the standard logistic pairing on a 400-point
// scale. Actual performance is the share of total points scored, with a 0-0
// match defined as a tie to avoid dividing by zero. A margin multiplier in
// [0.5, 1.5] scales the swing by how lopsided the scoreline was: 0.5 for a
// deadlocked match up to 1.5 for a shutout.
//
// Each delta is truncated toward zero independently. Stored rating history
// depends on this exact arithmetic; it must not be changed to round or to
// force the two deltas to sum to zero.
func ComputeRatingDeltas(ratingA, ratingB, scoreA, scoreB int) (int, int) {
	expectedA := 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
	expectedB := 1.0 - expectedA

	totalPoints := scoreA + scoreB
	actualA, actualB := 0.5, 0.5 // 0-0 counts as a tie
	if totalPoints > 0 {
		actualA = float64(scoreA) / float64(totalPoints)
		actualB = float64(scoreB) / float64(totalPoints)
	}

	pointDiff := scoreA - scoreB
	if pointDiff < 0 {
		pointDiff = -pointDiff
	}
	maxScore := scoreA
	if scoreB > maxScore {
		maxScore = scoreB
	}
	multiplier := 1.0
	if maxScore > 0 {
		multiplier = 0.5 + float64(pointDiff)/float64(maxScore)
	}

	deltaA := int(BaseKFactor * multiplier * (actualA - expectedA))
	deltaB := int(BaseKFactor * multiplier * (actualB - expectedB))

	return deltaA, deltaB
}
