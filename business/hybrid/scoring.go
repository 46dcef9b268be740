package hybrid

import "math"

// rewardWeight is the share of the final score taken by the exploration average.
const rewardWeight = 0.1

// Combine blends semantic and collaborative scores: alpha*semantic + (1-alpha)*collab.
func Combine(semantic, collab, alpha float64) float64 {
	return alpha*semantic + (1-alpha)*collab
}

// Adjust mixes in the item's average exploration reward.
func Adjust(combined, avgReward float64) float64 {
	return (1-rewardWeight)*combined + rewardWeight*avgReward
}

// round3 is for presentation only; ranking uses full precision.
func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
