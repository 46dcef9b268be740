package feedback

import "movieReco/domain"

// RewardForEvent turns a feedback event into an exploration reward in [0,1].
// Unknown kinds are neutral.
func RewardForEvent(ev domain.FeedbackEvent) float64 {
	return ev.Kind.Score()
}

// kindLabel bounds metric label cardinality to the known kinds.
func kindLabel(k domain.FeedbackKind) string {
	switch k {
	case domain.FeedbackLike, domain.FeedbackClick, domain.FeedbackDislike, domain.FeedbackView:
		return string(k)
	default:
		return "other"
	}
}
