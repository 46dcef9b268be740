package domain

// ScoredItem is a semantic search hit.
type ScoredItem struct {
	Item  Item    `json:"item"`
	Score float64 `json:"score"`
}

type Recommendation struct {
	ItemID             int64    `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Year               *int     `json:"year,omitempty"`
	PosterPath         *string  `json:"poster_path,omitempty"`
	Rating             *float64 `json:"rating,omitempty"`
	SemanticScore      float64  `json:"semantic_score"`
	CollaborativeScore float64  `json:"collaborative_score"`
	FinalScore         float64  `json:"final_score"`
	Explored           bool     `json:"explored"`
}
