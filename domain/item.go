package domain

import (
	"strings"

	"github.com/goccy/go-json"
)

// Item is a catalog movie. The core treats it as read-only.
type Item struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Genres      Genres   `json:"genres"`
	Year        *int     `json:"year,omitempty"`
	PosterPath  *string  `json:"poster_path,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

// EmbeddingText is the text fed to the embedding function for this item.
func (it Item) EmbeddingText() string {
	return it.Description + " Genre: " + it.Genres.String()
}

// Genres decodes from either a JSON list or a delimited string ("Action, Drama" or "Action|Drama").
type Genres []string

func (g *Genres) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*g = nil
		return nil
	}

	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*g = cleanGenres(list)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	sep := ","
	if strings.Contains(s, "|") {
		sep = "|"
	}
	*g = cleanGenres(strings.Split(s, sep))
	return nil
}

func (g Genres) String() string {
	return strings.Join(g, ", ")
}

func cleanGenres(in []string) Genres {
	out := make(Genres, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
