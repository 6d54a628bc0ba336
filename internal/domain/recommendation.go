package domain

// Recommendation is one suggested book returned by the recommendation service.
type Recommendation struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Recommendations is the recommendation service's answer for one reader.
type Recommendations struct {
	Items      []Recommendation `json:"recommendations"`
	TopGenres  []string         `json:"top_genres"`
	TopAuthors []string         `json:"top_authors"`
}
