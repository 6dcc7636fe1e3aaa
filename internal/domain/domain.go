package domain

import "time"

// Article is one registered news article.
type Article struct {
	ID        int64      `json:"id"`
	URL       string     `json:"url"`
	Title     string     `json:"title"`
	Summary   string     `json:"summary"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ArticleUpdate carries a partial update. Nil fields are left untouched.
type ArticleUpdate struct {
	Title   *string
	Summary *string
}
