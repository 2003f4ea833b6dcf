package domain

import (
	"encoding/json"
	"time"
)

// Status enumerates the refresh lifecycle of a stored article.
type Status string

const (
	StatusScraped    Status = "scraped"
	StatusProcessing Status = "processing"
	StatusUpdated    Status = "updated"
	StatusError      Status = "error"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusScraped, StatusProcessing, StatusUpdated, StatusError:
		return true
	default:
		return false
	}
}

// Article is the stored entity owned by the article service.
type Article struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	SourceURL       *string   `json:"url"`
	OriginalContent string    `json:"original_content"`
	UpdatedContent  *string   `json:"updated_content"`
	MetaDescription *string   `json:"meta_description"`
	Status          Status    `json:"status"`
	Citations       []string  `json:"citations"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewArticle carries the fields accepted when creating an article.
type NewArticle struct {
	Title           string   `json:"title"`
	SourceURL       *string  `json:"url,omitempty"`
	OriginalContent string   `json:"original_content,omitempty"`
	MetaDescription *string  `json:"meta_description,omitempty"`
	Status          Status   `json:"status,omitempty"`
	Citations       []string `json:"citations,omitempty"`
}

// ArticleUpdate is a partial update; nil fields are left untouched.
type ArticleUpdate struct {
	Status          *Status  `json:"status,omitempty"`
	UpdatedContent  *string  `json:"updated_content,omitempty"`
	MetaDescription *string  `json:"meta_description,omitempty"`
	Citations       []string `json:"citations,omitempty"`
}

// MarshalJSON keeps an empty, non-nil Citations slice in the payload so it clears
// stored citations, while a nil slice is left out.
func (u ArticleUpdate) MarshalJSON() ([]byte, error) {
	type plain ArticleUpdate
	out := struct {
		plain
		Citations *[]string `json:"citations,omitempty"`
	}{plain: plain(u)}
	if u.Citations != nil {
		out.Citations = &u.Citations
	}
	return json.Marshal(out)
}

// StatusUpdate builds an update that only moves the lifecycle state.
func StatusUpdate(s Status) ArticleUpdate {
	return ArticleUpdate{Status: &s}
}

// ArticleFilter narrows ListArticles. Zero values mean "no constraint".
type ArticleFilter struct {
	Status    Status
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PerPage   int
}

// ArticlePage is one page of a filtered listing.
type ArticlePage struct {
	Articles    []Article `json:"data"`
	CurrentPage int       `json:"current_page"`
	LastPage    int       `json:"last_page"`
	PerPage     int       `json:"per_page"`
	Total       int       `json:"total"`
}

// HasMore reports whether pages after this one exist.
func (p ArticlePage) HasMore() bool {
	return p.CurrentPage < p.LastPage
}
