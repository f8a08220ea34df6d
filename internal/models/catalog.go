package models

import (
	"strings"
	"time"
)

type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaShow  MediaType = "show"
)

// ParseMediaType accepts the upstream spelling "tv" as an alias for show.
func ParseMediaType(s string) (MediaType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return MediaMovie, true
	case "show", "shows", "tv", "series":
		return MediaShow, true
	}
	return "", false
}

// UpstreamSegment is the path segment the metadata provider uses for this type.
func (m MediaType) UpstreamSegment() string {
	if m == MediaShow {
		return "tv"
	}
	return "movie"
}

type Category string

const (
	CategoryTrending    Category = "trending"
	CategoryPopular     Category = "popular"
	CategoryTopRated    Category = "top_rated"
	CategoryNowPlaying  Category = "now_playing"
	CategoryUpcoming    Category = "upcoming"
	CategoryOnTheAir    Category = "on_the_air"
	CategoryAiringToday Category = "airing_today"
	CategoryDiscover    Category = "discover"
)

// Supports reports whether the provider exposes category for media type m.
func (c Category) Supports(m MediaType) bool {
	switch c {
	case CategoryTrending, CategoryPopular, CategoryTopRated, CategoryDiscover:
		return true
	case CategoryNowPlaying, CategoryUpcoming:
		return m == MediaMovie
	case CategoryOnTheAir, CategoryAiringToday:
		return m == MediaShow
	}
	return false
}

type CatalogItem struct {
	ID           int64          `json:"id"`
	MediaType    MediaType      `json:"mediaType"`
	Title        string         `json:"title"`
	Overview     *string        `json:"overview,omitempty"`
	PosterPath   *string        `json:"posterPath"`
	BackdropPath *string        `json:"backdropPath"`
	ReleaseDate  *string        `json:"releaseDate,omitempty"`
	VoteAverage  float64        `json:"voteAverage"`
	Popularity   float64        `json:"popularity"`
	GenreIDs     []int          `json:"genreIds"`
	Visible      bool           `json:"visible"`
	UpdatedAt    time.Time      `json:"updatedAt,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// HasGenre reports whether id is among the item's genres.
func (c *CatalogItem) HasGenre(id int) bool {
	for _, g := range c.GenreIDs {
		if g == id {
			return true
		}
	}
	return false
}

type ListEnvelope struct {
	Page         int           `json:"page"`
	Results      []CatalogItem `json:"results"`
	TotalPages   int           `json:"totalPages"`
	TotalResults int           `json:"totalResults"`
	// Source names the tier that produced the envelope.
	Source string `json:"source,omitempty"`
}

// SinglePage wraps items in the envelope shape used by the mirror and
// fallback tiers.
func SinglePage(items []CatalogItem, source string) ListEnvelope {
	if items == nil {
		items = []CatalogItem{}
	}
	return ListEnvelope{
		Page:         1,
		Results:      items,
		TotalPages:   1,
		TotalResults: len(items),
		Source:       source,
	}
}

type QuerySpec struct {
	MediaType MediaType `json:"mediaType"`
	Category  Category  `json:"category"`
	GenreID   *int      `json:"genreId,omitempty"`
	Year      *int      `json:"year,omitempty"`
	Page      int       `json:"page"`
}

// Normalize clamps the page and replaces unsupported categories with popular.
func (q QuerySpec) Normalize() QuerySpec {
	if q.MediaType != MediaShow {
		q.MediaType = MediaMovie
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if !q.Category.Supports(q.MediaType) {
		q.Category = CategoryPopular
	}
	return q
}
