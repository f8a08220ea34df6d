package services

import "marquee/internal/models"

func sp(s string) *string { return &s }

// staticMovies and staticShows are served only when both the provider and
// the mirror come back empty, so a listing row is never blank.
var staticMovies = []models.CatalogItem{
	{ID: 278, Title: "The Shawshank Redemption", PosterPath: sp("/9cqNxx0GxF0bflZmeSMuL5tnGzr.jpg"), ReleaseDate: sp("1994-09-23"), VoteAverage: 8.7, Popularity: 120, GenreIDs: []int{18, 80}},
	{ID: 238, Title: "The Godfather", PosterPath: sp("/3bhkrj58Vtu7enYsRolD1fZdja1.jpg"), ReleaseDate: sp("1972-03-14"), VoteAverage: 8.7, Popularity: 110, GenreIDs: []int{18, 80}},
	{ID: 155, Title: "The Dark Knight", PosterPath: sp("/qJ2tW6WMUDux911r6m7haRef0WH.jpg"), ReleaseDate: sp("2008-07-16"), VoteAverage: 8.5, Popularity: 105, GenreIDs: []int{18, 28, 80, 53}},
	{ID: 550, Title: "Fight Club", PosterPath: sp("/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg"), ReleaseDate: sp("1999-10-15"), VoteAverage: 8.4, Popularity: 90, GenreIDs: []int{18}},
	{ID: 680, Title: "Pulp Fiction", PosterPath: sp("/d5iIlFn5s0ImszYzBPb8JPIfbXD.jpg"), ReleaseDate: sp("1994-09-10"), VoteAverage: 8.5, Popularity: 88, GenreIDs: []int{53, 80}},
	{ID: 13, Title: "Forrest Gump", PosterPath: sp("/arw2vcBveWOVZr6pxd9XTd1TdQa.jpg"), ReleaseDate: sp("1994-06-23"), VoteAverage: 8.5, Popularity: 85, GenreIDs: []int{35, 18, 10749}},
	{ID: 603, Title: "The Matrix", PosterPath: sp("/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg"), ReleaseDate: sp("1999-03-30"), VoteAverage: 8.2, Popularity: 80, GenreIDs: []int{28, 878}},
	{ID: 27205, Title: "Inception", PosterPath: sp("/oYuLEt3zVCKq57qu2F8dT7NIa6f.jpg"), ReleaseDate: sp("2010-07-15"), VoteAverage: 8.4, Popularity: 95, GenreIDs: []int{28, 878, 12}},
	{ID: 129, Title: "Spirited Away", PosterPath: sp("/39wmItIWsg5sZMyRUHLkWBcuVCM.jpg"), ReleaseDate: sp("2001-07-20"), VoteAverage: 8.5, Popularity: 75, GenreIDs: []int{16, 10751, 14}},
	{ID: 157336, Title: "Interstellar", PosterPath: sp("/gEU2QniE6E77NI6lCU6MxlNBvIx.jpg"), ReleaseDate: sp("2014-11-05"), VoteAverage: 8.4, Popularity: 100, GenreIDs: []int{12, 18, 878}},
}

var staticShows = []models.CatalogItem{
	{ID: 1396, Title: "Breaking Bad", PosterPath: sp("/ztkUQFLlC19CCMYHW9o1zWhJRNq.jpg"), ReleaseDate: sp("2008-01-20"), VoteAverage: 8.9, Popularity: 150, GenreIDs: []int{18, 80}},
	{ID: 1399, Title: "Game of Thrones", PosterPath: sp("/1XS1oqL89opfnbLl8WnZY1O1uJx.jpg"), ReleaseDate: sp("2011-04-17"), VoteAverage: 8.4, Popularity: 140, GenreIDs: []int{10765, 18, 10759}},
	{ID: 66732, Title: "Stranger Things", PosterPath: sp("/49WJfeN0moxb9IPfGn8AIqMGskD.jpg"), ReleaseDate: sp("2016-07-15"), VoteAverage: 8.6, Popularity: 130, GenreIDs: []int{18, 10765, 9648}},
	{ID: 1668, Title: "Friends", PosterPath: sp("/f496cm9enuEsZkSPzCwnTESEK5s.jpg"), ReleaseDate: sp("1994-09-22"), VoteAverage: 8.4, Popularity: 120, GenreIDs: []int{35, 18}},
	{ID: 60059, Title: "Better Call Saul", PosterPath: sp("/fC2HDm5t0kHl7mTm7jxMR31b7by.jpg"), ReleaseDate: sp("2015-02-08"), VoteAverage: 8.7, Popularity: 90, GenreIDs: []int{80, 18}},
	{ID: 94605, Title: "Arcane", PosterPath: sp("/fqldf2t8ztc9aiwn3k6mlX3tvRT.jpg"), ReleaseDate: sp("2021-11-06"), VoteAverage: 8.7, Popularity: 85, GenreIDs: []int{16, 10765, 10759}},
	{ID: 2316, Title: "The Office", PosterPath: sp("/7DJKHzAi83BmQrWLrYYOqcoKfhR.jpg"), ReleaseDate: sp("2005-03-24"), VoteAverage: 8.6, Popularity: 110, GenreIDs: []int{35}},
	{ID: 100088, Title: "The Last of Us", PosterPath: sp("/uKvVjHNqB5VmOrdxqAt2F7J78ED.jpg"), ReleaseDate: sp("2023-01-15"), VoteAverage: 8.6, Popularity: 125, GenreIDs: []int{18}},
}

// StaticFallback returns up to limit hand-picked items for m, tagged with m
// and marked visible. The returned slice is a copy.
func StaticFallback(m models.MediaType, limit int) []models.CatalogItem {
	src := staticMovies
	if m == models.MediaShow {
		src = staticShows
	}
	if limit <= 0 || limit > len(src) {
		limit = len(src)
	}

	out := make([]models.CatalogItem, limit)
	copy(out, src[:limit])
	for i := range out {
		out[i].MediaType = m
		out[i].Visible = true
		out[i].GenreIDs = append([]int(nil), out[i].GenreIDs...)
	}
	return out
}
