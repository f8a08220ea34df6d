package models

// Upstream field names. Movies and shows spell title and release date
// differently.
const (
	FieldID           = "id"
	FieldTitle        = "title"
	FieldName         = "name"
	FieldReleaseDate  = "release_date"
	FieldFirstAirDate = "first_air_date"
	FieldOverview     = "overview"
	FieldPosterPath   = "poster_path"
	FieldBackdropPath = "backdrop_path"
	FieldVoteAverage  = "vote_average"
	FieldPopularity   = "popularity"
	FieldGenreIDs     = "genre_ids"
	FieldMediaType    = "media_type"

	FieldPage         = "page"
	FieldResults      = "results"
	FieldTotalPages   = "total_pages"
	FieldTotalResults = "total_results"
)

// TitleFields returns the primary and alternate title field for m.
func TitleFields(m MediaType) (string, string) {
	if m == MediaShow {
		return FieldName, FieldTitle
	}
	return FieldTitle, FieldName
}

// DateFields returns the primary and alternate release date field for m.
func DateFields(m MediaType) (string, string) {
	if m == MediaShow {
		return FieldFirstAirDate, FieldReleaseDate
	}
	return FieldReleaseDate, FieldFirstAirDate
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var MovieGenres = []Genre{
	{28, "Action"},
	{12, "Adventure"},
	{16, "Animation"},
	{35, "Comedy"},
	{80, "Crime"},
	{99, "Documentary"},
	{18, "Drama"},
	{10751, "Family"},
	{14, "Fantasy"},
	{36, "History"},
	{27, "Horror"},
	{10402, "Music"},
	{9648, "Mystery"},
	{10749, "Romance"},
	{878, "Science Fiction"},
	{53, "Thriller"},
	{10752, "War"},
	{37, "Western"},
}

var ShowGenres = []Genre{
	{10759, "Action & Adventure"},
	{16, "Animation"},
	{35, "Comedy"},
	{80, "Crime"},
	{99, "Documentary"},
	{18, "Drama"},
	{10751, "Family"},
	{10762, "Kids"},
	{9648, "Mystery"},
	{10764, "Reality"},
	{10765, "Sci-Fi & Fantasy"},
	{10768, "War & Politics"},
	{37, "Western"},
}

// GenresFor returns the genre catalogue for m.
func GenresFor(m MediaType) []Genre {
	if m == MediaShow {
		return ShowGenres
	}
	return MovieGenres
}
