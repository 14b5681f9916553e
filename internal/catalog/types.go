package catalog

import (
	"encoding/json"
	"strconv"
)

// MediaType identifies the two kinds of titles the catalog serves
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// ParseMediaType converts a request value into a MediaType
func ParseMediaType(s string) (MediaType, bool) {
	switch MediaType(s) {
	case MediaTypeMovie:
		return MediaTypeMovie, true
	case MediaTypeTV:
		return MediaTypeTV, true
	default:
		return "", false
	}
}

// Noun returns the human-readable singular used in messages ("movie", "TV show")
func (t MediaType) Noun() string {
	if t == MediaTypeTV {
		return "TV show"
	}
	return "movie"
}

// Media is a catalog title: Movie, TVShow, MovieDetails or TVShowDetails.
// Use DisplayTitle and ReleaseYear instead of reading variant fields directly.
type Media interface {
	Kind() MediaType
	CatalogID() int
	displayTitle() string
	releaseDate() string
}

// DisplayTitle returns the title of a movie or the name of a TV show
func DisplayTitle(m Media) string {
	return m.displayTitle()
}

// ReleaseYear returns the year of the release date (movie) or first air date (tv),
// or 0 when unknown
func ReleaseYear(m Media) int {
	date := m.releaseDate()
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// Movie is a movie as returned by list and search endpoints
type Movie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
}

func (m Movie) Kind() MediaType      { return MediaTypeMovie }
func (m Movie) CatalogID() int       { return m.ID }
func (m Movie) displayTitle() string { return m.Title }
func (m Movie) releaseDate() string  { return m.ReleaseDate }

// TVShow is a TV show as returned by list and search endpoints
type TVShow struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	OriginalName     string   `json:"original_name"`
	OriginalLanguage string   `json:"original_language"`
	Overview         string   `json:"overview"`
	PosterPath       *string  `json:"poster_path"`
	BackdropPath     *string  `json:"backdrop_path"`
	FirstAirDate     string   `json:"first_air_date"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int      `json:"vote_count"`
	Popularity       float64  `json:"popularity"`
	GenreIDs         []int    `json:"genre_ids,omitempty"`
	OriginCountry    []string `json:"origin_country,omitempty"`
}

func (s TVShow) Kind() MediaType      { return MediaTypeTV }
func (s TVShow) CatalogID() int       { return s.ID }
func (s TVShow) displayTitle() string { return s.Name }
func (s TVShow) releaseDate() string  { return s.FirstAirDate }

// Genre is an id/name pair
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Company is a production company
type Company struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	LogoPath      *string `json:"logo_path"`
	OriginCountry string  `json:"origin_country"`
}

// MovieDetails is the detail view of a movie
type MovieDetails struct {
	Movie
	Runtime             int       `json:"runtime"`
	Genres              []Genre   `json:"genres"`
	ProductionCompanies []Company `json:"production_companies"`
	Tagline             string    `json:"tagline"`
	Status              string    `json:"status"`
	Homepage            string    `json:"homepage"`
	IMDBID              *string   `json:"imdb_id"`
	Budget              int64     `json:"budget"`
	Revenue             int64     `json:"revenue"`
}

// Season summarises one season of a TV show
type Season struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	SeasonNumber int     `json:"season_number"`
	EpisodeCount int     `json:"episode_count"`
	AirDate      *string `json:"air_date"`
	PosterPath   *string `json:"poster_path"`
}

// TVShowDetails is the detail view of a TV show
type TVShowDetails struct {
	TVShow
	EpisodeRunTime      []int     `json:"episode_run_time"`
	Genres              []Genre   `json:"genres"`
	ProductionCompanies []Company `json:"production_companies"`
	NumberOfSeasons     int       `json:"number_of_seasons"`
	NumberOfEpisodes    int       `json:"number_of_episodes"`
	Seasons             []Season  `json:"seasons"`
	Tagline             string    `json:"tagline"`
	Status              string    `json:"status"`
	Homepage            string    `json:"homepage"`
	InProduction        bool      `json:"in_production"`
	LastAirDate         *string   `json:"last_air_date"`
}

// PageResult is one page of a collection endpoint. A page decoded from the
// upstream encodes back to the upstream body unchanged, including keys the
// struct does not model such as "dates".
type PageResult struct {
	Results      []Media `json:"results"`
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`

	raw json.RawMessage
}

func (p PageResult) MarshalJSON() ([]byte, error) {
	if p.raw != nil {
		return p.raw, nil
	}
	type page PageResult
	return json.Marshal(page(p))
}

// sourced is a title decoded from an upstream payload. It answers the Media
// accessors from the decoded variant and encodes as the payload itself.
type sourced struct {
	Media
	raw json.RawMessage
}

func (s sourced) MarshalJSON() ([]byte, error) {
	return s.raw, nil
}

func withSource(m Media, raw []byte) Media {
	return sourced{Media: m, raw: raw}
}

// Variant returns the concrete Movie, TVShow, MovieDetails or TVShowDetails
// behind m
func Variant(m Media) Media {
	if s, ok := m.(sourced); ok {
		return s.Media
	}
	return m
}
