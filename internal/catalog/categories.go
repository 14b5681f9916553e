package catalog

// Category names a curated collection of titles
type Category string

const (
	CategoryPopular     Category = "popular"
	CategoryTopRated    Category = "top_rated"
	CategoryNowPlaying  Category = "now_playing"
	CategoryUpcoming    Category = "upcoming"
	CategoryOnTheAir    Category = "on_the_air"
	CategoryAiringToday Category = "airing_today"
)

type categoryEntry struct {
	category Category
	path     string
}

// categorySet is the single source of truth for which categories exist per
// media type and which upstream path serves each of them.
var categorySet = map[MediaType][]categoryEntry{
	MediaTypeMovie: {
		{CategoryPopular, "/movie/popular"},
		{CategoryTopRated, "/movie/top_rated"},
		{CategoryNowPlaying, "/movie/now_playing"},
		{CategoryUpcoming, "/movie/upcoming"},
	},
	MediaTypeTV: {
		{CategoryPopular, "/tv/popular"},
		{CategoryTopRated, "/tv/top_rated"},
		{CategoryOnTheAir, "/tv/on_the_air"},
		{CategoryAiringToday, "/tv/airing_today"},
	},
}

// Categories lists the valid categories for a media type in display order
func Categories(mediaType MediaType) []Category {
	entries := categorySet[mediaType]
	out := make([]Category, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.category)
	}
	return out
}

// ValidCategory reports whether category belongs to the set for mediaType
func ValidCategory(mediaType MediaType, category Category) bool {
	_, ok := categoryPath(mediaType, category)
	return ok
}

func categoryPath(mediaType MediaType, category Category) (string, bool) {
	for _, e := range categorySet[mediaType] {
		if e.category == category {
			return e.path, true
		}
	}
	return "", false
}
