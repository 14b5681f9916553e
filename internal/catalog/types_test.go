package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaType(t *testing.T) {
	mt, ok := ParseMediaType("tv")
	assert.True(t, ok)
	assert.Equal(t, MediaTypeTV, mt)

	_, ok = ParseMediaType("book")
	assert.False(t, ok)

	_, ok = ParseMediaType("")
	assert.False(t, ok)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []Category{CategoryPopular, CategoryTopRated, CategoryNowPlaying, CategoryUpcoming}, Categories(MediaTypeMovie))
	assert.Equal(t, []Category{CategoryPopular, CategoryTopRated, CategoryOnTheAir, CategoryAiringToday}, Categories(MediaTypeTV))

	assert.True(t, ValidCategory(MediaTypeMovie, CategoryUpcoming))
	assert.False(t, ValidCategory(MediaTypeMovie, CategoryOnTheAir))
	assert.False(t, ValidCategory(MediaTypeTV, CategoryNowPlaying))
	assert.False(t, ValidCategory(MediaType("book"), CategoryPopular))
}

func TestDisplayTitleAndYear(t *testing.T) {
	tests := []struct {
		name  string
		media Media
		title string
		year  int
	}{
		{"movie", Movie{Title: "Alien", ReleaseDate: "1979-05-25"}, "Alien", 1979},
		{"tv", TVShow{Name: "The Wire", FirstAirDate: "2002-06-02"}, "The Wire", 2002},
		{"movie details", MovieDetails{Movie: Movie{Title: "Heat", ReleaseDate: "1995-12-15"}}, "Heat", 1995},
		{"missing date", Movie{Title: "Untitled"}, "Untitled", 0},
		{"garbage date", TVShow{Name: "X", FirstAirDate: "soon"}, "X", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.title, DisplayTitle(tt.media))
			assert.Equal(t, tt.year, ReleaseYear(tt.media))
		})
	}
}

func TestPageResultEncoding(t *testing.T) {
	page := PageResult{
		Results:      []Media{Movie{ID: 1, Title: "A"}},
		Page:         3,
		TotalPages:   9,
		TotalResults: 170,
	}

	data, err := json.Marshal(page)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 3, decoded["page"])
	assert.EqualValues(t, 9, decoded["total_pages"])
	assert.EqualValues(t, 170, decoded["total_results"])

	results, ok := decoded["results"].([]any)
	require.True(t, ok)
	first := results[0].(map[string]any)
	assert.Equal(t, "A", first["title"])
	assert.Nil(t, first["poster_path"])
}
