package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blakestevenson/marquee/internal/apperr"
	"github.com/blakestevenson/marquee/internal/auth"
	"github.com/blakestevenson/marquee/internal/catalog"
)

// fakeCatalog counts calls and returns canned results
type fakeCatalog struct {
	mu    sync.Mutex
	calls map[string]int

	page    *catalog.PageResult
	media   catalog.Media
	related []catalog.Media
	err     error

	lastPage  int
	lastQuery string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		calls: map[string]int{},
		page:  &catalog.PageResult{Results: []catalog.Media{catalog.Movie{ID: 1, Title: "A"}}, Page: 1, TotalPages: 1, TotalResults: 1},
	}
}

func (f *fakeCatalog) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeCatalog) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeCatalog) FetchByCategory(_ context.Context, _ catalog.MediaType, _ catalog.Category, page int) (*catalog.PageResult, error) {
	f.record("category")
	f.lastPage = page
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeCatalog) FetchDetails(context.Context, catalog.MediaType, int) (catalog.Media, error) {
	f.record("details")
	if f.err != nil {
		return nil, f.err
	}
	return f.media, nil
}

func (f *fakeCatalog) FetchRelated(context.Context, catalog.MediaType, int) ([]catalog.Media, error) {
	f.record("related")
	if f.err != nil {
		return nil, f.err
	}
	return f.related, nil
}

func (f *fakeCatalog) Search(_ context.Context, _ catalog.MediaType, query string, page int) (*catalog.PageResult, error) {
	f.record("search")
	f.lastQuery = query
	f.lastPage = page
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

var signedIn = auth.Authenticated(auth.Subject{UserID: 1, Name: "Ada", Email: "ada@example.com"})

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Message
}

func TestListCategoryValidation(t *testing.T) {
	tests := []struct {
		name     string
		typ      string
		category string
		want     string
	}{
		{"missing type", "", "popular", "Invalid media type"},
		{"unknown type", "book", "popular", "Invalid media type"},
		{"missing category", "movie", "", "Category is required"},
		{"tv category on movie", "movie", "on_the_air", "Invalid movie category"},
		{"movie category on tv", "tv", "now_playing", "Invalid TV category"},
		{"unknown category", "tv", "trending", "Invalid TV category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeCatalog()
			svc := NewService(fake, zap.NewNop())

			_, err := svc.ListCategory(context.Background(), signedIn, tt.typ, tt.category, "1")
			assert.Equal(t, tt.want, validationMessage(t, err))
			assert.Zero(t, fake.total())
		})
	}
}

func TestListCategoryTopRatedRequiresAuth(t *testing.T) {
	for _, typ := range []string{"movie", "tv"} {
		t.Run(typ, func(t *testing.T) {
			fake := newFakeCatalog()
			svc := NewService(fake, zap.NewNop())

			_, err := svc.ListCategory(context.Background(), auth.Anonymous(), typ, "top_rated", "1")
			assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
			assert.Zero(t, fake.total())

			page, err := svc.ListCategory(context.Background(), signedIn, typ, "top_rated", "1")
			require.NoError(t, err)
			assert.Same(t, fake.page, page)
			assert.Equal(t, 1, fake.total())
		})
	}
}

func TestListCategoryPage(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{"0", 1},
		{"-4", 1},
		{"2", 2},
		{" 7 ", 7},
	}

	for _, tt := range tests {
		t.Run("page="+tt.raw, func(t *testing.T) {
			fake := newFakeCatalog()
			svc := NewService(fake, zap.NewNop())

			_, err := svc.ListCategory(context.Background(), auth.Anonymous(), "movie", "popular", tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fake.lastPage)
		})
	}
}

func TestListCategoryUpstreamFailure(t *testing.T) {
	fake := newFakeCatalog()
	fake.err = &catalog.UpstreamError{Status: http.StatusInternalServerError, Reason: "Failed to fetch tv popular"}
	svc := NewService(fake, zap.NewNop())

	_, err := svc.ListCategory(context.Background(), auth.Anonymous(), "tv", "popular", "1")

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Failed to fetch tv popular", fe.Message)

	var upstream *catalog.UpstreamError
	assert.ErrorAs(t, err, &upstream)
}

func TestDetails(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		fake := newFakeCatalog()
		svc := NewService(fake, zap.NewNop())

		for _, raw := range []string{"abc", "", "0", "-1", "1.5"} {
			_, err := svc.Details(context.Background(), catalog.MediaTypeMovie, raw)
			assert.Equal(t, "Invalid movie ID", validationMessage(t, err))

			_, err = svc.Details(context.Background(), catalog.MediaTypeTV, raw)
			assert.Equal(t, "Invalid TV show ID", validationMessage(t, err))
		}
		assert.Zero(t, fake.total())
	})

	t.Run("found", func(t *testing.T) {
		fake := newFakeCatalog()
		fake.media = catalog.MovieDetails{Movie: catalog.Movie{ID: 550, Title: "Fight Club"}, Runtime: 139}
		svc := NewService(fake, zap.NewNop())

		media, err := svc.Details(context.Background(), catalog.MediaTypeMovie, "550")
		require.NoError(t, err)
		assert.Equal(t, "Fight Club", catalog.DisplayTitle(media))
	})

	t.Run("not found", func(t *testing.T) {
		fake := newFakeCatalog()
		fake.err = &catalog.UpstreamError{Status: http.StatusNotFound, Reason: "Failed to fetch TV show details"}
		svc := NewService(fake, zap.NewNop())

		_, err := svc.Details(context.Background(), catalog.MediaTypeTV, "12")
		assert.ErrorIs(t, err, catalog.ErrNotFound)

		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "TV show not found", fe.Message)
	})

	t.Run("upstream failure", func(t *testing.T) {
		fake := newFakeCatalog()
		fake.err = &catalog.UpstreamError{Err: errors.New("dial tcp: timeout")}
		svc := NewService(fake, zap.NewNop())

		_, err := svc.Details(context.Background(), catalog.MediaTypeMovie, "12")
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "Failed to fetch movie details", fe.Message)
		assert.NotErrorIs(t, err, catalog.ErrNotFound)
	})
}

func TestRelated(t *testing.T) {
	fake := newFakeCatalog()
	fake.related = []catalog.Media{catalog.TVShow{ID: 2, Name: "B"}}
	svc := NewService(fake, zap.NewNop())

	related, err := svc.Related(context.Background(), catalog.MediaTypeTV, "1")
	require.NoError(t, err)
	assert.Len(t, related, 1)

	_, err = svc.Related(context.Background(), catalog.MediaTypeTV, "x")
	assert.Equal(t, "Invalid TV show ID", validationMessage(t, err))

	fake.err = &catalog.UpstreamError{Status: http.StatusBadGateway}
	_, err = svc.Related(context.Background(), catalog.MediaTypeMovie, "1")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Failed to fetch related movies", fe.Message)

	_, err = svc.Related(context.Background(), catalog.MediaTypeTV, "1")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Failed to fetch related TV shows", fe.Message)
}

func TestSearch(t *testing.T) {
	t.Run("query required", func(t *testing.T) {
		fake := newFakeCatalog()
		svc := NewService(fake, zap.NewNop())

		for _, q := range []string{"", "   ", "\t"} {
			_, err := svc.Search(context.Background(), "movie", q, "")
			assert.Equal(t, "Search query is required", validationMessage(t, err))
		}
		assert.Zero(t, fake.total())
	})

	t.Run("invalid type", func(t *testing.T) {
		fake := newFakeCatalog()
		svc := NewService(fake, zap.NewNop())

		_, err := svc.Search(context.Background(), "person", "bob", "")
		assert.Equal(t, "Invalid media type", validationMessage(t, err))
		assert.Zero(t, fake.total())
	})

	t.Run("defaults to movie", func(t *testing.T) {
		fake := newFakeCatalog()
		svc := NewService(fake, zap.NewNop())

		results, err := svc.Search(context.Background(), "", "  alien ", "3")
		require.NoError(t, err)
		assert.Equal(t, fake.page.Results, results)
		assert.Equal(t, "  alien ", fake.lastQuery)
		assert.Equal(t, 3, fake.lastPage)
	})

	t.Run("failure", func(t *testing.T) {
		fake := newFakeCatalog()
		fake.err = &catalog.UpstreamError{Status: http.StatusInternalServerError}
		svc := NewService(fake, zap.NewNop())

		_, err := svc.Search(context.Background(), "tv", "wire", "")
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "Failed to search tv", fe.Message)
	})
}

// The upstream page object must reach the caller unmodified
func TestListCategoryRelaysUpstreamPage(t *testing.T) {
	upstream := `{
		"page": 2,
		"results": [{
			"id": 693134,
			"title": "Dune: Part Two",
			"original_title": "Dune: Part Two",
			"original_language": "en",
			"overview": "Paul Atreides unites with Chani.",
			"poster_path": "/1pdfLvkbY9ohJlCjQH2CZjjYVvJ.jpg",
			"backdrop_path": null,
			"release_date": "2024-02-27",
			"vote_average": 8.2,
			"vote_count": 5000,
			"popularity": 1234.5,
			"genre_ids": [878, 12],
			"adult": false,
			"video": false
		}],
		"total_pages": 42,
		"total_results": 830
	}`

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/movie/popular", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(upstream))
	}))
	defer srv.Close()

	client, err := catalog.NewClient(catalog.Config{
		BaseURL: srv.URL,
		APIKey:  "secret-token",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	svc := NewService(client, zap.NewNop())
	page, err := svc.ListCategory(context.Background(), auth.Anonymous(), "movie", "popular", "2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())

	relayed, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, upstream, string(relayed))
}

func TestListCategoryRelaysDatesAndSparseResults(t *testing.T) {
	upstream := `{
		"dates": {"maximum": "2024-06-12", "minimum": "2024-05-01"},
		"page": 1,
		"results": [{"id": 1, "title": "A", "media_type": "movie"}],
		"total_pages": 1,
		"total_results": 1
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/now_playing", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(upstream))
	}))
	defer srv.Close()

	client, err := catalog.NewClient(catalog.Config{
		BaseURL: srv.URL,
		APIKey:  "secret-token",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	svc := NewService(client, zap.NewNop())
	page, err := svc.ListCategory(context.Background(), auth.Anonymous(), "movie", "now_playing", "1")
	require.NoError(t, err)

	relayed, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, upstream, string(relayed))
}

func TestSearchRelaysResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, " dune ", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":438631,"title":"Dune","media_type":"movie"}],"total_pages":1,"total_results":1}`))
	}))
	defer srv.Close()

	client, err := catalog.NewClient(catalog.Config{
		BaseURL: srv.URL,
		APIKey:  "secret-token",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	results, err := NewService(client, zap.NewNop()).Search(context.Background(), "movie", " dune ", "")
	require.NoError(t, err)

	relayed, err := json.Marshal(results)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":438631,"title":"Dune","media_type":"movie"}]`, string(relayed))
}
