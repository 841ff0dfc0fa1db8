package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/modules/catalogmodule"
)

func testCatalog(t *testing.T) (*catalogmodule.Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.AllModels()...))
	return catalogmodule.NewService(db, catalogmodule.PageSizes{}), db
}

// fakeTMDB serves one page of one listing with a single movie.
func fakeTMDB(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/movie/popular", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"page":        1,
			"total_pages": 1,
			"results": []map[string]interface{}{
				{"id": 603, "title": "The Matrix", "release_date": "1999-03-31"},
				{"id": 604, "title": "", "release_date": "2003-05-15"},
			},
		})
	})
	mux.HandleFunc("/movie/603", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":           603,
			"title":        "The Matrix",
			"overview":     "a hacker learns the truth",
			"release_date": "1999-03-31",
			"runtime":      136,
			"poster_path":  "/matrix.jpg",
			"genres":       []map[string]interface{}{{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}},
		})
	})
	mux.HandleFunc("/movie/603/credits", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"cast": []map[string]interface{}{
				{"name": "Keanu Reeves", "order": 0},
				{"name": "Laurence Fishburne", "order": 1},
				{"name": "Carrie-Anne Moss", "order": 2},
				{"name": "Hugo Weaving", "order": 3},
				{"name": "Gloria Foster", "order": 4},
				{"name": "Joe Pantoliano", "order": 5},
			},
			"crew": []map[string]interface{}{
				{"name": "Lana Wachowski", "job": "Director", "department": "Directing"},
				{"name": "Lilly Wachowski", "job": "Director", "department": "Directing"},
				{"name": "Lana Wachowski", "job": "Screenplay", "department": "Writing"},
				{"name": "Joel Silver", "job": "Producer", "department": "Production"},
				{"name": "Someone Else", "job": "Gaffer", "department": "Lighting"},
			},
		})
	})
	// Fall through to 404 for other listing endpoints.
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testIngestConfig(baseURL string) config.IngestConfig {
	return config.IngestConfig{
		BaseURL:      baseURL,
		ImageBaseURL: "https://image.example/w500",
		APIKey:       "test-key",
		RequestDelay: time.Millisecond,
		MovieTarget:  50,
		CastLimit:    10,
	}
}

func TestRunImportsMovieWithCredits(t *testing.T) {
	server := fakeTMDB(t)
	catalog, db := testCatalog(t)
	cfg := testIngestConfig(server.URL)

	runner := NewRunner(NewClient(cfg), catalog, cfg)
	stats, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, 1, stats.Skipped) // the titleless stub

	var movie database.Movie
	require.NoError(t, db.Where("name = ?", "The Matrix").First(&movie).Error)
	assert.Equal(t, 136, movie.LengthMinutes)
	assert.Equal(t, "Action", movie.Genre)
	assert.Equal(t, "https://image.example/w500/matrix.jpg", movie.PosterURL)
	assert.Equal(t, 1999, movie.ReleaseDate.Year())

	var cast []database.MovieCast
	require.NoError(t, db.Preload("Person").Where("movie_id = ?", movie.ID).Order("id").Find(&cast).Error)
	roles := map[string]string{}
	for _, entry := range cast {
		roles[entry.Person.Name+"/"+entry.Role] = entry.Role
	}
	assert.Contains(t, roles, "Keanu Reeves/Lead")
	assert.Contains(t, roles, "Laurence Fishburne/Supporting")
	assert.Contains(t, roles, "Carrie-Anne Moss/Supporting")
	assert.Contains(t, roles, "Hugo Weaving/Supporting")
	assert.Contains(t, roles, "Gloria Foster/Supporting")
	assert.Contains(t, roles, "Joe Pantoliano/Actor")
	assert.Contains(t, roles, "Lana Wachowski/Director")
	assert.Contains(t, roles, "Lana Wachowski/Screenplay")
	assert.Contains(t, roles, "Joel Silver/Producer")
	assert.NotContains(t, roles, "Someone Else/Gaffer")
}

func TestRunSkipsExistingMovies(t *testing.T) {
	server := fakeTMDB(t)
	catalog, db := testCatalog(t)
	cfg := testIngestConfig(server.URL)

	existing := database.Movie{Name: "The Matrix", LengthMinutes: 136,
		ReleaseDate: time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, db.Create(&existing).Error)

	runner := NewRunner(NewClient(cfg), catalog, cfg)
	stats, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Imported)
	assert.Equal(t, 2, stats.Skipped)

	var count int64
	require.NoError(t, db.Model(&database.Movie{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunHonorsTarget(t *testing.T) {
	server := fakeTMDB(t)
	catalog, _ := testCatalog(t)
	cfg := testIngestConfig(server.URL)
	cfg.MovieTarget = 0

	runner := NewRunner(NewClient(cfg), catalog, cfg)
	stats, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Imported)
	assert.Zero(t, stats.Fetched)
}

func TestRunStopsOnCancel(t *testing.T) {
	server := fakeTMDB(t)
	catalog, _ := testCatalog(t)
	cfg := testIngestConfig(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(NewClient(cfg), catalog, cfg)
	_, err := runner.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTopCrewLimitsAndKeepsRawJobs(t *testing.T) {
	crew := []CreditEntry{
		{Name: "D1", Job: "Director", Department: "Directing"},
		{Name: "D2", Job: "Director", Department: "Directing"},
		{Name: "D3", Job: "Director", Department: "Directing"},
		{Name: "D4", Job: "Director", Department: "Directing"},
		{Name: "W1", Job: "Screenplay", Department: "Writing"},
		{Name: "W2", Job: "Story", Department: "Writing"},
		{Name: "W3", Job: "Novel", Department: "Writing"},
		{Name: "W4", Job: "Writer", Department: "Writing"},
		{Name: "P1", Job: "Producer", Department: "Production"},
		{Name: "P2", Job: "Producer", Department: "Production"},
		{Name: "P3", Job: "Producer", Department: "Production"},
		{Name: "G1", Job: "Gaffer", Department: "Lighting"},
	}

	picked := topCrew(crew)
	require.Len(t, picked, 8)

	names := make([]string, 0, len(picked))
	for _, entry := range picked {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"D1", "D2", "D3", "W1", "W2", "W3", "P1", "P2"}, names)

	// Writing-department credits keep their job verbatim as the role.
	assert.Equal(t, "Screenplay", picked[3].Job)
	assert.Equal(t, "Story", picked[4].Job)
}

func TestTopCrewMatchesWritersByDepartment(t *testing.T) {
	crew := []CreditEntry{
		{Name: "W1", Job: "Characters", Department: "Writing"},
		{Name: "X1", Job: "Writer", Department: "Camera"},
	}

	picked := topCrew(crew)
	require.Len(t, picked, 1)
	assert.Equal(t, "W1", picked[0].Name)
}

func TestCastRolesByBillingOrder(t *testing.T) {
	server := fakeTMDB(t)
	catalog, db := testCatalog(t)
	cfg := testIngestConfig(server.URL)
	cfg.CastLimit = 3

	runner := NewRunner(NewClient(cfg), catalog, cfg)
	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	var movie database.Movie
	require.NoError(t, db.Where("name = ?", "The Matrix").First(&movie).Error)

	var count int64
	require.NoError(t, db.Model(&database.MovieCast{}).
		Where("movie_id = ? AND role IN ?", movie.ID, []string{"Lead", "Supporting", "Actor"}).
		Count(&count).Error)
	assert.Equal(t, int64(3), count)

	var leads int64
	require.NoError(t, db.Model(&database.MovieCast{}).
		Where("movie_id = ? AND role = ?", movie.ID, "Lead").
		Count(&leads).Error)
	assert.Equal(t, int64(1), leads)
}

func TestRuntimeOrFallback(t *testing.T) {
	assert.Equal(t, 120, runtimeOrFallback(0))
	assert.Equal(t, 120, runtimeOrFallback(-5))
	assert.Equal(t, 95, runtimeOrFallback(95))
}

func TestFirstGenre(t *testing.T) {
	assert.Equal(t, "Unknown", firstGenre(nil))
	assert.Equal(t, "Drama", firstGenre([]Genre{{Name: "Drama"}, {Name: "Crime"}}))
}

func TestPosterURL(t *testing.T) {
	assert.Empty(t, posterURL("https://image.example/w500", ""))
	assert.Equal(t, "https://image.example/w500/x.jpg", posterURL("https://image.example/w500", "/x.jpg"))
	assert.Equal(t, "https://image.example/w500/x.jpg", posterURL("https://image.example/w500/", "/x.jpg"))
}
