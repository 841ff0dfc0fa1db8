package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/middleware"
)

// buildServer assembles the full application against an in-memory
// database. The module registry is process-global, so every subtest
// shares one server.
func buildServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	database.SetDB(db)

	srv, err := New(db)
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, userID uint) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(middleware.IdentityHeader, fmt.Sprintf("%d", userID))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestServerEndToEnd(t *testing.T) {
	srv := buildServer(t)
	router := srv.Router()

	t.Run("health", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/health", "", 0)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	var staffID, memberID uint

	t.Run("create users", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/users",
			`{"username":"admin","email":"admin@example.com","password":"x","is_staff":true}`, 0)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var created struct {
			User database.User `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		staffID = created.User.ID

		rec = doJSON(t, router, http.MethodPost, "/api/v1/users",
			`{"username":"member","email":"member@example.com","password":"x"}`, 0)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		memberID = created.User.ID

		rec = doJSON(t, router, http.MethodPost, "/api/v1/users",
			`{"username":"admin","email":"other@example.com","password":"x"}`, 0)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	var movieID uint

	t.Run("staff adds movie", func(t *testing.T) {
		body := `{"name":"Blade Runner","description":"replicants","release_date":"1982-06-25",` +
			`"genre":"Science Fiction","length_minutes":117,"poster_url":"https://img/br.jpg",` +
			`"cast":"Harrison Ford, Rutger Hauer","roles":"Lead"}`

		rec := doJSON(t, router, http.MethodPost, "/api/v1/movies", body, memberID)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/api/v1/movies", body, staffID)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var movie database.Movie
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &movie))
		movieID = movie.ID
	})

	t.Run("browse and detail", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/v1/movies", "", 0)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Blade Runner")

		rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/movies/%d", movieID), "", 0)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Rutger Hauer")

		rec = doJSON(t, router, http.MethodGet, "/api/v1/movies/999999", "", 0)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("engagement and review", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/movies/%d/liked", movieID), "", memberID)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/movies/%d/reviews", movieID),
			`{"content":"still holds up","rating":5}`, memberID)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/movies/%d/reviews", movieID), "", 0)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "still holds up")
	})

	t.Run("follow and feed", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/users/member/follow", "", staffID)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doJSON(t, router, http.MethodGet, "/api/v1/feed", "", staffID)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "still holds up")

		rec = doJSON(t, router, http.MethodGet, "/api/v1/feed", "", 0)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("profile page", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/v1/users/member/profile", "", staffID)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Blade Runner")
		assert.Contains(t, rec.Body.String(), `"is_following":true`)
	})

	t.Run("system stats", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/v1/system/stats", "", 0)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"users":2`)
		assert.Contains(t, rec.Body.String(), `"movies":1`)
	})
}
