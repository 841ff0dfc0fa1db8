package catalogmodule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/database"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.AllModels()...))
	return db
}

func testService(t *testing.T) (*Service, *gorm.DB) {
	db := testDB(t)
	return NewService(db, PageSizes{Browse: 4, Search: 4, Review: 2}), db
}

func seedMovie(t *testing.T, db *gorm.DB, name, poster string, released time.Time) *database.Movie {
	t.Helper()
	movie := database.Movie{Name: name, PosterURL: poster, ReleaseDate: released, LengthMinutes: 100}
	require.NoError(t, db.Create(&movie).Error)
	return &movie
}

func seedUser(t *testing.T, db *gorm.DB, username string, staff bool) *database.User {
	t.Helper()
	user := database.User{Username: username, Email: username + "@example.com", Password: "x", IsStaff: staff}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestListMoviesSkipsPosterless(t *testing.T) {
	service, db := testService(t)

	seedMovie(t, db, "With Poster", "https://img/p.jpg", time.Now())
	seedMovie(t, db, "No Poster", "", time.Now())

	page, err := service.ListMovies(0, 1)
	require.NoError(t, err)
	require.Len(t, page.Movies, 1)
	assert.Equal(t, "With Poster", page.Movies[0].Name)
	assert.Equal(t, int64(1), page.Pagination.TotalItems)
}

func TestListMoviesNewestFirst(t *testing.T) {
	service, db := testService(t)

	old := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	seedMovie(t, db, "Old", "p", old)
	seedMovie(t, db, "Recent", "p", recent)

	page, err := service.ListMovies(0, 1)
	require.NoError(t, err)
	require.Len(t, page.Movies, 2)
	assert.Equal(t, "Recent", page.Movies[0].Name)
}

func TestListMoviesAggregates(t *testing.T) {
	service, db := testService(t)

	rated := seedMovie(t, db, "Rated", "p", time.Now())
	seedMovie(t, db, "Unrated", "p", time.Now().Add(-time.Hour))

	user := seedUser(t, db, "critic", false)
	require.NoError(t, db.Create(&database.Review{UserID: user.ID, MovieID: rated.ID, Rating: 4}).Error)
	require.NoError(t, db.Create(&database.Review{UserID: user.ID, MovieID: rated.ID, Rating: 2}).Error)

	page, err := service.ListMovies(0, 1)
	require.NoError(t, err)
	require.Len(t, page.Movies, 2)

	byName := map[string]MovieSummary{}
	for _, m := range page.Movies {
		byName[m.Name] = m
	}
	require.NotNil(t, byName["Rated"].AvgRating)
	assert.InDelta(t, 3.0, *byName["Rated"].AvgRating, 0.001)
	assert.Equal(t, int64(2), byName["Rated"].ReviewCount)
	// No reviews means no average at all, not a zero.
	assert.Nil(t, byName["Unrated"].AvgRating)
	assert.Equal(t, int64(0), byName["Unrated"].ReviewCount)
}

func TestListMoviesPaginationClamp(t *testing.T) {
	service, db := testService(t)

	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		seedMovie(t, db, name, "p", time.Now())
	}

	page, err := service.ListMovies(0, 99)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Equal(t, 2, page.Pagination.PageCount)
	assert.Len(t, page.Movies, 2)
}

func TestListMoviesViewerSets(t *testing.T) {
	service, db := testService(t)

	movie := seedMovie(t, db, "Tracked", "p", time.Now())
	user := seedUser(t, db, "viewer", false)
	require.NoError(t, db.Create(&database.WatchList{UserID: user.ID, MovieID: movie.ID}).Error)
	require.NoError(t, db.Create(&database.Watched{UserID: user.ID, MovieID: movie.ID}).Error)

	page, err := service.ListMovies(user.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, page.Viewer)
	assert.Equal(t, []uint{movie.ID}, page.Viewer.Watchlist)
	assert.Empty(t, page.Viewer.Liked)
	assert.Equal(t, []uint{movie.ID}, page.Viewer.Watched)

	page, err = service.ListMovies(0, 1)
	require.NoError(t, err)
	assert.Nil(t, page.Viewer)
}

func TestSearchMoviesCaseInsensitive(t *testing.T) {
	service, db := testService(t)

	seedMovie(t, db, "The Godfather", "p", time.Now())
	seedMovie(t, db, "Goodfellas", "", time.Now())

	page, err := service.SearchMovies(0, "GOD", 1)
	require.NoError(t, err)
	require.Len(t, page.Movies, 1)
	assert.Equal(t, "The Godfather", page.Movies[0].Name)
}

func TestSearchMoviesIncludesPosterless(t *testing.T) {
	service, db := testService(t)

	seedMovie(t, db, "Obscure Cut", "", time.Now())

	page, err := service.SearchMovies(0, "obscure", 1)
	require.NoError(t, err)
	assert.Len(t, page.Movies, 1)
}

func TestSearchMoviesEmptyQuery(t *testing.T) {
	service, db := testService(t)

	seedMovie(t, db, "Anything", "p", time.Now())

	for _, q := range []string{"", "   "} {
		page, err := service.SearchMovies(0, q, 1)
		require.NoError(t, err)
		assert.Empty(t, page.Movies)
		assert.Equal(t, int64(0), page.Pagination.TotalItems)
	}
}

func TestGetMovie(t *testing.T) {
	service, db := testService(t)

	movie := seedMovie(t, db, "Chinatown", "p", time.Now())
	user := seedUser(t, db, "viewer", false)
	require.NoError(t, db.Create(&database.Review{UserID: user.ID, MovieID: movie.ID, Rating: 5}).Error)
	require.NoError(t, db.Create(&database.Like{UserID: user.ID, MovieID: movie.ID}).Error)
	require.NoError(t, service.AddCastMember(movie.ID, "Jack Nicholson", "Lead"))

	detail, err := service.GetMovie(user.ID, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chinatown", detail.Name)
	require.NotNil(t, detail.AvgRating)
	assert.InDelta(t, 5.0, *detail.AvgRating, 0.001)
	assert.Equal(t, int64(1), detail.ReviewCount)
	require.Len(t, detail.Cast, 1)
	assert.Equal(t, "Jack Nicholson", detail.Cast[0].Person.Name)
	assert.Equal(t, "Lead", detail.Cast[0].Role)
	assert.True(t, detail.Liked)
	assert.False(t, detail.InWatchlist)
	assert.False(t, detail.Watched)
}

func TestGetMovieNotFound(t *testing.T) {
	service, _ := testService(t)

	_, err := service.GetMovie(0, 404)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListReviewsForMovieNewestFirst(t *testing.T) {
	service, db := testService(t)

	movie := seedMovie(t, db, "Ran", "p", time.Now())
	user := seedUser(t, db, "critic", false)

	older := database.Review{UserID: user.ID, MovieID: movie.ID, Rating: 3, Content: "older",
		CreatedAt: time.Now().Add(-time.Hour)}
	newer := database.Review{UserID: user.ID, MovieID: movie.ID, Rating: 4, Content: "newer",
		CreatedAt: time.Now()}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)

	page, err := service.ListReviewsForMovie(movie.ID, 1)
	require.NoError(t, err)
	require.Len(t, page.Reviews, 2)
	assert.Equal(t, "newer", page.Reviews[0].Content)
	assert.Equal(t, "critic", page.Reviews[0].User.Username)
}

func TestParseCastList(t *testing.T) {
	cases := []struct {
		name  string
		cast  string
		roles string
		want  []CastAssignment
	}{
		{
			name:  "roles zip by position",
			cast:  "Al Pacino, Diane Keaton",
			roles: "Lead, Supporting",
			want: []CastAssignment{
				{Name: "Al Pacino", Role: "Lead"},
				{Name: "Diane Keaton", Role: "Supporting"},
			},
		},
		{
			name:  "missing roles default to Actor",
			cast:  "A, B",
			roles: "Director",
			want: []CastAssignment{
				{Name: "A", Role: "Director"},
				{Name: "B", Role: "Actor"},
			},
		},
		{
			name:  "blank names dropped",
			cast:  "A, , B,",
			roles: "",
			want: []CastAssignment{
				{Name: "A", Role: "Actor"},
				{Name: "B", Role: "Actor"},
			},
		},
		{
			name: "empty input",
			cast: "   ",
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseCastList(tc.cast, tc.roles))
		})
	}
}

func TestAddMovieWithCastRequiresStaff(t *testing.T) {
	service, db := testService(t)

	user := seedUser(t, db, "pleb", false)
	_, err := service.AddMovieWithCast(user, MovieInput{Name: "X", ReleaseDate: "2020-01-01", LengthMinutes: 90})
	require.Error(t, err)
	assert.True(t, apperrors.IsPermissionDenied(err))

	var count int64
	require.NoError(t, db.Model(&database.Movie{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddMovieWithCast(t *testing.T) {
	service, db := testService(t)

	staff := seedUser(t, db, "admin", true)
	movie, err := service.AddMovieWithCast(staff, MovieInput{
		Name:          "The Conversation",
		Description:   "surveillance thriller",
		ReleaseDate:   "1974-04-07",
		Genre:         "Thriller",
		LengthMinutes: 113,
		PosterURL:     "https://img/conversation.jpg",
		Cast:          "Gene Hackman, John Cazale",
		Roles:         "Lead",
	})
	require.NoError(t, err)
	assert.NotZero(t, movie.ID)
	assert.Equal(t, 1974, movie.ReleaseDate.Year())

	var cast []database.MovieCast
	require.NoError(t, db.Preload("Person").Where("movie_id = ?", movie.ID).Order("id").Find(&cast).Error)
	require.Len(t, cast, 2)
	assert.Equal(t, "Gene Hackman", cast[0].Person.Name)
	assert.Equal(t, "Lead", cast[0].Role)
	assert.Equal(t, "John Cazale", cast[1].Person.Name)
	assert.Equal(t, "Actor", cast[1].Role)
}

func TestAddMovieWithCastValidation(t *testing.T) {
	service, db := testService(t)
	staff := seedUser(t, db, "admin", true)

	_, err := service.AddMovieWithCast(staff, MovieInput{Name: "", ReleaseDate: "2020-01-01", LengthMinutes: 90})
	assert.True(t, apperrors.IsValidation(err))

	_, err = service.AddMovieWithCast(staff, MovieInput{Name: "X", ReleaseDate: "2020-01-01", LengthMinutes: 0})
	assert.True(t, apperrors.IsValidation(err))

	_, err = service.AddMovieWithCast(staff, MovieInput{Name: "X", ReleaseDate: "someday", LengthMinutes: 90})
	assert.True(t, apperrors.IsValidation(err))
}

func TestAddMovieDuplicateName(t *testing.T) {
	service, db := testService(t)
	staff := seedUser(t, db, "admin", true)

	input := MovieInput{Name: "Duplicated", ReleaseDate: "2020-01-01", LengthMinutes: 90}
	_, err := service.AddMovieWithCast(staff, input)
	require.NoError(t, err)

	_, err = service.AddMovieWithCast(staff, input)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestAddCastMemberReusesPerson(t *testing.T) {
	service, db := testService(t)

	first := seedMovie(t, db, "First", "p", time.Now())
	second := seedMovie(t, db, "Second", "p", time.Now())

	require.NoError(t, service.AddCastMember(first.ID, "Toshiro Mifune", "Lead"))
	require.NoError(t, service.AddCastMember(second.ID, "Toshiro Mifune", "Lead"))

	var people int64
	require.NoError(t, db.Model(&database.Person{}).Where("name = ?", "Toshiro Mifune").Count(&people).Error)
	assert.Equal(t, int64(1), people)
}

func TestAddCastMemberDuplicateTripleIgnored(t *testing.T) {
	service, db := testService(t)

	movie := seedMovie(t, db, "Solo", "p", time.Now())
	require.NoError(t, service.AddCastMember(movie.ID, "Someone", "Actor"))
	require.NoError(t, service.AddCastMember(movie.ID, "Someone", "Actor"))
	// Same person under a different role is a distinct entry.
	require.NoError(t, service.AddCastMember(movie.ID, "Someone", "Director"))

	var entries int64
	require.NoError(t, db.Model(&database.MovieCast{}).Where("movie_id = ?", movie.ID).Count(&entries).Error)
	assert.Equal(t, int64(2), entries)
}

func TestMovieNameExists(t *testing.T) {
	service, db := testService(t)

	seedMovie(t, db, "Exists", "p", time.Now())

	exists, err := service.MovieNameExists("Exists")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = service.MovieNameExists("Missing")
	require.NoError(t, err)
	assert.False(t, exists)
}
