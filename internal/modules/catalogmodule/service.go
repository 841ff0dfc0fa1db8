package catalogmodule

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/events"
)

// PageSizes holds the page sizes for the catalog listings.
type PageSizes struct {
	Browse int
	Search int
	Review int
}

// Service implements catalog reads and staff-gated writes.
type Service struct {
	db    *gorm.DB
	pages PageSizes
}

// NewService creates the catalog service.
func NewService(db *gorm.DB, pages PageSizes) *Service {
	if pages.Browse < 1 {
		pages.Browse = 104
	}
	if pages.Search < 1 {
		pages.Search = 100
	}
	if pages.Review < 1 {
		pages.Review = 10
	}
	return &Service{db: db, pages: pages}
}

// MovieSummary is a movie with its rating aggregates. AvgRating is nil
// when the movie has no reviews; it is never reported as zero.
type MovieSummary struct {
	database.Movie
	AvgRating   *float64 `json:"avg_rating"`
	ReviewCount int64    `json:"review_count"`
}

// ViewerSets holds the movie IDs in the requesting user's engagement
// sets, so listings can flag membership without per-movie queries.
type ViewerSets struct {
	Watchlist []uint `json:"watchlist"`
	Liked     []uint `json:"liked"`
	Watched   []uint `json:"watched"`
}

// MoviePage is one page of the browse or search listing.
type MoviePage struct {
	Movies     []MovieSummary      `json:"movies"`
	Pagination database.Pagination `json:"pagination"`
	Viewer     *ViewerSets         `json:"viewer,omitempty"`
}

func (s *Service) summaryQuery() *gorm.DB {
	return s.db.Model(&database.Movie{}).
		Select("movies.*, AVG(reviews.rating) AS avg_rating, COUNT(reviews.id) AS review_count").
		Joins("LEFT JOIN reviews ON reviews.movie_id = movies.id").
		Group("movies.id")
}

// ListMovies returns the browse page: movies with a poster, newest
// release first, each annotated with its rating aggregates. When
// viewerID is non-zero the viewer's engagement sets are attached.
func (s *Service) ListMovies(viewerID uint, page int) (*MoviePage, error) {
	var total int64
	if err := s.db.Model(&database.Movie{}).
		Where("poster_url <> ''").
		Count(&total).Error; err != nil {
		return nil, apperrors.NewInternal("failed to count movies", err)
	}

	result := &MoviePage{Pagination: database.Paginate(page, s.pages.Browse, total)}
	if err := s.summaryQuery().
		Where("poster_url <> ''").
		Order("release_date DESC").
		Offset(result.Pagination.Offset()).
		Limit(s.pages.Browse).
		Scan(&result.Movies).Error; err != nil {
		return nil, apperrors.NewInternal("failed to list movies", err)
	}

	if viewerID != 0 {
		viewer, err := s.viewerSets(viewerID)
		if err != nil {
			return nil, err
		}
		result.Viewer = viewer
	}
	return result, nil
}

// SearchMovies returns movies whose name contains the query,
// case-insensitively. An empty query matches nothing.
func (s *Service) SearchMovies(viewerID uint, query string, page int) (*MoviePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &MoviePage{
			Movies:     []MovieSummary{},
			Pagination: database.Paginate(page, s.pages.Search, 0),
		}, nil
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var total int64
	if err := s.db.Model(&database.Movie{}).
		Where("LOWER(name) LIKE ?", pattern).
		Count(&total).Error; err != nil {
		return nil, apperrors.NewInternal("failed to count search results", err)
	}

	result := &MoviePage{Pagination: database.Paginate(page, s.pages.Search, total)}
	if err := s.summaryQuery().
		Where("LOWER(name) LIKE ?", pattern).
		Order("release_date DESC").
		Offset(result.Pagination.Offset()).
		Limit(s.pages.Search).
		Scan(&result.Movies).Error; err != nil {
		return nil, apperrors.NewInternal("failed to search movies", err)
	}

	if viewerID != 0 {
		viewer, err := s.viewerSets(viewerID)
		if err != nil {
			return nil, err
		}
		result.Viewer = viewer
	}
	return result, nil
}

func (s *Service) viewerSets(userID uint) (*ViewerSets, error) {
	sets := &ViewerSets{Watchlist: []uint{}, Liked: []uint{}, Watched: []uint{}}
	if err := s.db.Model(&database.WatchList{}).
		Where("user_id = ?", userID).
		Pluck("movie_id", &sets.Watchlist).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load watchlist", err)
	}
	if err := s.db.Model(&database.Like{}).
		Where("user_id = ?", userID).
		Pluck("movie_id", &sets.Liked).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load likes", err)
	}
	if err := s.db.Model(&database.Watched{}).
		Where("user_id = ?", userID).
		Pluck("movie_id", &sets.Watched).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load watched set", err)
	}
	return sets, nil
}

// MovieDetail is the single-movie page: the summary, the full cast, and
// the viewer's engagement flags when a viewer is known.
type MovieDetail struct {
	MovieSummary
	Cast        []database.MovieCast `json:"cast"`
	InWatchlist bool                 `json:"in_watchlist"`
	Liked       bool                 `json:"liked"`
	Watched     bool                 `json:"watched"`
}

// GetMovie loads one movie with its aggregates, cast, and viewer flags.
func (s *Service) GetMovie(viewerID, movieID uint) (*MovieDetail, error) {
	detail := &MovieDetail{}
	if err := s.db.First(&detail.Movie, movieID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("movie", movieID)
		}
		return nil, apperrors.NewInternal("failed to load movie", err)
	}

	row := s.db.Model(&database.Review{}).
		Select("AVG(rating), COUNT(id)").
		Where("movie_id = ?", movieID).
		Row()
	if err := row.Scan(&detail.AvgRating, &detail.ReviewCount); err != nil {
		return nil, apperrors.NewInternal("failed to load rating aggregates", err)
	}

	if err := s.db.Preload("Person").
		Where("movie_id = ?", movieID).
		Order("id").
		Find(&detail.Cast).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load cast", err)
	}

	if viewerID != 0 {
		flags := []struct {
			model interface{}
			dest  *bool
		}{
			{&database.WatchList{}, &detail.InWatchlist},
			{&database.Like{}, &detail.Liked},
			{&database.Watched{}, &detail.Watched},
		}
		for _, f := range flags {
			var n int64
			if err := s.db.Model(f.model).
				Where("user_id = ? AND movie_id = ?", viewerID, movieID).
				Count(&n).Error; err != nil {
				return nil, apperrors.NewInternal("failed to load viewer flags", err)
			}
			*f.dest = n > 0
		}
	}
	return detail, nil
}

// ReviewPage is one page of a movie's reviews, newest first.
type ReviewPage struct {
	Reviews    []database.Review   `json:"reviews"`
	Pagination database.Pagination `json:"pagination"`
}

// ListReviewsForMovie returns the movie's reviews, newest first.
func (s *Service) ListReviewsForMovie(movieID uint, page int) (*ReviewPage, error) {
	var movie database.Movie
	if err := s.db.First(&movie, movieID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("movie", movieID)
		}
		return nil, apperrors.NewInternal("failed to load movie", err)
	}

	var total int64
	if err := s.db.Model(&database.Review{}).
		Where("movie_id = ?", movieID).
		Count(&total).Error; err != nil {
		return nil, apperrors.NewInternal("failed to count reviews", err)
	}

	result := &ReviewPage{Pagination: database.Paginate(page, s.pages.Review, total)}
	if err := s.db.Preload("User").
		Where("movie_id = ?", movieID).
		Order("created_at DESC").
		Offset(result.Pagination.Offset()).
		Limit(s.pages.Review).
		Find(&result.Reviews).Error; err != nil {
		return nil, apperrors.NewInternal("failed to list reviews", err)
	}
	return result, nil
}

// MovieInput is the staff movie-creation payload. Cast and Roles are
// comma-separated lists zipped by position; missing roles default to
// "Actor".
type MovieInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	ReleaseDate   string `json:"release_date"`
	Genre         string `json:"genre"`
	LengthMinutes int    `json:"length_minutes"`
	PosterURL     string `json:"poster_url"`
	Cast          string `json:"cast"`
	Roles         string `json:"roles"`
}

// DefaultRole fills cast positions that have no explicit role.
const DefaultRole = "Actor"

// CastAssignment pairs a person name with a role.
type CastAssignment struct {
	Name string
	Role string
}

// parseCastList zips the comma-separated name and role lists by
// position. Blank names are dropped; names past the end of the role
// list get the default role.
func parseCastList(cast, roles string) []CastAssignment {
	names := strings.Split(cast, ",")
	roleList := strings.Split(roles, ",")

	var out []CastAssignment
	for i, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		role := DefaultRole
		if i < len(roleList) {
			if r := strings.TrimSpace(roleList[i]); r != "" {
				role = r
			}
		}
		out = append(out, CastAssignment{Name: name, Role: role})
	}
	return out
}

// AddMovieWithCast creates a movie and its cast entries. Only staff
// users may call it. Duplicate cast triples are silently skipped.
func (s *Service) AddMovieWithCast(actor *database.User, input MovieInput) (*database.Movie, error) {
	if actor == nil || !actor.IsStaff {
		return nil, apperrors.NewPermissionDenied("add movies")
	}
	movie, err := buildMovie(input)
	if err != nil {
		return nil, err
	}

	assignments := parseCastList(input.Cast, input.Roles)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(movie).Error; err != nil {
			return err
		}
		for _, a := range assignments {
			if err := addCastMember(tx, movie.ID, a.Name, a.Role); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflict("movie", input.Name)
		}
		return nil, apperrors.NewInternal("failed to create movie", err)
	}

	event := events.New(events.EventMovieCreated, ModuleID, "Movie added", movie.Name)
	event.Data = map[string]interface{}{"movie_id": movie.ID, "user_id": actor.ID}
	events.PublishGlobal(event)
	return movie, nil
}

func buildMovie(input MovieInput) (*database.Movie, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidation("name is required", "name")
	}
	if input.LengthMinutes <= 0 {
		return nil, apperrors.NewValidation("length must be a positive number of minutes", "length_minutes")
	}
	released, err := time.Parse("2006-01-02", input.ReleaseDate)
	if err != nil {
		return nil, apperrors.NewValidation("release_date must be YYYY-MM-DD", "release_date")
	}
	return &database.Movie{
		Name:          name,
		Description:   input.Description,
		ReleaseDate:   released,
		Genre:         input.Genre,
		LengthMinutes: input.LengthMinutes,
		PosterURL:     input.PosterURL,
	}, nil
}

// CreateMovie inserts a movie directly, without the staff gate. The
// ingestion tool uses it after its own dedup checks.
func (s *Service) CreateMovie(movie *database.Movie) error {
	if err := s.db.Create(movie).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.NewConflict("movie", movie.Name)
		}
		return apperrors.NewInternal("failed to create movie", err)
	}
	return nil
}

// MovieNameExists reports whether a movie with the exact name exists.
func (s *Service) MovieNameExists(name string) (bool, error) {
	var n int64
	if err := s.db.Model(&database.Movie{}).
		Where("name = ?", name).
		Count(&n).Error; err != nil {
		return false, apperrors.NewInternal("failed to check movie name", err)
	}
	return n > 0, nil
}

// AddCastMember links a person to a movie under a role, creating the
// person by exact name if needed. Duplicate triples are ignored.
func (s *Service) AddCastMember(movieID uint, name, role string) error {
	return addCastMember(s.db, movieID, name, role)
}

// addCastMember resolves the person by exact name, creating them when
// absent. Person names are not unique; an existing duplicate pair
// resolves to whichever row sorts first.
func addCastMember(tx *gorm.DB, movieID uint, name, role string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.NewValidation("cast member name is required", "cast")
	}
	if role == "" {
		role = DefaultRole
	}

	var person database.Person
	err := tx.Where("name = ?", name).Order("id").First(&person).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		person = database.Person{Name: name}
		err = tx.Create(&person).Error
	}
	if err != nil {
		return apperrors.NewInternal("failed to resolve person", err)
	}

	entry := database.MovieCast{MovieID: movieID, PersonID: person.ID, Role: role}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "movie_id"}, {Name: "person_id"}, {Name: "role"}},
		DoNothing: true,
	}).Create(&entry).Error; err != nil {
		return apperrors.NewInternal("failed to add cast member", err)
	}
	return nil
}
