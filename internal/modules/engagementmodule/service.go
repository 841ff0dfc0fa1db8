package engagementmodule

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/database"
)

// Kind selects one of the three engagement sets.
type Kind string

const (
	KindWatchlist Kind = "watchlist"
	KindLiked     Kind = "liked"
	KindWatched   Kind = "watched"
)

// ParseKind maps a route segment to a Kind.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindWatchlist, KindLiked, KindWatched:
		return Kind(raw), nil
	default:
		return "", apperrors.NewValidation(fmt.Sprintf("unknown engagement set %q", raw), "kind")
	}
}

// record returns a fresh row value for the kind, used both as the
// insert payload and as the model for queries against the set's table.
func (k Kind) record(userID, movieID uint) interface{} {
	switch k {
	case KindWatchlist:
		return &database.WatchList{UserID: userID, MovieID: movieID}
	case KindLiked:
		return &database.Like{UserID: userID, MovieID: movieID}
	default:
		return &database.Watched{UserID: userID, MovieID: movieID}
	}
}

// Service implements the engagement set writes. All three sets share
// the same semantics: adds ignore duplicates, removes ignore absence.
type Service struct {
	db *gorm.DB
}

// NewService creates the engagement service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) movieExists(movieID uint) error {
	var movie database.Movie
	if err := s.db.First(&movie, movieID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("movie", movieID)
		}
		return apperrors.NewInternal("failed to load movie", err)
	}
	return nil
}

// Add puts the movie into the user's set. Adding a movie already in
// the set is a no-op.
func (s *Service) Add(kind Kind, userID, movieID uint) error {
	if err := s.movieExists(movieID); err != nil {
		return err
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoNothing: true,
	}).Create(kind.record(userID, movieID)).Error; err != nil {
		return apperrors.NewInternal(fmt.Sprintf("failed to add to %s", kind), err)
	}
	return nil
}

// Remove takes the movie out of the user's set. Removing a movie not
// in the set is a no-op.
func (s *Service) Remove(kind Kind, userID, movieID uint) error {
	if err := s.movieExists(movieID); err != nil {
		return err
	}
	if err := s.db.
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(kind.record(0, 0)).Error; err != nil {
		return apperrors.NewInternal(fmt.Sprintf("failed to remove from %s", kind), err)
	}
	return nil
}

// MovieIDs returns the IDs in the user's set, unordered.
func (s *Service) MovieIDs(kind Kind, userID uint) ([]uint, error) {
	ids := []uint{}
	if err := s.db.Model(kind.record(0, 0)).
		Where("user_id = ?", userID).
		Pluck("movie_id", &ids).Error; err != nil {
		return nil, apperrors.NewInternal(fmt.Sprintf("failed to list %s", kind), err)
	}
	return ids, nil
}
