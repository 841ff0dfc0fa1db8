package reviewmodule

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/events"
)

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// Service implements review authoring. Only the author may edit or
// delete a review.
type Service struct {
	db *gorm.DB
}

// NewService creates the review service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func validateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperrors.NewValidation("rating must be between 1 and 5", "rating")
	}
	return nil
}

// Create writes a new review for the movie. A user may review the same
// movie more than once.
func (s *Service) Create(userID, movieID uint, content string, rating int) (*database.Review, error) {
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	var movie database.Movie
	if err := s.db.First(&movie, movieID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("movie", movieID)
		}
		return nil, apperrors.NewInternal("failed to load movie", err)
	}

	review := database.Review{
		UserID:  userID,
		MovieID: movieID,
		Content: strings.TrimSpace(content),
		Rating:  rating,
	}
	if err := s.db.Create(&review).Error; err != nil {
		return nil, apperrors.NewInternal("failed to create review", err)
	}

	event := events.New(events.EventReviewCreated, ModuleID, "Review created", movie.Name)
	event.Data = map[string]interface{}{"review_id": review.ID, "movie_id": movieID, "user_id": userID}
	events.PublishGlobal(event)
	return &review, nil
}

func (s *Service) ownedReview(userID, reviewID uint) (*database.Review, error) {
	var review database.Review
	if err := s.db.First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("review", reviewID)
		}
		return nil, apperrors.NewInternal("failed to load review", err)
	}
	if review.UserID != userID {
		return nil, apperrors.NewPermissionDenied("modify this review")
	}
	return &review, nil
}

// Edit replaces the content and rating of the user's own review.
func (s *Service) Edit(userID, reviewID uint, content string, rating int) (*database.Review, error) {
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	review, err := s.ownedReview(userID, reviewID)
	if err != nil {
		return nil, err
	}

	review.Content = strings.TrimSpace(content)
	review.Rating = rating
	if err := s.db.Save(review).Error; err != nil {
		return nil, apperrors.NewInternal("failed to update review", err)
	}

	events.PublishGlobal(events.New(events.EventReviewUpdated, ModuleID, "Review updated", ""))
	return review, nil
}

// Delete removes the user's own review.
func (s *Service) Delete(userID, reviewID uint) error {
	review, err := s.ownedReview(userID, reviewID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(review).Error; err != nil {
		return apperrors.NewInternal("failed to delete review", err)
	}

	events.PublishGlobal(events.New(events.EventReviewDeleted, ModuleID, "Review deleted", ""))
	return nil
}

// Get loads one review with its author and movie.
func (s *Service) Get(reviewID uint) (*database.Review, error) {
	var review database.Review
	if err := s.db.Preload("User").Preload("Movie").First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("review", reviewID)
		}
		return nil, apperrors.NewInternal("failed to load review", err)
	}
	return &review, nil
}
