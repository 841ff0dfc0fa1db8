package socialmodule

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/events"
)

// Service implements the follow graph and feed assembly.
type Service struct {
	db           *gorm.DB
	feedPageSize int
}

// NewService creates the social service.
func NewService(db *gorm.DB, feedPageSize int) *Service {
	if feedPageSize < 1 {
		feedPageSize = 30
	}
	return &Service{db: db, feedPageSize: feedPageSize}
}

func (s *Service) userByName(username string) (*database.User, error) {
	var user database.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user", username)
		}
		return nil, apperrors.NewInternal("failed to load user", err)
	}
	return &user, nil
}

// Follow adds a follower edge from followerID to the named user. The
// insert ignores an existing edge, so the operation is idempotent.
// Following yourself is rejected.
func (s *Service) Follow(followerID uint, username string) error {
	target, err := s.userByName(username)
	if err != nil {
		return err
	}
	if target.ID == followerID {
		return apperrors.NewValidation("cannot follow yourself", "username")
	}

	edge := database.Follower{FollowerID: followerID, FollowingID: target.ID}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
		DoNothing: true,
	}).Create(&edge).Error; err != nil {
		return apperrors.NewInternal("failed to follow user", err)
	}

	event := events.New(events.EventUserFollowed, ModuleID, "User followed", target.Username)
	event.Data = map[string]interface{}{"follower_id": followerID, "following_id": target.ID}
	events.PublishGlobal(event)
	return nil
}

// Unfollow removes the follower edge if present; removing a missing
// edge is a no-op.
func (s *Service) Unfollow(followerID uint, username string) error {
	target, err := s.userByName(username)
	if err != nil {
		return err
	}

	if err := s.db.
		Where("follower_id = ? AND following_id = ?", followerID, target.ID).
		Delete(&database.Follower{}).Error; err != nil {
		return apperrors.NewInternal("failed to unfollow user", err)
	}

	events.PublishGlobal(events.New(events.EventUserUnfollowed, ModuleID, "User unfollowed", target.Username))
	return nil
}

// ListFollowers returns the users following the named user, unordered.
func (s *Service) ListFollowers(username string) ([]database.User, error) {
	user, err := s.userByName(username)
	if err != nil {
		return nil, err
	}
	var followers []database.User
	if err := s.db.
		Joins("JOIN followers ON followers.follower_id = users.id").
		Where("followers.following_id = ?", user.ID).
		Find(&followers).Error; err != nil {
		return nil, apperrors.NewInternal("failed to list followers", err)
	}
	return followers, nil
}

// ListFollowing returns the users the named user follows, unordered.
func (s *Service) ListFollowing(username string) ([]database.User, error) {
	user, err := s.userByName(username)
	if err != nil {
		return nil, err
	}
	var following []database.User
	if err := s.db.
		Joins("JOIN followers ON followers.following_id = users.id").
		Where("followers.follower_id = ?", user.ID).
		Find(&following).Error; err != nil {
		return nil, apperrors.NewInternal("failed to list following", err)
	}
	return following, nil
}

// FeedPage holds one page of the feed: reviews and likes authored by
// followed users, each in random presentation order. The two kinds are
// paginated independently and never merged or deduplicated.
type FeedPage struct {
	Reviews           []database.Review   `json:"reviews"`
	ReviewsPagination database.Pagination `json:"reviews_pagination"`
	Likes             []database.Like     `json:"likes"`
	LikesPagination   database.Pagination `json:"likes_pagination"`
}

// BuildFeed assembles the feed for a user.
func (s *Service) BuildFeed(userID uint, page int) (*FeedPage, error) {
	followed := s.db.Model(&database.Follower{}).
		Select("following_id").
		Where("follower_id = ?", userID)

	feed := &FeedPage{}

	var reviewCount int64
	if err := s.db.Model(&database.Review{}).
		Where("user_id IN (?)", followed).
		Count(&reviewCount).Error; err != nil {
		return nil, apperrors.NewInternal("failed to count feed reviews", err)
	}
	feed.ReviewsPagination = database.Paginate(page, s.feedPageSize, reviewCount)
	if err := s.db.Preload("User").Preload("Movie").
		Where("user_id IN (?)", followed).
		Order("RANDOM()").
		Offset(feed.ReviewsPagination.Offset()).
		Limit(s.feedPageSize).
		Find(&feed.Reviews).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load feed reviews", err)
	}

	var likeCount int64
	if err := s.db.Model(&database.Like{}).
		Where("user_id IN (?)", followed).
		Count(&likeCount).Error; err != nil {
		return nil, apperrors.NewInternal("failed to count feed likes", err)
	}
	feed.LikesPagination = database.Paginate(page, s.feedPageSize, likeCount)
	if err := s.db.Preload("User").Preload("Movie").
		Where("user_id IN (?)", followed).
		Order("RANDOM()").
		Offset(feed.LikesPagination.Offset()).
		Limit(s.feedPageSize).
		Find(&feed.Likes).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load feed likes", err)
	}

	return feed, nil
}
