package usermodule

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/events"
)

// Service implements user and profile operations.
type Service struct {
	db *gorm.DB
}

// NewService creates the user service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateUserInput carries the fields for a new account.
type CreateUserInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	IsStaff  bool   `json:"is_staff"`
}

// CreateUser creates a user and its profile in one transaction. The
// profile hook is an explicit call here, not an ambient event
// subscription, so the profile exists as soon as the transaction commits.
func (s *Service) CreateUser(input CreateUserInput) (*database.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, apperrors.NewValidation("username must not be empty", "username")
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, apperrors.NewValidation("email must not be empty", "email")
	}

	user := database.User{
		Username: username,
		Email:    strings.TrimSpace(input.Email),
		Password: input.Password,
		IsStaff:  input.IsStaff,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return EnsureProfile(tx, user.ID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflict("user", "username or email already taken")
		}
		return nil, apperrors.NewInternal("failed to create user", err)
	}

	event := events.New(events.EventUserCreated, ModuleID, "User created", user.Username)
	event.Data = map[string]interface{}{"user_id": user.ID}
	events.PublishGlobal(event)

	return &user, nil
}

// EnsureProfile creates the profile for a user if it does not exist yet.
// The insert ignores the unique (user_id) conflict, so calling it any
// number of times leaves exactly one profile.
func EnsureProfile(tx *gorm.DB, userID uint) error {
	profile := database.Profile{
		UserID:    userID,
		AvatarURL: config.DefaultAvatarURL,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&profile).Error
}

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

// UpdateProfile updates the caller's profile, creating it first if it is
// somehow missing.
func (s *Service) UpdateProfile(userID uint, input UpdateProfileInput) (*database.Profile, error) {
	var profile database.Profile
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := EnsureProfile(tx, userID); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			return err
		}
		profile.Bio = input.Bio
		if input.AvatarURL != "" {
			profile.AvatarURL = input.AvatarURL
		}
		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, apperrors.NewInternal("failed to update profile", err)
	}

	events.PublishGlobal(events.New(events.EventProfileUpdated, ModuleID, "Profile updated", ""))
	return &profile, nil
}

// ProfilePage is the assembled profile view for a user.
type ProfilePage struct {
	Username    string               `json:"username"`
	Bio         string               `json:"bio"`
	AvatarURL   string               `json:"avatar_url"`
	Followers   []database.User      `json:"followers"`
	Following   []database.User      `json:"following"`
	WatchList   []database.WatchList `json:"watch_list"`
	Liked       []database.Like      `json:"liked"`
	Watched     []database.Watched   `json:"watched"`
	Reviews     []database.Review    `json:"reviews"`
	IsFollowing bool                 `json:"is_following"`
}

// GetProfilePage assembles the profile view for username. viewerID is
// zero for anonymous viewers; when set, IsFollowing reports whether the
// viewer follows the profile's owner.
func (s *Service) GetProfilePage(username string, viewerID uint) (*ProfilePage, error) {
	var user database.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user", username)
		}
		return nil, apperrors.NewInternal("failed to load user", err)
	}

	page := &ProfilePage{Username: user.Username}

	var profile database.Profile
	if err := s.db.Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
		page.Bio = profile.Bio
		page.AvatarURL = profile.AvatarURL
	}

	if err := s.db.
		Joins("JOIN followers ON followers.follower_id = users.id").
		Where("followers.following_id = ?", user.ID).
		Find(&page.Followers).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load followers", err)
	}
	if err := s.db.
		Joins("JOIN followers ON followers.following_id = users.id").
		Where("followers.follower_id = ?", user.ID).
		Find(&page.Following).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load following", err)
	}

	if err := s.db.Preload("Movie").Where("user_id = ?", user.ID).Find(&page.WatchList).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load watchlist", err)
	}
	if err := s.db.Preload("Movie").Where("user_id = ?", user.ID).Find(&page.Liked).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load likes", err)
	}
	if err := s.db.Preload("Movie").Where("user_id = ?", user.ID).Find(&page.Watched).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load watched", err)
	}
	if err := s.db.Preload("Movie").Where("user_id = ?", user.ID).Find(&page.Reviews).Error; err != nil {
		return nil, apperrors.NewInternal("failed to load reviews", err)
	}

	if viewerID != 0 && viewerID != user.ID {
		var n int64
		if err := s.db.Model(&database.Follower{}).
			Where("follower_id = ? AND following_id = ?", viewerID, user.ID).
			Count(&n).Error; err != nil {
			return nil, apperrors.NewInternal("failed to check follow state", err)
		}
		page.IsFollowing = n > 0
	}

	return page, nil
}
