package database

import (
	"time"
)

// User represents an account. Authentication is handled by an external
// layer; the store only needs the identity and the staff flag that gates
// privileged catalog writes.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	IsStaff   bool      `gorm:"default:false" json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile holds the user-editable page data. Exactly one profile exists
// per user; it is created inside the user-creation transaction.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Bio       string    `gorm:"type:text" json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Follower is a directed edge in the social graph: follower -> following.
// The pair is unique; duplicates are ignored at insert time.
type Follower struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;index;uniqueIndex:idx_follower_pair" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follower_pair" json:"following_id"`
	Follower    User      `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following   User      `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Movie is a catalog entry. Names are unique across the catalog.
type Movie struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"uniqueIndex;not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	ReleaseDate   time.Time `gorm:"index" json:"release_date"`
	Genre         string    `json:"genre"`
	LengthMinutes int       `gorm:"not null" json:"length_minutes"`
	PosterURL     string    `json:"poster_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Person is a cast or crew member. Names are deliberately not unique:
// lookups get-or-create by exact name and tolerate duplicates.
type Person struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;index" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MovieCast links a person to a movie under a role. The (movie, person,
// role) triple is unique.
type MovieCast struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MovieID   uint      `gorm:"not null;index;uniqueIndex:idx_movie_cast_entry" json:"movie_id"`
	PersonID  uint      `gorm:"not null;uniqueIndex:idx_movie_cast_entry" json:"person_id"`
	Role      string    `gorm:"not null;uniqueIndex:idx_movie_cast_entry" json:"role"`
	Movie     Movie     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Person    Person    `gorm:"constraint:OnDelete:CASCADE" json:"person,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Review is a rated writeup. A user may review the same movie more than
// once; there is intentionally no uniqueness constraint here.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	MovieID   uint      `gorm:"not null;index" json:"movie_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Movie     Movie     `gorm:"constraint:OnDelete:CASCADE" json:"movie,omitempty"`
	Content   string    `gorm:"type:text" json:"content"`
	Rating    int       `gorm:"not null" json:"rating"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WatchList marks a movie a user intends to watch. Set semantics: the
// (user, movie) pair is unique and inserts ignore duplicates.
type WatchList struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_watchlist_entry" json:"user_id"`
	MovieID   uint      `gorm:"not null;uniqueIndex:idx_watchlist_entry" json:"movie_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Movie     Movie     `gorm:"constraint:OnDelete:CASCADE" json:"movie,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Like marks a movie a user liked. Same set semantics as WatchList.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_like_entry" json:"user_id"`
	MovieID   uint      `gorm:"not null;uniqueIndex:idx_like_entry" json:"movie_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Movie     Movie     `gorm:"constraint:OnDelete:CASCADE" json:"movie,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Watched marks a movie a user has seen. Same set semantics as WatchList.
type Watched struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_watched_entry" json:"user_id"`
	MovieID   uint      `gorm:"not null;uniqueIndex:idx_watched_entry" json:"movie_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Movie     Movie     `gorm:"constraint:OnDelete:CASCADE" json:"movie,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AllModels lists every entity for migration, in FK dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&Follower{},
		&Movie{},
		&Person{},
		&MovieCast{},
		&Review{},
		&WatchList{},
		&Like{},
		&Watched{},
	}
}
