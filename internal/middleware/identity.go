package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/database"
)

// IdentityHeader carries the authenticated user id, injected by the
// external auth layer in front of this service.
const IdentityHeader = "X-User-ID"

const contextUserKey = "cinelog.current_user"

// Identity resolves the current user from the identity header, if
// present, and attaches it to the request context. Requests without the
// header proceed anonymously.
func Identity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(IdentityHeader)
		if raw == "" {
			c.Next()
			return
		}

		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apperrors.Respond(c, apperrors.NewValidation("invalid user id header", IdentityHeader))
			c.Abort()
			return
		}

		var user database.User
		if err := db.First(&user, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperrors.Respond(c, apperrors.NewNotFound("user", id))
			} else {
				apperrors.Respond(c, apperrors.NewInternal("failed to resolve user", err))
			}
			c.Abort()
			return
		}

		c.Set(contextUserKey, &user)
		c.Next()
	}
}

// CurrentUser returns the resolved user for the request, if any.
func CurrentUser(c *gin.Context) (*database.User, bool) {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*database.User)
	return user, ok
}

// RequireUser aborts with PermissionDenied when the request is anonymous.
// Handlers behind it can rely on CurrentUser succeeding.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			apperrors.Respond(c, apperrors.NewPermissionDenied("authentication required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
