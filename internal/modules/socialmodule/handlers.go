package socialmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/middleware"
	"github.com/cinelog/cinelog/internal/utils"
)

func registerRoutes(router *gin.Engine, service *Service) {
	api := router.Group("/api/v1")

	api.GET("/users/:username/followers", listFollowers(service))
	api.GET("/users/:username/following", listFollowing(service))

	authed := api.Group("", middleware.RequireUser())
	authed.POST("/users/:username/follow", follow(service))
	authed.DELETE("/users/:username/follow", unfollow(service))
	authed.GET("/feed", feed(service))
}

func follow(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		if err := service.Follow(user.ID, c.Param("username")); err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "following"})
	}
}

func unfollow(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		if err := service.Unfollow(user.ID, c.Param("username")); err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "not_following"})
	}
}

func listFollowers(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		followers, err := service.ListFollowers(c.Param("username"))
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"followers": followers, "count": len(followers)})
	}
}

func listFollowing(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		following, err := service.ListFollowing(c.Param("username"))
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"following": following, "count": len(following)})
	}
}

func feed(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		page, err := service.BuildFeed(user.ID, utils.PageParam(c))
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}
