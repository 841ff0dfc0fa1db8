package usermodule

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/middleware"
)

func registerRoutes(router *gin.Engine, service *Service) {
	api := router.Group("/api/v1")

	api.POST("/users", createUser(service))
	api.GET("/users/:username/profile", viewProfile(service))

	authed := api.Group("", middleware.RequireUser())
	authed.GET("/profile", ownProfile(service))
	authed.PUT("/profile", updateProfile(service))
}

func createUser(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperrors.Respond(c, apperrors.NewValidation("invalid request body", "body"))
			return
		}

		user, err := service.CreateUser(input)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": user})
	}
}

func ownProfile(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		page, err := service.GetProfilePage(user.Username, user.ID)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func viewProfile(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var viewerID uint
		if viewer, ok := middleware.CurrentUser(c); ok {
			viewerID = viewer.ID
		}

		page, err := service.GetProfilePage(c.Param("username"), viewerID)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func updateProfile(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		var input UpdateProfileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperrors.Respond(c, apperrors.NewValidation("invalid request body", "body"))
			return
		}

		profile, err := service.UpdateProfile(user.ID, input)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"profile": profile})
	}
}
