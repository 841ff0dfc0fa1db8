package engagementmodule

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/middleware"
)

func registerRoutes(router *gin.Engine, service *Service) {
	authed := router.Group("/api/v1", middleware.RequireUser())

	authed.GET("/me/:kind", list(service))
	authed.POST("/movies/:id/:kind", add(service))
	authed.DELETE("/movies/:id/:kind", remove(service))
}

func kindParam(c *gin.Context) (Kind, error) {
	return ParseKind(c.Param("kind"))
}

func movieIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperrors.NewValidation("movie id must be a number", "id")
	}
	return uint(id), nil
}

func add(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		kind, err := kindParam(c)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		movieID, err := movieIDParam(c)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		if err := service.Add(kind, user.ID, movieID); err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "added", "set": kind})
	}
}

func remove(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		kind, err := kindParam(c)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		movieID, err := movieIDParam(c)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		if err := service.Remove(kind, user.ID, movieID); err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "removed", "set": kind})
	}
}

func list(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		kind, err := kindParam(c)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		ids, err := service.MovieIDs(kind, user.ID)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"set": kind, "movie_ids": ids})
	}
}
