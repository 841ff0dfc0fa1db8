package reviewmodule

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/middleware"
)

type reviewBody struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

func registerRoutes(router *gin.Engine, service *Service) {
	api := router.Group("/api/v1")

	api.GET("/reviews/:id", getReview(service))

	authed := api.Group("", middleware.RequireUser())
	authed.POST("/movies/:id/reviews", createReview(service))
	authed.PUT("/reviews/:id", editReview(service))
	authed.DELETE("/reviews/:id", deleteReview(service))
}

func idParam(c *gin.Context, field string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperrors.NewValidation(field+" must be a number", field)
	}
	return uint(id), nil
}

func createReview(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		movieID, err := idParam(c, "movie id")
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		var body reviewBody
		if err := c.ShouldBindJSON(&body); err != nil {
			apperrors.Respond(c, apperrors.NewValidation("invalid request body", "body"))
			return
		}
		review, err := service.Create(user.ID, movieID, body.Content, body.Rating)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, review)
	}
}

func editReview(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		reviewID, err := idParam(c, "review id")
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		var body reviewBody
		if err := c.ShouldBindJSON(&body); err != nil {
			apperrors.Respond(c, apperrors.NewValidation("invalid request body", "body"))
			return
		}
		review, err := service.Edit(user.ID, reviewID, body.Content, body.Rating)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, review)
	}
}

func deleteReview(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		reviewID, err := idParam(c, "review id")
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		if err := service.Delete(user.ID, reviewID); err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}

func getReview(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		reviewID, err := idParam(c, "review id")
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		review, err := service.Get(reviewID)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, review)
	}
}
