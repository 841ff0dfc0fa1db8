package catalogmodule

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/middleware"
	"github.com/cinelog/cinelog/internal/utils"
)

func registerRoutes(router *gin.Engine, service *Service) {
	api := router.Group("/api/v1")

	api.GET("/movies", listMovies(service))
	api.GET("/movies/search", searchMovies(service))
	api.GET("/movies/:id", getMovie(service))
	api.GET("/movies/:id/reviews", listReviews(service))

	authed := api.Group("", middleware.RequireUser())
	authed.POST("/movies", addMovie(service))
}

// viewerID returns the requesting user's ID, or zero for anonymous
// requests. Catalog reads are public; the viewer only enriches them.
func viewerID(c *gin.Context) uint {
	if user, ok := middleware.CurrentUser(c); ok {
		return user.ID
	}
	return 0
}

func movieIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperrors.NewValidation("movie id must be a number", "id")
	}
	return uint(id), nil
}

func listMovies(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := service.ListMovies(viewerID(c), utils.PageParam(c))
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func searchMovies(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := service.SearchMovies(viewerID(c), c.Query("q"), utils.PageParam(c))
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func getMovie(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := movieIDParam(c)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		detail, err := service.GetMovie(viewerID(c), id)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func listReviews(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := movieIDParam(c)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		page, err := service.ListReviewsForMovie(id, utils.PageParam(c))
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func addMovie(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)

		var input MovieInput
		if err := c.ShouldBindJSON(&input); err != nil {
			apperrors.Respond(c, apperrors.NewValidation("invalid request body", "body"))
			return
		}
		movie, err := service.AddMovieWithCast(user, input)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, movie)
	}
}
