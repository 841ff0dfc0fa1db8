// Package ingest fills the catalog from the TMDB HTTP API.
package ingest

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cinelog/cinelog/internal/config"
)

// MovieStub is one entry of a paginated listing.
type MovieStub struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Overview     string `json:"overview"`
	ReleaseDate  string `json:"release_date"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

type listingPage struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []MovieStub `json:"results"`
}

// MovieDetails is the full movie record.
type MovieDetails struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	PosterPath  string  `json:"poster_path"`
	Genres      []Genre `json:"genres"`
}

// Genre is a TMDB genre tag.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CreditEntry is one cast or crew row of a credits response.
type CreditEntry struct {
	Name       string `json:"name"`
	Character  string `json:"character"`
	Job        string `json:"job"`
	Department string `json:"department"`
	Order      int    `json:"order"`
}

// Credits is the cast and crew of a movie.
type Credits struct {
	Cast []CreditEntry `json:"cast"`
	Crew []CreditEntry `json:"crew"`
}

// Client is a thin TMDB API client.
type Client struct {
	http   *resty.Client
	apiKey string
}

// NewClient creates a TMDB client from the ingest configuration.
func NewClient(cfg config.IngestConfig) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(time.Second)
	return &Client{http: http, apiKey: cfg.APIKey}
}

func (c *Client) get(path string, query map[string]string, out interface{}) error {
	req := c.http.R().
		SetQueryParam("api_key", c.apiKey).
		SetResult(out)
	for k, v := range query {
		req.SetQueryParam(k, v)
	}
	resp, err := req.Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("tmdb request failed: %s %s", resp.Status(), path)
	}
	return nil
}

// ListMovies fetches one page of a listing endpoint such as
// "movie/popular" or "movie/top_rated".
func (c *Client) ListMovies(endpoint string, page int) ([]MovieStub, int, error) {
	var result listingPage
	err := c.get(endpoint, map[string]string{"page": fmt.Sprintf("%d", page)}, &result)
	if err != nil {
		return nil, 0, err
	}
	return result.Results, result.TotalPages, nil
}

// GetDetails fetches the full record for one movie.
func (c *Client) GetDetails(movieID int) (*MovieDetails, error) {
	var details MovieDetails
	if err := c.get(fmt.Sprintf("movie/%d", movieID), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetCredits fetches the cast and crew for one movie.
func (c *Client) GetCredits(movieID int) (*Credits, error) {
	var credits Credits
	if err := c.get(fmt.Sprintf("movie/%d/credits", movieID), nil, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}
