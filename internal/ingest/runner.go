package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/logger"
	"github.com/cinelog/cinelog/internal/modules/catalogmodule"
)

// Listing endpoints drained in order until the movie target is reached.
var listingEndpoints = []string{
	"movie/popular",
	"movie/top_rated",
	"movie/now_playing",
	"movie/upcoming",
}

// Cast roles by billing position: the first credit is the lead, the
// next four supporting, the rest plain actors.
const (
	roleLead        = "Lead"
	roleSupporting  = "Supporting"
	supportingLimit = 5
)

// Crew limits per movie.
const (
	directorLimit = 3
	writerLimit   = 3
	producerLimit = 2
)

// fallbackCrewJob is stored when a crew credit carries no job.
const fallbackCrewJob = "Crew"

// fallbackRuntime is used when TMDB reports no runtime; the catalog
// requires a positive length.
const fallbackRuntime = 120

// Runner walks the TMDB listings and writes movies through the catalog
// service. Failures on individual movies are logged and skipped; the
// run is best-effort and restartable.
type Runner struct {
	client  *Client
	catalog *catalogmodule.Service
	cfg     config.IngestConfig

	seen map[int]bool
}

// NewRunner creates an ingestion runner.
func NewRunner(client *Client, catalog *catalogmodule.Service, cfg config.IngestConfig) *Runner {
	return &Runner{
		client:  client,
		catalog: catalog,
		cfg:     cfg,
		seen:    make(map[int]bool),
	}
}

// Stats summarizes one ingestion run.
type Stats struct {
	Fetched  int
	Imported int
	Skipped  int
	Failed   int
}

// Run ingests movies until the configured target is reached, the
// listings are exhausted, or the context is cancelled.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	for _, endpoint := range listingEndpoints {
		if stats.Imported >= r.cfg.MovieTarget {
			break
		}
		if err := r.drainEndpoint(ctx, endpoint, stats); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			logger.Warn("listing endpoint abandoned", "endpoint", endpoint, "error", err)
		}
	}
	logger.Info("ingestion finished",
		"fetched", stats.Fetched,
		"imported", stats.Imported,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	return stats, nil
}

func (r *Runner) drainEndpoint(ctx context.Context, endpoint string, stats *Stats) error {
	for page := 1; ; page++ {
		if stats.Imported >= r.cfg.MovieTarget {
			return nil
		}
		stubs, totalPages, err := r.client.ListMovies(endpoint, page)
		if err != nil {
			return err
		}
		for _, stub := range stubs {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if stats.Imported >= r.cfg.MovieTarget {
				return nil
			}
			stats.Fetched++
			switch r.ingestOne(stub) {
			case outcomeImported:
				stats.Imported++
			case outcomeSkipped:
				stats.Skipped++
			case outcomeFailed:
				stats.Failed++
			}

			select {
			case <-time.After(r.cfg.RequestDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if page >= totalPages || len(stubs) == 0 {
			return nil
		}
	}
}

type outcome int

const (
	outcomeImported outcome = iota
	outcomeSkipped
	outcomeFailed
)

// ingestOne imports a single movie with its cast and crew. Any error is
// logged and reported as a failed outcome; the run continues.
func (r *Runner) ingestOne(stub MovieStub) outcome {
	if r.seen[stub.ID] {
		return outcomeSkipped
	}
	r.seen[stub.ID] = true

	if strings.TrimSpace(stub.Title) == "" || stub.ReleaseDate == "" {
		return outcomeSkipped
	}
	exists, err := r.catalog.MovieNameExists(stub.Title)
	if err != nil {
		logger.Warn("movie lookup failed", "title", stub.Title, "error", err)
		return outcomeFailed
	}
	if exists {
		return outcomeSkipped
	}

	details, err := r.client.GetDetails(stub.ID)
	if err != nil {
		logger.Warn("details fetch failed", "title", stub.Title, "error", err)
		return outcomeFailed
	}
	released, err := time.Parse("2006-01-02", details.ReleaseDate)
	if err != nil {
		return outcomeSkipped
	}

	movie := &database.Movie{
		Name:          details.Title,
		Description:   details.Overview,
		ReleaseDate:   released,
		Genre:         firstGenre(details.Genres),
		LengthMinutes: runtimeOrFallback(details.Runtime),
		PosterURL:     posterURL(r.cfg.ImageBaseURL, details.PosterPath),
	}
	if err := r.catalog.CreateMovie(movie); err != nil {
		logger.Warn("movie create failed", "title", details.Title, "error", err)
		return outcomeFailed
	}

	credits, err := r.client.GetCredits(stub.ID)
	if err != nil {
		// The movie stays; cast is best-effort.
		logger.Warn("credits fetch failed", "title", details.Title, "error", err)
		return outcomeImported
	}
	r.importCredits(movie.ID, credits)

	logger.Debug("movie imported", "title", details.Title, "id", movie.ID)
	return outcomeImported
}

// importCredits writes the top-billed cast and a bounded crew slice.
// Individual failures are logged and skipped.
func (r *Runner) importCredits(movieID uint, credits *Credits) {
	limit := r.cfg.CastLimit
	if limit > len(credits.Cast) {
		limit = len(credits.Cast)
	}
	for i := 0; i < limit; i++ {
		entry := credits.Cast[i]
		role := catalogmodule.DefaultRole
		switch {
		case i == 0:
			role = roleLead
		case i < supportingLimit:
			role = roleSupporting
		}
		if err := r.catalog.AddCastMember(movieID, entry.Name, role); err != nil {
			logger.Warn("cast entry failed", "person", entry.Name, "error", err)
		}
	}

	for _, entry := range topCrew(credits.Crew) {
		role := entry.Job
		if role == "" {
			role = fallbackCrewJob
		}
		if err := r.catalog.AddCastMember(movieID, entry.Name, role); err != nil {
			logger.Warn("crew entry failed", "person", entry.Name, "error", err)
		}
	}
}

// topCrew selects up to three directors, three members of the writing
// department, and two producers, in that order. The credit's job is
// kept verbatim as the role, so a screenwriter credited as "Screenplay"
// stays "Screenplay".
func topCrew(crew []CreditEntry) []CreditEntry {
	groups := []struct {
		match func(CreditEntry) bool
		limit int
	}{
		{func(e CreditEntry) bool { return e.Job == "Director" }, directorLimit},
		{func(e CreditEntry) bool { return e.Department == "Writing" }, writerLimit},
		{func(e CreditEntry) bool { return e.Job == "Producer" }, producerLimit},
	}

	var out []CreditEntry
	for _, g := range groups {
		taken := 0
		for _, entry := range crew {
			if taken >= g.limit {
				break
			}
			if g.match(entry) {
				out = append(out, entry)
				taken++
			}
		}
	}
	return out
}

func firstGenre(genres []Genre) string {
	if len(genres) == 0 {
		return "Unknown"
	}
	return genres[0].Name
}

func runtimeOrFallback(runtime int) int {
	if runtime <= 0 {
		return fallbackRuntime
	}
	return runtime
}

func posterURL(base, path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + path
}
