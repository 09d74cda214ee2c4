// Package lookup streams partial-match movie candidates from the metadata
// provider into a LIFO queue polled by the caller. A debounced producer
// submits title queries to a bounded worker pool; each successful run
// places exactly one candidate list on the queue.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/movielog/internal/constants"
	"github.com/cesargomez89/movielog/internal/domain"
	"github.com/cesargomez89/movielog/internal/faults"
	"github.com/cesargomez89/movielog/internal/logger"
	"github.com/cesargomez89/movielog/internal/tmdb"
)

// Provider is the remote-lookup capability the pipeline builds on.
type Provider interface {
	SearchMovies(ctx context.Context, apiKey, query string) ([]tmdb.SearchResult, error)
	MovieDetails(ctx context.Context, apiKey string, id int) (*tmdb.MovieDetails, error)
	MovieCredits(ctx context.Context, apiKey string, id int) (*tmdb.Credits, error)
}

// Cache stores provider responses so repeated detail fetches for the same
// candidate skip the network.
type Cache interface {
	GetCache(key string) ([]byte, error)
	SetCache(key string, data []byte, ttl time.Duration) error
}

type Pipeline struct {
	provider Provider
	cache    Cache
	enabled  bool
	sem      chan struct{}
	log      *logger.Logger
}

// NewPipeline builds a pipeline with a bounded worker pool. cache may be
// nil to disable response caching. When enabled is false every search
// completes immediately with LookupDisabled.
func NewPipeline(provider Provider, cache Cache, enabled bool, log *logger.Logger) *Pipeline {
	return &Pipeline{
		provider: provider,
		cache:    cache,
		enabled:  enabled,
		sem:      make(chan struct{}, constants.LookupConcurrency),
		log:      log.WithComponent("lookup"),
	}
}

// EnqueueSearch submits a title-fragment search to the worker pool and
// returns its completion handle. The producer places exactly one candidate
// list on the sink per successful run.
func (p *Pipeline) EnqueueSearch(ctx context.Context, apiKey, fragment string, sink *Queue) *Future {
	fut := newFuture()
	if !p.enabled {
		fut.complete(faults.New(faults.LookupDisabled, "remote lookup is switched off"))
		return fut
	}

	runID := uuid.New().String()
	go func() {
		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			fut.complete(ctx.Err())
			return
		}
		defer func() { <-p.sem }()
		fut.complete(p.run(ctx, runID, apiKey, fragment, sink))
	}()
	return fut
}

func (p *Pipeline) run(ctx context.Context, runID, apiKey, fragment string, sink *Queue) error {
	log := p.log.WithSearch(runID, fragment)

	results, err := p.provider.SearchMovies(ctx, apiKey, fragment)
	if err != nil {
		log.Error("provider search failed", "error", err)
		return err
	}

	bags := make([]domain.MovieBag, 0, len(results))
	for _, result := range results {
		bag, err := p.fetchCandidate(ctx, apiKey, result)
		if err != nil {
			// A 404 on an id the provider itself returned is logged and
			// skipped, unless it was the sole result.
			if faults.Is(err, faults.ProviderRecordMissing) && len(results) > 1 {
				log.Error("provider record missing", "id", result.ID, "error", err)
				continue
			}
			log.Error("candidate fetch failed", "id", result.ID, "error", err)
			return err
		}
		bags = append(bags, *bag)
	}

	sink.Push(bags)
	log.Info("lookup complete", "candidates", len(bags))
	return nil
}

// fetchCandidate fetches detail and credits for one search result and
// projects them into the internal movie shape.
func (p *Pipeline) fetchCandidate(ctx context.Context, apiKey string, result tmdb.SearchResult) (*domain.MovieBag, error) {
	var details tmdb.MovieDetails
	if err := p.cached(ctx, fmt.Sprintf("tmdb:movie:%d", result.ID), &details, func(out interface{}) error {
		d, err := p.provider.MovieDetails(ctx, apiKey, result.ID)
		if err != nil {
			return err
		}
		*out.(*tmdb.MovieDetails) = *d
		return nil
	}); err != nil {
		return nil, err
	}

	var credits tmdb.Credits
	if err := p.cached(ctx, fmt.Sprintf("tmdb:credits:%d", result.ID), &credits, func(out interface{}) error {
		c, err := p.provider.MovieCredits(ctx, apiKey, result.ID)
		if err != nil {
			return err
		}
		*out.(*tmdb.Credits) = *c
		return nil
	}); err != nil {
		return nil, err
	}

	bag := &domain.MovieBag{
		Title:    details.Title,
		Year:     yearFromReleaseDate(details.ReleaseDate),
		Duration: details.Runtime,
		Synopsis: details.Overview,
	}
	for _, member := range credits.Crew {
		if member.Job == constants.CrewJobDirector {
			bag.Directors = append(bag.Directors, member.Name)
		}
	}
	bag.Directors = domain.NormalizeSet(bag.Directors)
	return bag, nil
}

// cached resolves out from the response cache when possible, otherwise
// calls fetch and stores the result. Cache failures never fail a run.
func (p *Pipeline) cached(ctx context.Context, key string, out interface{}, fetch func(out interface{}) error) error {
	if p.cache != nil {
		if data, err := p.cache.GetCache(key); err == nil && data != nil {
			if err := json.Unmarshal(data, out); err == nil {
				return nil
			}
		}
	}
	if err := fetch(out); err != nil {
		return err
	}
	if p.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			_ = p.cache.SetCache(key, data, constants.DefaultCacheTTL)
		}
	}
	return nil
}

// yearFromReleaseDate takes the first four characters of the provider's
// release date. Blank or shorter dates yield an unset year.
func yearFromReleaseDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	var year int
	if _, err := fmt.Sscanf(date[:4], "%d", &year); err != nil {
		return 0
	}
	return year
}
