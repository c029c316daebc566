package ukgeog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/woozymasta/geotoolbox/internal/osm"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Options configures a Resolver.
type Options struct {
	Country     string // area searched for boundaries
	Precision   int    // geohash precision used to split hulls
	Concurrency int    // parallel boundary queries in batch lookups
}

// Failure records a location a batch lookup skipped.
type Failure struct {
	Location string `json:"location"`
	Error    string `json:"error"`
}

// BatchResult is the outcome of ConvertListToUKGeog.
type BatchResult struct {
	Rows     []Row     `json:"rows"`
	Failures []Failure `json:"failures,omitempty"`
}

// Resolver joins OpenStreetMap boundaries against an LSOA dataset.
type Resolver struct {
	querier osm.Querier
	dataset *Dataset
	opts    Options
}

// NewResolver creates a Resolver.
func NewResolver(q osm.Querier, ds *Dataset, opts Options) *Resolver {
	if opts.Country == "" {
		opts.Country = "United Kingdom"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Resolver{querier: q, dataset: ds, opts: opts}
}

// ConvertStringToUKGeog returns the geographies intersecting the boundary of
// location. Only England and Wales are covered by the LSOA dataset.
func (r *Resolver) ConvertStringToUKGeog(ctx context.Context, location string, o Output) ([]Row, error) {
	b, err := osm.ConvertStringToBoundary(ctx, r.querier, r.opts.Country, location, r.opts.Precision)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("location", location).
		Int("polygons", len(b.Polygons)).
		Msg("Performing spatial join")

	rows := r.dataset.Join(location, b.Polygons)
	return Project(rows, o), nil
}

// ConvertListToUKGeog resolves many locations against a single loaded
// dataset. Locations that fail are logged and reported in Failures; the
// remaining rows keep input order.
func (r *Resolver) ConvertListToUKGeog(ctx context.Context, locations []string, o Output) (*BatchResult, error) {
	perLocation := make([][]Row, len(locations))
	var (
		mu       sync.Mutex
		failures = make(map[int]Failure)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, loc := range locations {
		i, loc := i, loc
		loc = strings.TrimSpace(loc)
		g.Go(func() error {
			if loc == "" {
				return nil
			}

			rows, err := r.ConvertStringToUKGeog(gctx, loc, o)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn().Err(err).Str("location", loc).Msg("Skipping location, likely no polygons found")

				mu.Lock()
				failures[i] = Failure{Location: loc, Error: err.Error()}
				mu.Unlock()
				return nil
			}

			perLocation[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("uk geography batch: %w", err)
	}

	res := &BatchResult{Rows: []Row{}}
	for i := range locations {
		res.Rows = append(res.Rows, perLocation[i]...)
		if f, ok := failures[i]; ok {
			res.Failures = append(res.Failures, f)
		}
	}

	return res, nil
}
