package consensus

import (
	"context"

	"go.uber.org/zap"

	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/internal/places"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
	"github.com/tripsync-ai/trip-planning-platform/pkg/metrics"
)

// PhotoFinder resolves a representative photo URL for a place name.
type PhotoFinder interface {
	FindPhoto(ctx context.Context, placeName string) (string, error)
}

// Enricher attaches a representative image URL to each candidate.
// Enrichment is best-effort: a failed lookup degrades to a generic URL and
// never fails the pipeline.
type Enricher struct {
	photos PhotoFinder
	logger *logger.Logger
}

// NewEnricher creates a new image enricher. A nil finder means every
// candidate gets the generic fallback URL.
func NewEnricher(photos PhotoFinder, log *logger.Logger) *Enricher {
	return &Enricher{photos: photos, logger: log}
}

// Enrich annotates candidates with image URLs in place and returns them.
func (e *Enricher) Enrich(ctx context.Context, candidates []model.PlaceCandidate) []model.PlaceCandidate {
	for i := range candidates {
		name := candidates[i].PlaceName
		if name == "" {
			continue
		}

		if e.photos != nil {
			url, err := e.photos.FindPhoto(ctx, name)
			if err == nil && url != "" {
				candidates[i].ImageURL = url
				continue
			}
			if err != nil {
				e.logger.Debug("photo lookup failed, using fallback image",
					zap.String("place", name), zap.Error(err))
			}
		}

		candidates[i].ImageURL = places.FallbackURL(name)
		metrics.PhotoLookupsTotal.WithLabelValues("fallback").Inc()
	}
	return candidates
}
