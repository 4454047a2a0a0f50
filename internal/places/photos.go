// Package places provides place-photo lookup against the Google Places API.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
	"github.com/tripsync-ai/trip-planning-platform/pkg/metrics"
)

const (
	baseURLV1       = "https://places.googleapis.com/v1"
	photoMaxWidthPx = 640
)

// ErrNoPhoto is returned when the lookup succeeds but yields no photo.
var ErrNoPhoto = errors.New("places: no photo found")

// Client looks up representative photos for place names. Results are
// cached so repeated consensus runs for the same candidates don't hit the
// API again.
type Client struct {
	apiKey     string
	httpClient *http.Client
	cache      *gocache.Cache
	logger     *logger.Logger
}

// NewClient creates a new places client. An empty API key is allowed; every
// lookup then reports ErrNoPhoto and callers use FallbackURL.
func NewClient(apiKey string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		cache:      gocache.New(12*time.Hour, time.Hour),
		logger:     log,
	}
}

type searchTextRequest struct {
	TextQuery string `json:"textQuery"`
}

type searchTextResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		Photos []struct {
			Name string `json:"name"`
		} `json:"photos"`
	} `json:"places"`
}

// FindPhoto returns a photo URL for the given place name, or ErrNoPhoto.
func (c *Client) FindPhoto(ctx context.Context, placeName string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoPhoto
	}

	if cached, ok := c.cache.Get(placeName); ok {
		metrics.PhotoLookupsTotal.WithLabelValues("cached").Inc()
		return cached.(string), nil
	}

	body, err := json.Marshal(searchTextRequest{TextQuery: placeName})
	if err != nil {
		return "", fmt.Errorf("places: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURLV1+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("places: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", "places.id,places.displayName,places.photos")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("places: search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("places: search returned %d", resp.StatusCode)
	}

	var result searchTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("places: decode response: %w", err)
	}

	for _, place := range result.Places {
		if len(place.Photos) == 0 {
			continue
		}
		photoURL := fmt.Sprintf("%s/%s/media?maxWidthPx=%d&key=%s",
			baseURLV1, place.Photos[0].Name, photoMaxWidthPx, c.apiKey)
		c.cache.SetDefault(placeName, photoURL)
		metrics.PhotoLookupsTotal.WithLabelValues("hit").Inc()
		c.logger.Debug("place photo resolved", zap.String("place", placeName))
		return photoURL, nil
	}

	return "", ErrNoPhoto
}

// FallbackURL returns a deterministic generic image URL for a place name,
// used when the photo lookup fails or is unavailable.
func FallbackURL(placeName string) string {
	return "https://source.unsplash.com/featured/?" + url.QueryEscape(placeName)
}
