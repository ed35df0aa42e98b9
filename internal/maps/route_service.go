// README: Google Maps driving estimate attached to booking confirmations.
package maps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

var ErrNoRoute = errors.New("no route found")

// RouteService handles interactions with the Google Maps Directions API.
type RouteService struct {
	client   *maps.Client
	language string
	region   string
}

type Option func(*RouteService)

// WithLocale sets the response language and the region bias, e.g. "en", "in".
func WithLocale(language, region string) Option {
	return func(s *RouteService) {
		s.language = language
		s.region = region
	}
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string, opts ...Option) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	s := &RouteService{client: client, language: "en"}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetTravelEstimate returns the driving duration and a readable distance
// from pickup to drop.
func (s *RouteService) GetTravelEstimate(ctx context.Context, pickup, drop string) (time.Duration, string, error) {
	r := &maps.DirectionsRequest{
		Origin:      pickup,
		Destination: drop,
		Mode:        maps.TravelModeDriving,
		Language:    s.language,
		Region:      s.region,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, "", fmt.Errorf("maps api error: %w", err)
	}
	return firstLeg(routes)
}

func firstLeg(routes []maps.Route) (time.Duration, string, error) {
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, "", ErrNoRoute
	}
	leg := routes[0].Legs[0]
	return leg.Duration, leg.Distance.HumanReadable, nil
}
