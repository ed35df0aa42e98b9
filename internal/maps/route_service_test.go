package maps

import (
	"errors"
	"testing"
	"time"

	"googlemaps.github.io/maps"
)

func TestFirstLeg(t *testing.T) {
	if _, _, err := firstLeg(nil); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
	if _, _, err := firstLeg([]maps.Route{{}}); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute for route without legs, got %v", err)
	}

	leg := &maps.Leg{Duration: 14 * time.Minute, Distance: maps.Distance{HumanReadable: "6.2 km", Meters: 6200}}
	d, dist, err := firstLeg([]maps.Route{{Legs: []*maps.Leg{leg}}})
	if err != nil {
		t.Fatalf("firstLeg: %v", err)
	}
	if d != 14*time.Minute || dist != "6.2 km" {
		t.Fatalf("unexpected estimate %v %q", d, dist)
	}
}

func TestNewRouteServiceOptions(t *testing.T) {
	if _, err := NewRouteService(""); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	s, err := NewRouteService("test-key", WithLocale("hi", "in"))
	if err != nil {
		t.Fatalf("NewRouteService: %v", err)
	}
	if s.language != "hi" || s.region != "in" {
		t.Fatalf("locale not applied: %q %q", s.language, s.region)
	}
}
