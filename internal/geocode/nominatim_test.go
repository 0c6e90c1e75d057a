package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseNominatimItems(t *testing.T) {
	items := []nominatimItem{
		{
			Lat:         "40.7484",
			Lon:         "-73.9857",
			DisplayName: "Empire State Building, New York",
			Importance:  0.72,
		},
	}
	res, err := parseNominatimItems(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Lat != 40.7484 || res.Lng != -73.9857 {
		t.Fatalf("unexpected coordinates: %+v", res)
	}
	if res.DisplayName != "Empire State Building, New York" {
		t.Fatalf("unexpected display name: %s", res.DisplayName)
	}
	if res.Confidence != 0.72 {
		t.Fatalf("unexpected confidence: %f", res.Confidence)
	}
}

func TestParseNominatimItemsEmpty(t *testing.T) {
	if _, err := parseNominatimItems(nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGeocodeCachesResults(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if got := r.URL.Query().Get("q"); got != "1600 Broadway" {
			t.Errorf("unexpected query: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"40.7601","lon":"-73.9845","display_name":"1600 Broadway, New York","importance":0.5}]`))
	}))
	defer srv.Close()

	g := NewNominatim(srv.URL, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		lat, lng, name, conf, err := g.Geocode(ctx, "1600 Broadway")
		if err != nil {
			t.Fatalf("geocode: %v", err)
		}
		if lat != 40.7601 || lng != -73.9845 {
			t.Fatalf("unexpected coordinates: %v, %v", lat, lng)
		}
		if name != "1600 Broadway, New York" || conf != 0.5 {
			t.Fatalf("unexpected result: %q %v", name, conf)
		}
	}
	if hits != 1 {
		t.Fatalf("server hit %d times, want 1 (cache miss only)", hits)
	}
}

func TestGeocodeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewNominatim(srv.URL, 100)
	if _, _, _, _, err := g.Geocode(context.Background(), "nowhere at all"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
